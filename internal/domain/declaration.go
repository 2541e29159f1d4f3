package domain

import "fmt"

// DeclarationMessage describes a play for the other seats. It must be built
// before the play is applied so swaps are reported as swaps.
func (r *Rules) DeclarationMessage(s *GameState, seat int, id CardID, target *Target) string {
	name := "A player"
	party := EmptyParty()
	if seat >= 0 && seat < len(s.Players) {
		name = s.Players[seat].Name
		party = s.Players[seat].Party
	}
	card, ok := r.Catalog.Card(id)
	if !ok {
		return fmt.Sprintf("%s is playing a card.", name)
	}

	switch card.Kind {
	case KindHero:
		slot := FactionSlot(card.Faction)
		if party[slot] != NoCard {
			return fmt.Sprintf("%s is swapping their %s for %s.", name, slot, card.Name)
		}
		return fmt.Sprintf("%s is playing %s as their %s.", name, card.Name, slot)
	case KindWizard:
		if party[SlotWizard] != NoCard {
			return fmt.Sprintf("%s is swapping their Wizard for %s.", name, card.Name)
		}
		return fmt.Sprintf("%s is playing %s as their Wizard.", name, card.Name)
	case KindQuest:
		return fmt.Sprintf("%s is playing their Quest card!", name)
	}

	targetName := "a player"
	if target != nil && target.Player >= 0 && target.Player < len(s.Players) {
		targetName = s.Players[target.Player].Name
	}
	if target != nil && card.Effect.Arity() != TargetNone {
		if card.Effect == EffectHuntingExpedition {
			return fmt.Sprintf("%s is stealing a card from %s.", name, targetName)
		}
		slot := SlotWizard
		if f, ok := card.Effect.StealsFaction(); ok {
			slot = FactionSlot(f)
		}
		return fmt.Sprintf("%s is targeting %s (%s).", name, targetName, slot)
	}
	return fmt.Sprintf("%s is playing %s: %s", name, card.Name, card.Text)
}
