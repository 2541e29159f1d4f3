package domain

import "fmt"

// resolveEffect applies an event to s, which the caller has already cloned.
// Bad or missing targets leave the board untouched; the card is still spent.
func (r *Rules) resolveEffect(s *GameState, effect EffectID, target *Target) {
	if faction, ok := effect.StealsFaction(); ok {
		r.stealHero(s, FactionSlot(faction), target)
		return
	}
	switch effect {
	case EffectSpellOfSummoning:
		swapSlot(s, SlotWizard, target)
	case EffectFeastEast:
		rotateHands(s, 1)
	case EffectFeastWest:
		rotateHands(s, -1)
	case EffectFortuneReading:
		s.EffectNotice = &EffectNotice{
			Seat:       s.Mover,
			Kind:       NoticeFortuneReading,
			TargetSeat: -1,
			Message:    fmt.Sprintf("%s is reading everyone's fortune.", s.Current().Name),
		}
	case EffectHuntingExpedition:
		huntCard(s, target)
	case EffectWizardTowerRepairs:
		if !validOpponent(s, target) {
			return
		}
		victim := &s.Players[target.Player]
		if w := victim.Party[SlotWizard]; w != NoCard {
			victim.Party[SlotWizard] = NoCard
			s.DiscardPile = append(s.DiscardPile, w)
		}
	case EffectEagles:
		s.Phase = PhaseGameOver
		s.Winner = s.Current().ID
	}
}

// validOpponent reports whether target names a seat other than the mover.
func validOpponent(s *GameState, target *Target) bool {
	return target != nil &&
		target.Player >= 0 &&
		target.Player < len(s.Players) &&
		target.Player != s.Mover
}

// stealHero swaps a faction slot with the target unless a Healer guards it.
func (r *Rules) stealHero(s *GameState, slot Slot, target *Target) {
	if !validOpponent(s, target) {
		return
	}
	victim := s.Players[target.Player]
	if r.hasAbility(victim.Party, Healer) {
		s.EffectNotice = &EffectNotice{
			Seat:       s.Mover,
			Kind:       NoticeBlocked,
			TargetSeat: target.Player,
			Message:    fmt.Sprintf("%s's Healer blocked the steal.", victim.Name),
		}
		return
	}
	swapSlot(s, slot, target)
}

// swapSlot exchanges one party slot between the mover and the target.
// An empty slot on the target side makes it a no-op.
func swapSlot(s *GameState, slot Slot, target *Target) {
	if !validOpponent(s, target) {
		return
	}
	victim := &s.Players[target.Player]
	taken := victim.Party[slot]
	if taken == NoCard {
		return
	}
	cur := s.Current()
	victim.Party[slot] = cur.Party[slot]
	cur.Party[slot] = taken
}

// rotateHands passes every hand dir seats along: 1 gives each hand to the
// seat on the right (seat i receives seat i-1's hand).
func rotateHands(s *GameState, dir int) {
	n := len(s.Players)
	hands := make([][]CardID, n)
	for i := range s.Players {
		hands[((i+dir)%n+n)%n] = s.Players[i].Hand
	}
	for i := range s.Players {
		s.Players[i].Hand = hands[i]
	}
}

// huntCard takes the named card from the target's hand.
func huntCard(s *GameState, target *Target) {
	if !validOpponent(s, target) || target.Card == nil {
		return
	}
	victim := &s.Players[target.Player]
	i := indexOf(victim.Hand, *target.Card)
	if i < 0 {
		return
	}
	victim.Hand = removeAt(victim.Hand, i)
	cur := s.Current()
	cur.Hand = append(cur.Hand, *target.Card)
}
