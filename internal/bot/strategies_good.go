package bot

import (
	"herowiz/internal/app"
	"herowiz/internal/domain"
)

// GoodBot takes the first thing it is offered: confirm, first playable
// card that does not swap out a party card, draw, then pass.
type GoodBot struct{}

func (b *GoodBot) CalculateMove(svc *app.Service, state *domain.GameState, seat int) (app.Action, error) {
	r := svc.Rules()
	legal := r.LegalActions(state)
	switch {
	case !legal.Any():
		return app.Action{}, ErrNoMove
	case legal.CanConfirm:
		return app.ConfirmDeclaration(nil), nil
	}

	for _, id := range legal.Playable {
		card, _ := r.Catalog.Card(id)
		if occupiesFilledSlot(state.Players[seat].Party, card) {
			continue
		}
		targets := candidateTargets(state, seat, card)
		if len(targets) == 0 {
			// An event without a usable target would be wasted.
			if card.Kind == domain.KindEvent && card.Effect.Arity() != domain.TargetNone {
				continue
			}
			return app.PlayCard(id, nil), nil
		}
		return app.PlayCard(id, targets[0]), nil
	}

	if legal.CanDraw {
		return app.Draw(), nil
	}
	if legal.CanPass {
		return app.PassTurn(), nil
	}
	if legal.CanDump {
		if id, ok := firstDumpable(r, state.Players[seat].Hand); ok {
			return app.DumpCard(id), nil
		}
	}
	if len(legal.Playable) > 0 {
		return app.PlayCard(legal.Playable[0], nil), nil
	}
	if legal.CanDrawFromPile {
		return app.DrawFromPile(state.DiscardPile[len(state.DiscardPile)-1]), nil
	}
	return app.Action{}, ErrNoMove
}

func firstDumpable(r *domain.Rules, hand []domain.CardID) (domain.CardID, bool) {
	for _, id := range hand {
		if c, ok := r.Catalog.Card(id); ok && c.Kind != domain.KindEvent {
			return id, true
		}
	}
	return domain.NoCard, false
}

// occupiesFilledSlot reports whether playing card would return a party card to hand.
func occupiesFilledSlot(p domain.Party, card domain.Card) bool {
	switch card.Kind {
	case domain.KindHero:
		return p[domain.FactionSlot(card.Faction)] != domain.NoCard
	case domain.KindWizard:
		return p[domain.SlotWizard] != domain.NoCard
	}
	return false
}
