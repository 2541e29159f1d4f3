package bot

import (
	"herowiz/internal/domain"
)

// candidateTargets lists the targets worth trying for card played from
// seat. Effects that would hit an empty slot are left out.
func candidateTargets(state *domain.GameState, seat int, card domain.Card) []*domain.Target {
	if card.Kind != domain.KindEvent {
		return nil
	}
	arity := card.Effect.Arity()
	if arity == domain.TargetNone {
		return nil
	}

	var out []*domain.Target
	for _, o := range domain.ActiveSeats(state) {
		if o == seat {
			continue
		}
		victim := state.Players[o]
		if arity == domain.TargetPlayerAndHandCard {
			for _, id := range victim.Hand {
				out = append(out, domain.CardTarget(o, id))
			}
			continue
		}
		slot := domain.SlotWizard
		if f, ok := card.Effect.StealsFaction(); ok {
			slot = domain.FactionSlot(f)
		}
		if victim.Party[slot] == domain.NoCard {
			continue
		}
		out = append(out, domain.PlayerTarget(o))
	}
	return out
}
