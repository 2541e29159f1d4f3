package bot

import (
	"sort"

	"herowiz/internal/app"
	"herowiz/internal/domain"
)

// SmartBot simulates every legal move and keeps the one that improves its
// position most. Quests and steals fall out of the scoring: a quest wins
// outright and a steal into a Healer only loses the card.
type SmartBot struct {
	Tuning Tuning
}

type scoredMove struct {
	Action app.Action
	Score  float64
}

func (b *SmartBot) CalculateMove(svc *app.Service, state *domain.GameState, seat int) (app.Action, error) {
	r := svc.Rules()
	legal := r.LegalActions(state)
	if !legal.Any() {
		return app.Action{}, ErrNoMove
	}
	if legal.CanConfirm {
		return app.ConfirmDeclaration(nil), nil
	}

	base := b.Tuning.evaluate(r, state, seat)
	var scored []scoredMove
	try := func(a app.Action) {
		next := svc.Apply(state, a)
		if next == state {
			return
		}
		scored = append(scored, scoredMove{Action: a, Score: b.Tuning.evaluate(r, next, seat) - base})
	}

	for _, id := range legal.Playable {
		card, _ := r.Catalog.Card(id)
		targets := candidateTargets(state, seat, card)
		if len(targets) == 0 {
			targets = []*domain.Target{nil}
		}
		for _, t := range targets {
			try(app.PlayCard(id, t))
		}
	}
	if legal.CanDrawFromPile {
		for _, id := range state.DiscardPile {
			try(app.DrawFromPile(id))
		}
	}
	if legal.CanDump {
		for _, id := range state.Players[seat].Hand {
			try(app.DumpCard(id))
		}
	}
	if legal.CanDraw {
		scored = append(scored, scoredMove{Action: app.Draw(), Score: b.Tuning.DrawValue})
	}

	if len(scored) == 0 {
		if legal.CanPass {
			return app.PassTurn(), nil
		}
		return app.Action{}, ErrNoMove
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if legal.CanPass && scored[0].Score < b.Tuning.PassThreshold {
		return app.PassTurn(), nil
	}
	return scored[0].Action, nil
}

// evaluate scores state from seat's point of view.
func (t Tuning) evaluate(r *domain.Rules, s *domain.GameState, seat int) float64 {
	if s.Over() {
		if s.WinnerSeat() == seat {
			return t.WinBonus
		}
		return -t.WinBonus
	}

	me := s.Players[seat]
	score := t.SkillWeight*questProgress(r, me.Party) + float64(len(me.Hand))*t.HandCardWeight
	for _, id := range me.Hand {
		if c, ok := r.Catalog.Card(id); ok && c.Kind == domain.KindQuest {
			score += t.QuestHeldBonus
		}
	}
	if ability, ok := r.Ability(me.Party); ok {
		score += t.WizardBonus
		switch ability {
		case domain.Healer:
			score += t.HealerBonus
		case domain.Spellcaster:
			score += t.SpellcasterBonus
		}
	}

	for _, o := range domain.ActiveSeats(s) {
		if o != seat {
			score -= t.OpponentSkillWeight * questProgress(r, s.Players[o].Party)
		}
	}
	return score
}

// questProgress is the party's best skill tally as a share of its threshold.
func questProgress(r *domain.Rules, p domain.Party) float64 {
	best := 0
	for _, n := range r.SkillTally(p) {
		if n > best {
			best = n
		}
	}
	return float64(best) / float64(r.QuestThresholdFor(p))
}
