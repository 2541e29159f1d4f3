package bot

import (
	"fmt"
	"testing"

	"herowiz/internal/app"
	"herowiz/internal/domain"
)

// Card ids from the standard deck.
const (
	questCard   domain.CardID = 0
	healerCard  domain.CardID = 4
	fortuneCard domain.CardID = 21
	royalCard   domain.CardID = 28
	knightSF    domain.CardID = 48
	knightSS    domain.CardID = 52
	knightSUU   domain.CardID = 55
)

// newTestState builds a running game with the given hands and seat 0 to move.
func newTestState(hands ...[]domain.CardID) *domain.GameState {
	players := make([]domain.Player, len(hands))
	for i, h := range hands {
		players[i] = domain.Player{
			ID:    fmt.Sprintf("p%d", i),
			Name:  fmt.Sprintf("Player %d", i),
			Hand:  h,
			Party: domain.EmptyParty(),
		}
	}
	return &domain.GameState{
		Players:      players,
		DrawPile:     []domain.CardID{60, 61, 62, 63},
		DiscardPile:  []domain.CardID{},
		Phase:        domain.PhaseChoosingAction,
		Left:         []int{},
		Disconnected: []int{},
	}
}

func assertAction(t *testing.T, got app.Action, wantType app.ActionType, wantCard domain.CardID) {
	t.Helper()
	if got.Type != wantType {
		t.Fatalf("action = %s, want %s", got.Type, wantType)
	}
	if wantCard == domain.NoCard {
		return
	}
	if got.Card == nil || *got.Card != wantCard {
		t.Fatalf("card = %v, want %d", got.Card, wantCard)
	}
}
