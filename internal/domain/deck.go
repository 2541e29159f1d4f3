package domain

import (
	"fmt"
	"math/rand"
)

// Seat identifies a participant at game creation.
type Seat struct {
	ID   string
	Name string
}

// NewDeck returns every catalog id in a random order.
func (r *Rules) NewDeck(rng *rand.Rand) []CardID {
	deck := make([]CardID, r.Catalog.Len())
	for i := range deck {
		deck[i] = CardID(i)
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// NewGame shuffles the deck, deals each seat its opening hand and gives seat 0 the first turn.
func (r *Rules) NewGame(rng *rand.Rand, seats []Seat) (*GameState, error) {
	if len(seats) < r.MinPlayers || len(seats) > r.MaxPlayers {
		return nil, fmt.Errorf("players must be between %d and %d, got %d", r.MinPlayers, r.MaxPlayers, len(seats))
	}
	deck := r.NewDeck(rng)
	if len(deck) < len(seats)*r.HandSizeDealt {
		return nil, fmt.Errorf("deck of %d cards cannot deal %d hands", len(deck), len(seats))
	}

	players := make([]Player, len(seats))
	for i, seat := range seats {
		players[i] = Player{
			ID:    seat.ID,
			Name:  seat.Name,
			Hand:  cloneIDs(deck[i*r.HandSizeDealt : (i+1)*r.HandSizeDealt]),
			Party: EmptyParty(),
		}
	}

	return &GameState{
		Players:      players,
		DrawPile:     cloneIDs(deck[len(seats)*r.HandSizeDealt:]),
		DiscardPile:  []CardID{},
		Mover:        0,
		FirstPlayer:  0,
		Phase:        PhaseChoosingAction,
		Left:         []int{},
		Disconnected: []int{},
	}, nil
}
