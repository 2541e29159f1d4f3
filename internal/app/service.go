package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"herowiz/internal/domain"
)

// Service contains the game use-cases operating on domain state.
type Service struct {
	rules *domain.Rules
	rng   *rand.Rand
}

// NewService constructs a Service. A nil rules uses the standard deck and a
// nil rng a time-seeded default.
func NewService(rules *domain.Rules, rng *rand.Rand) *Service {
	if rules == nil {
		rules = domain.DefaultRules()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rules: rules, rng: rng}
}

var (
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrTooManyPlayers = errors.New("too many players to start")
	ErrNotStarted     = errors.New("game not started")
	ErrGameOver       = errors.New("game is over")
	ErrUnknownSeat    = errors.New("seat not in game")
	ErrNotYourTurn    = errors.New("sender is not the mover")
	ErrUnknownAction  = errors.New("unknown action type")
	ErrMissingCard    = errors.New("action requires a card id")
	ErrRejected       = errors.New("action had no effect")
)

// Rules exposes the engine so callers can compute legal actions.
func (s *Service) Rules() *domain.Rules {
	return s.rules
}

// StartGame deals a new game for the seats in order.
func (s *Service) StartGame(seats []domain.Seat) (*domain.GameState, error) {
	if len(seats) < s.rules.MinPlayers {
		return nil, ErrTooFewPlayers
	}
	if len(seats) > s.rules.MaxPlayers {
		return nil, ErrTooManyPlayers
	}
	state, err := s.rules.NewGame(s.rng, seats)
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	return state, nil
}

// Apply runs an action against state. Rejected actions return state itself.
func (s *Service) Apply(state *domain.GameState, a Action) *domain.GameState {
	r := s.rules
	switch a.Type {
	case ActionDraw:
		return r.Draw(state)
	case ActionPassTurn:
		return r.Pass(state)
	case ActionConfirmDeclaration:
		return r.ConfirmDeclaration(state, a.Target)
	case ActionDismissDrew:
		return r.DismissDraw(state)
	case ActionDismissDumped:
		return r.DismissDump(state)
	case ActionDismissDrewFromPile:
		return r.DismissSummon(state)
	case ActionDismissEffectNotice:
		return r.DismissEffect(state)
	case ActionDismissDeclarationPreview:
		return r.DismissPreview(state)
	}

	if a.Card == nil {
		return state
	}
	id := *a.Card
	switch a.Type {
	case ActionPlayCard:
		return r.PlayWithPreview(state, id, a.Target)
	case ActionDeclarePlay:
		return r.DeclarePlay(state, id, a.Target)
	case ActionDumpCard:
		return r.Dump(state, id)
	case ActionDrawFromPile:
		return r.DrawFromPile(state, id)
	}
	return state
}

// Accept is the host-side gate for a networked action: the sender must be
// the mover unless the action is a dismiss. It returns the new state or an
// error explaining why the action was dropped.
func (s *Service) Accept(state *domain.GameState, a Action, fromSeat int) (*domain.GameState, error) {
	if state == nil {
		return nil, ErrNotStarted
	}
	if fromSeat < 0 || fromSeat >= len(state.Players) {
		return state, ErrUnknownSeat
	}
	if err := validate(a); err != nil {
		return state, err
	}
	if !AlwaysAllowed(a.Type) {
		if state.Over() {
			return state, ErrGameOver
		}
		if fromSeat != state.Mover {
			return state, ErrNotYourTurn
		}
	}
	next := s.Apply(state, a)
	if next == state {
		return state, ErrRejected
	}
	return next, nil
}

func validate(a Action) error {
	switch a.Type {
	case ActionDraw, ActionPassTurn, ActionConfirmDeclaration:
		return nil
	case ActionPlayCard, ActionDeclarePlay, ActionDumpCard, ActionDrawFromPile:
		if a.Card == nil {
			return ErrMissingCard
		}
		return nil
	}
	if AlwaysAllowed(a.Type) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}
