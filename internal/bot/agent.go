package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/domain"
	"herowiz/internal/session"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ErrNoMove is returned by a brain that has nothing legal to do.
var ErrNoMove = errors.New("no legal move")

// Agent represents an autonomous bot player at one seat.
type Agent struct {
	ID       string
	Name     string
	Seat     int
	Strategy Brain

	svc     *app.Service
	lastSeq uint64
}

// NewAgent builds an agent for identity at seat.
func NewAgent(identity BotIdentity, seat int, svc *app.Service) (*Agent, error) {
	level, err := ParseLevel(identity.Difficulty)
	if err != nil {
		return nil, err
	}
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: identity.UserID, Name: identity.DisplayName, Seat: seat, Strategy: brain, svc: svc}, nil
}

// Play asks the agent for its next action in state. ok is false when it is
// not the agent's turn or the game is over.
func (a *Agent) Play(state *domain.GameState) (action app.Action, ok bool, err error) {
	if state == nil || state.Over() || state.Mover != a.Seat {
		return app.Action{}, false, nil
	}
	// The player who triggered an effect notice acknowledges it.
	if n := state.EffectNotice; n != nil && n.Seat == a.Seat {
		return app.Dismiss(app.ActionDismissEffectNotice), true, nil
	}
	action, err = a.Strategy.CalculateMove(a.svc, state, a.Seat)
	if errors.Is(err, ErrNoMove) {
		// Blocked by a notice; the next snapshot may free it.
		return app.Action{}, false, nil
	}
	if err != nil {
		return app.Action{}, false, err
	}
	return action, true, nil
}

// Run plays for the agent through sess until the game ends or ctx is done.
// Each decision waits think before it is sent, and a view is acted on at
// most once.
func (a *Agent) Run(ctx context.Context, sess *session.Session, think time.Duration, logger runtime.Logger) error {
	views := make(chan session.View, 1)
	push := func(v session.View) {
		for {
			select {
			case views <- v:
				return
			default:
			}
			select {
			case <-views:
			default:
			}
		}
	}
	unsubscribe := sess.Subscribe(push)
	defer unsubscribe()
	push(sess.Snapshot())

	for {
		var v session.View
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v = <-views:
		}
		if v.State != nil && v.State.Over() {
			logger.Info("Game over, winner %s", v.State.Winner)
			return nil
		}
		if !v.MyTurn() || v.Seq <= a.lastSeq {
			continue
		}

		if think > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(think):
			}
			// Something else moved the game on while thinking.
			if latest := sess.Snapshot(); latest.Seq != v.Seq {
				push(latest)
				continue
			}
		}

		action, ok, err := a.Play(v.State)
		if err != nil {
			return fmt.Errorf("bot %s at seat %d: %w", a.ID, a.Seat, err)
		}
		if !ok {
			continue
		}
		a.lastSeq = v.Seq
		logger.Debug("Seat %d plays %s", a.Seat, action.Type)
		sess.Dispatch(action)
	}
}
