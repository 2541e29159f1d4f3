package bot

import (
	"herowiz/internal/app"
	"herowiz/internal/domain"
)

// Brain is the interface that all bot strategies must implement. It is only
// asked while seat is the mover and the game is running, and must return an
// action the rules accept.
type Brain interface {
	CalculateMove(svc *app.Service, state *domain.GameState, seat int) (app.Action, error)
}
