package domain

// LeaveReason distinguishes a permanent leave from a recoverable disconnect.
type LeaveReason string

const (
	ReasonLeave      LeaveReason = "leave"
	ReasonDisconnect LeaveReason = "disconnect"
)

func isActive(s *GameState, seat int) bool {
	return !containsInt(s.Left, seat) && !containsInt(s.Disconnected, seat)
}

// ActiveSeats lists seats that have neither left nor disconnected, ascending.
func ActiveSeats(s *GameState) []int {
	var out []int
	for i := range s.Players {
		if isActive(s, i) {
			out = append(out, i)
		}
	}
	return out
}

// LowestActiveSeat returns the host seat for s, or -1 when every seat is gone.
func LowestActiveSeat(s *GameState) int {
	for i := range s.Players {
		if isActive(s, i) {
			return i
		}
	}
	return -1
}

// IsAuthoritative reports whether mySeat hosts the game described by s.
// Before any state exists seat 0 hosts.
func IsAuthoritative(s *GameState, mySeat int) bool {
	if s == nil {
		return mySeat == 0
	}
	return LowestActiveSeat(s) == mySeat
}

// PlayerLeft records a departure. In a two-seat game any departure hands
// the win to the other seat.
func (r *Rules) PlayerLeft(s *GameState, seat int, reason LeaveReason) *GameState {
	if s.Over() || seat < 0 || seat >= len(s.Players) {
		return s
	}
	if containsInt(s.Left, seat) {
		return s
	}
	if reason == ReasonDisconnect && containsInt(s.Disconnected, seat) {
		return s
	}

	next := s.clone()
	if len(next.Players) <= 2 {
		next.Phase = PhaseGameOver
		if other := 1 - seat; other >= 0 && other < len(next.Players) {
			next.Winner = next.Players[other].ID
		}
		return next
	}

	switch reason {
	case ReasonLeave:
		next.Disconnected = withoutInt(next.Disconnected, seat)
		next.Left = append(next.Left, seat)
	default:
		next.Disconnected = append(next.Disconnected, seat)
	}
	if next.Declaration != nil && next.Declaration.Seat == seat {
		next.Declaration = nil
	}

	if next.Mover == seat {
		advanceTurn(next)
		return next
	}
	if active := ActiveSeats(next); len(active) <= 1 {
		endWithSoleSurvivor(next, active)
	}
	return next
}

// PlayerReconnected clears a disconnect record. Seats that left stay gone.
func (r *Rules) PlayerReconnected(s *GameState, seat int) *GameState {
	if s.Over() || !containsInt(s.Disconnected, seat) {
		return s
	}
	next := s.clone()
	next.Disconnected = withoutInt(next.Disconnected, seat)
	return next
}

// ExpireDisconnect runs when a disconnect outlives its grace period. It only
// ends the game when a single active seat remains.
func (r *Rules) ExpireDisconnect(s *GameState, seat int) *GameState {
	if s.Over() || !containsInt(s.Disconnected, seat) {
		return s
	}
	active := ActiveSeats(s)
	if len(active) > 1 {
		return s
	}
	next := s.clone()
	endWithSoleSurvivor(next, active)
	return next
}

// HostAfterDeparture returns the seat that must process seat's departure:
// the lowest active seat other than seat itself, or -1.
func HostAfterDeparture(s *GameState, seat int) int {
	for i := range s.Players {
		if i != seat && isActive(s, i) {
			return i
		}
	}
	return -1
}
