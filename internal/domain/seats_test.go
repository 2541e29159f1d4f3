package domain

import (
	"testing"
)

func TestPlayerLeftThreeSeats(t *testing.T) {
	r := DefaultRules()
	s := newTestState([]CardID{knightSS}, nil, nil)

	next := r.PlayerLeft(s, 1, ReasonLeave)
	if !containsInt(next.Left, 1) || next.Phase != PhaseChoosingAction {
		t.Fatalf("left=%v phase=%s", next.Left, next.Phase)
	}
	if next.Mover != 0 {
		t.Fatalf("mover changed to %d", next.Mover)
	}
	next = r.Play(next, knightSS, nil)
	next = r.Pass(next)
	if next.Mover != 2 {
		t.Fatalf("pass landed on %d, want 2", next.Mover)
	}
}

func TestPlayerLeftTwoSeats(t *testing.T) {
	for _, reason := range []LeaveReason{ReasonLeave, ReasonDisconnect} {
		for seat := 0; seat < 2; seat++ {
			r := DefaultRules()
			s := newTestState(nil, nil)
			next := r.PlayerLeft(s, seat, reason)
			if next.Phase != PhaseGameOver {
				t.Fatalf("%s seat %d: phase = %s", reason, seat, next.Phase)
			}
			if want := s.Players[1-seat].ID; next.Winner != want {
				t.Fatalf("%s seat %d: winner = %q, want %q", reason, seat, next.Winner, want)
			}
		}
	}
}

func TestMoverDisconnectAdvancesTurn(t *testing.T) {
	r := DefaultRules()
	s := newTestState(nil, nil, nil)
	s.Turn.HasDrawn = true
	s.Declaration = &Declaration{Seat: 0, Card: knightSS}

	next := r.PlayerLeft(s, 0, ReasonDisconnect)
	if next.Mover != 1 || next.Turn != (Turn{}) || next.Declaration != nil {
		t.Fatalf("mover=%d turn=%+v declaration=%+v", next.Mover, next.Turn, next.Declaration)
	}
	if LowestActiveSeat(next) != 1 || !IsAuthoritative(next, 1) || IsAuthoritative(next, 0) {
		t.Fatalf("host did not migrate to seat 1")
	}

	back := r.PlayerReconnected(next, 0)
	if containsInt(back.Disconnected, 0) || !IsAuthoritative(back, 0) {
		t.Fatalf("reconnect not applied: %v", back.Disconnected)
	}
}

func TestLastActiveSeatWins(t *testing.T) {
	r := DefaultRules()
	s := newTestState(nil, nil, nil)
	s = r.PlayerLeft(s, 1, ReasonLeave)
	s = r.PlayerLeft(s, 2, ReasonDisconnect)
	if s.Phase != PhaseGameOver || s.Winner != "p0" {
		t.Fatalf("phase=%s winner=%q", s.Phase, s.Winner)
	}
}

func TestReconnectAfterLeaveIgnored(t *testing.T) {
	r := DefaultRules()
	s := r.PlayerLeft(newTestState(nil, nil, nil, nil), 2, ReasonLeave)
	if next := r.PlayerReconnected(s, 2); next != s {
		t.Fatalf("seat that left was allowed back")
	}
}

func TestExpireDisconnect(t *testing.T) {
	r := DefaultRules()
	s := r.PlayerLeft(newTestState(nil, nil, nil, nil), 3, ReasonDisconnect)
	if next := r.ExpireDisconnect(s, 3); next != s {
		t.Fatalf("expiry ended a game with three active seats")
	}

	s = newTestState(nil, nil, nil)
	s.Disconnected = []int{1, 2}
	next := r.ExpireDisconnect(s, 2)
	if next.Phase != PhaseGameOver || next.Winner != "p0" {
		t.Fatalf("phase=%s winner=%q", next.Phase, next.Winner)
	}
	if again := r.ExpireDisconnect(newTestState(nil, nil, nil), 1); again.Phase == PhaseGameOver {
		t.Fatalf("expiry for a connected seat ended the game")
	}
}

func TestIsAuthoritativeWithoutState(t *testing.T) {
	if !IsAuthoritative(nil, 0) || IsAuthoritative(nil, 1) {
		t.Fatalf("seat 0 hosts before the first snapshot")
	}
}

func TestHostAfterDeparture(t *testing.T) {
	s := newTestState(nil, nil, nil)
	tests := []struct {
		name         string
		disconnected []int
		seat         int
		want         int
	}{
		{name: "host departs", seat: 0, want: 1},
		{name: "guest departs", seat: 2, want: 0},
		{name: "host already gone", disconnected: []int{0}, seat: 1, want: 2},
		{name: "nobody left", disconnected: []int{1, 2}, seat: 0, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := s.clone()
			st.Disconnected = tt.disconnected
			if got := HostAfterDeparture(st, tt.seat); got != tt.want {
				t.Fatalf("HostAfterDeparture() = %d, want %d", got, tt.want)
			}
		})
	}
}
