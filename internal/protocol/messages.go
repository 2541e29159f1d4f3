package protocol

import (
	"herowiz/internal/app"
	"herowiz/internal/domain"
)

// Kind names a game message on the match channel.
type Kind string

const (
	KindGameStart    Kind = "game_start"
	KindGameState    Kind = "game_state"
	KindAction       Kind = "action"
	KindPlayerLeft   Kind = "player_left"
	KindRequestState Kind = "request_state"
)

// Op codes for game messages and the relay's presence frames.
const (
	OpGameStart    int64 = 1
	OpGameState    int64 = 2
	OpAction       int64 = 3
	OpPlayerLeft   int64 = 4
	OpRequestState int64 = 5

	// Relay -> client presence notifications.
	OpPresenceJoin  int64 = 100
	OpPresenceLeave int64 = 101
	// Client -> relay presence registration.
	OpTrack int64 = 102
	// Relay -> client connection greeting.
	OpWelcome int64 = 103
)

var kindOps = map[Kind]int64{
	KindGameStart:    OpGameStart,
	KindGameState:    OpGameState,
	KindAction:       OpAction,
	KindPlayerLeft:   OpPlayerLeft,
	KindRequestState: OpRequestState,
}

// OpCode returns the op code for a message kind.
func OpCode(k Kind) (int64, bool) {
	op, ok := kindOps[k]
	return op, ok
}

// IsGameOp reports whether op carries a Message.
func IsGameOp(op int64) bool {
	return op >= OpGameStart && op <= OpRequestState
}

// Message is one game message. Which fields are set depends on Kind.
type Message struct {
	Kind          Kind               `json:"kind"`
	State         *domain.GameState  `json:"state,omitempty"`
	SeatOrder     []string           `json:"seatOrder,omitempty"`
	Seq           uint64             `json:"seq,omitempty"`
	Action        *app.Action        `json:"action,omitempty"`
	FromSeat      int                `json:"fromSeatIndex"`
	SeatIndex     int                `json:"seatIndex"`
	ParticipantID string             `json:"participantId,omitempty"`
	Reason        domain.LeaveReason `json:"reason,omitempty"`
}

// GameStart is sent once by the host when play begins.
func GameStart(state *domain.GameState, seatOrder []string, seq uint64) Message {
	return Message{Kind: KindGameStart, State: state, SeatOrder: seatOrder, Seq: seq}
}

// GameState carries the authoritative snapshot after every accepted change.
func GameState(state *domain.GameState, seatOrder []string, seq uint64) Message {
	return Message{Kind: KindGameState, State: state, SeatOrder: seatOrder, Seq: seq}
}

// ActionFrom forwards an action to the host.
func ActionFrom(a app.Action, fromSeat int) Message {
	return Message{Kind: KindAction, Action: &a, FromSeat: fromSeat}
}

// PlayerLeft announces a departure.
func PlayerLeft(seat int, participantID string, reason domain.LeaveReason) Message {
	return Message{Kind: KindPlayerLeft, SeatIndex: seat, ParticipantID: participantID, Reason: reason}
}

// RequestState asks the host to resend the snapshot.
func RequestState(participantID string, seat int) Message {
	return Message{Kind: KindRequestState, ParticipantID: participantID, FromSeat: seat}
}

// Presence is what each client tracks on the match channel.
type Presence struct {
	Seat          int    `json:"seatIndex"`
	ParticipantID string `json:"participantId"`
}

// PresenceType is join or leave.
type PresenceType string

const (
	PresenceJoin  PresenceType = "join"
	PresenceLeave PresenceType = "leave"
)

// PresenceEvent reports a participant appearing on or vanishing from the channel.
type PresenceEvent struct {
	Type     PresenceType
	Presence Presence
}

// Welcome greets a relay connection with its participant id and a ticket
// to present when reconnecting.
type Welcome struct {
	ParticipantID string `json:"participantId"`
	Ticket        string `json:"ticket,omitempty"`
}
