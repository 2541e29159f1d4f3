package protocol

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"herowiz/internal/app"
	"herowiz/internal/domain"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeDecodeMessages(t *testing.T) {
	rules := domain.DefaultRules()
	state, err := rules.NewGame(rand.New(rand.NewSource(9)), []domain.Seat{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	tests := []struct {
		name string
		msg  Message
		op   int64
	}{
		{name: "game start", msg: GameStart(state, []string{"a", "b"}, 1), op: OpGameStart},
		{name: "game state", msg: GameState(rules.Draw(state), []string{"a", "b"}, 2), op: OpGameState},
		{name: "action", msg: ActionFrom(app.PlayCard(52, domain.CardTarget(1, 0)), 1), op: OpAction},
		{name: "player left", msg: PlayerLeft(1, "b", domain.ReasonDisconnect), op: OpPlayerLeft},
		{name: "request state", msg: RequestState("b", 1), op: OpRequestState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			op, _, err := DecodeFrame(b)
			if err != nil || op != tt.op {
				t.Fatalf("op = %d err = %v, want %d", op, err, tt.op)
			}
			got, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, tt.msg)
			}
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{name: "empty", frame: nil, want: ErrMalformedFrame},
		{name: "truncated", frame: []byte{0x08}, want: ErrMalformedFrame},
		{name: "presence op", frame: EncodeFrame(OpPresenceJoin, []byte(`{}`)), want: ErrUnknownKind},
		{name: "kind mismatch", frame: EncodeFrame(OpAction, []byte(`{"kind":"game_state"}`)), want: ErrMalformedFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.frame); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Encode(Message{Kind: "bogus"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Encode bogus kind err = %v", err)
	}
}

func TestDecodeFrameSkipsUnknownFields(t *testing.T) {
	b := protowire.AppendTag(nil, 9, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = append(b, EncodeFrame(OpRequestState, []byte(`{"kind":"request_state","participantId":"p","fromSeatIndex":2,"seatIndex":0}`))...)

	m, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Kind != KindRequestState || m.ParticipantID != "p" || m.FromSeat != 2 {
		t.Fatalf("message = %+v", m)
	}
}
