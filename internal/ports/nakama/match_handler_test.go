package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"herowiz/internal/app"
	"herowiz/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type broadcast struct {
	opCode     int64
	data       []byte
	recipients []string
	sender     string
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcasts   []broadcast
	kicked       []string
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	b := broadcast{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		b.recipients = append(b.recipients, p.GetUserId())
	}
	if sender != nil {
		b.sender = sender.GetUserId()
	}
	md.broadcasts = append(md.broadcasts, b)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	for _, p := range presences {
		md.kicked = append(md.kicked, p.GetUserId())
	}
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) reset() {
	md.broadcasts = nil
	md.kicked = nil
}

// testPresence implements runtime.Presence.
type testPresence struct {
	userID string
}

func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return false }
func (p testPresence) GetUsername() string               { return p.userID }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node" }

// testData implements runtime.MatchData.
type testData struct {
	testPresence
	opCode int64
	data   []byte
}

func (d testData) GetOpCode() int64      { return d.opCode }
func (d testData) GetData() []byte       { return d.data }
func (d testData) GetReliable() bool     { return true }
func (d testData) GetReceiveTime() int64 { return 0 }

func trackData(t *testing.T, userID string, seat int) runtime.MatchData {
	t.Helper()
	body, err := json.Marshal(protocol.Presence{Seat: seat})
	if err != nil {
		t.Fatalf("marshal presence: %v", err)
	}
	return testData{testPresence: testPresence{userID}, opCode: protocol.OpTrack, data: body}
}

func gameData(t *testing.T, userID string, m protocol.Message) runtime.MatchData {
	t.Helper()
	op, body, err := protocol.DecodeFrame(mustEncode(t, m))
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return testData{testPresence: testPresence{userID}, opCode: op, data: body}
}

func mustEncode(t *testing.T, m protocol.Message) []byte {
	t.Helper()
	b, err := protocol.Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

// joinAndTrack connects each user and has user i track seat i.
func joinAndTrack(t *testing.T, mh *matchHandler, state *MatchState, d *mockDispatcher, users ...string) {
	t.Helper()
	ctx := context.Background()
	var presences []runtime.Presence
	for _, u := range users {
		presences = append(presences, testPresence{u})
	}
	mh.MatchJoin(ctx, noopLogger{}, nil, nil, d, 1, state, presences)
	var msgs []runtime.MatchData
	for i, u := range users {
		msgs = append(msgs, trackData(t, u, i))
	}
	if mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 2, state, msgs) == nil {
		t.Fatalf("match terminated while joining")
	}
}

func TestMatchLabel_Marshal(t *testing.T) {
	state := newMatchState(4, 10)
	state.Presences["alice"] = testPresence{"alice"}

	label, err := matchLabel(state)
	if err != nil {
		t.Fatalf("matchLabel error: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(label), &got); err != nil {
		t.Fatalf("label is not json: %v", err)
	}
	if got["game"] != GameLabel || got["open"] != true || got["players"] != float64(1) || got["max_players"] != float64(4) {
		t.Fatalf("unexpected label %s", label)
	}

	for _, u := range []string{"bob", "carol", "dave"} {
		state.Presences[u] = testPresence{u}
	}
	label, _ = matchLabel(state)
	if err := json.Unmarshal([]byte(label), &got); err != nil {
		t.Fatalf("label is not json: %v", err)
	}
	if got["open"] != false {
		t.Fatalf("full match still open: %s", label)
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newMatchState(2, 10)
	joinAndTrack(t, mh, state, d, "alice", "bob")
	ctx := context.Background()

	tests := []struct {
		name   string
		leave  []string
		userID string
		want   bool
	}{
		{name: "FullRejectsStranger", userID: "carol", want: false},
		{name: "SeatHolderReturns", leave: []string{"bob"}, userID: "bob", want: true},
		{name: "OpenSeatAcceptsStranger", leave: []string{"alice"}, userID: "carol", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var leaving []runtime.Presence
			for _, u := range tt.leave {
				leaving = append(leaving, testPresence{u})
			}
			if len(leaving) > 0 {
				mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 3, state, leaving)
			}
			_, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 3, state, testPresence{tt.userID}, nil)
			if ok != tt.want {
				t.Fatalf("join attempt = %v (%q), want %v", ok, reason, tt.want)
			}
		})
	}
}

func TestTrackWelcomesAndAnnounces(t *testing.T) {
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newMatchState(4, 10)
	joinAndTrack(t, mh, state, d, "alice")

	if len(d.broadcasts) != 1 || d.broadcasts[0].opCode != protocol.OpWelcome {
		t.Fatalf("expected a single welcome, got %+v", d.broadcasts)
	}
	var w protocol.Welcome
	if err := json.Unmarshal(d.broadcasts[0].data, &w); err != nil || w.ParticipantID != "alice" {
		t.Fatalf("bad welcome %s: %v", d.broadcasts[0].data, err)
	}

	d.reset()
	joinAndTrack(t, mh, state, d, "bob")
	// bob tracks seat 0 in joinAndTrack, which alice holds.
	if len(d.kicked) != 1 || d.kicked[0] != "bob" {
		t.Fatalf("expected bob kicked for taking seat 0, got %v", d.kicked)
	}

	d.reset()
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 3, state, []runtime.MatchData{trackData(t, "bob", 2)})
	var ops []int64
	for _, b := range d.broadcasts {
		ops = append(ops, b.opCode)
	}
	want := []int64{protocol.OpWelcome, protocol.OpPresenceJoin, protocol.OpPresenceJoin}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	if got := d.broadcasts[1].recipients; len(got) != 1 || got[0] != "alice" {
		t.Fatalf("join announced to %v, want alice", got)
	}
	var replayed protocol.Presence
	if err := json.Unmarshal(d.broadcasts[2].data, &replayed); err != nil {
		t.Fatalf("bad replay: %v", err)
	}
	if replayed != (protocol.Presence{Seat: 0, ParticipantID: "alice"}) || d.broadcasts[2].recipients[0] != "bob" {
		t.Fatalf("unexpected replay %+v to %v", replayed, d.broadcasts[2].recipients)
	}
	if state.Seats[2] != "bob" || state.Tracked["bob"] != 2 {
		t.Fatalf("seat not claimed: %+v", state)
	}
}

func TestGameFramesForwardToOthers(t *testing.T) {
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newMatchState(4, 10)
	joinAndTrack(t, mh, state, d, "alice", "bob", "carol")
	d.reset()

	ctx := context.Background()
	msgs := []runtime.MatchData{
		gameData(t, "bob", protocol.ActionFrom(app.Draw(), 1)),
		gameData(t, "bob", protocol.ActionFrom(app.PassTurn(), 0)),
		gameData(t, "alice", protocol.RequestState("alice", 0)),
	}
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 3, state, msgs)

	if len(d.broadcasts) != 2 {
		t.Fatalf("expected 2 forwarded frames, got %d", len(d.broadcasts))
	}
	tests := []struct {
		op     int64
		sender string
	}{
		{protocol.OpAction, "bob"},
		{protocol.OpRequestState, "alice"},
	}
	for i, tt := range tests {
		b := d.broadcasts[i]
		if b.opCode != tt.op || b.sender != tt.sender {
			t.Fatalf("frame %d = op %d from %s, want op %d from %s", i, b.opCode, b.sender, tt.op, tt.sender)
		}
		if len(b.recipients) != 2 {
			t.Fatalf("frame %d sent to %v", i, b.recipients)
		}
		for _, r := range b.recipients {
			if r == tt.sender {
				t.Fatalf("frame %d echoed to its sender", i)
			}
		}
	}
}

func TestLeaveAnnouncesAndKeepsSeat(t *testing.T) {
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newMatchState(4, 10)
	joinAndTrack(t, mh, state, d, "alice", "bob")
	d.reset()

	mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, 3, state, []runtime.Presence{testPresence{"bob"}})
	if len(d.broadcasts) != 1 || d.broadcasts[0].opCode != protocol.OpPresenceLeave {
		t.Fatalf("expected one presence leave, got %+v", d.broadcasts)
	}
	var p protocol.Presence
	if err := json.Unmarshal(d.broadcasts[0].data, &p); err != nil || p.Seat != 1 || p.ParticipantID != "bob" {
		t.Fatalf("bad leave %s: %v", d.broadcasts[0].data, err)
	}
	if state.Seats[1] != "bob" {
		t.Fatalf("seat claim dropped on leave")
	}
	if _, ok := state.Tracked["bob"]; ok {
		t.Fatalf("bob still tracked")
	}
}

func TestIdleMatchTerminates(t *testing.T) {
	mh := newMatchHandler()
	d := &mockDispatcher{}
	state := newMatchState(4, 3)
	ctx := context.Background()

	var got interface{} = state
	for tick := int64(1); tick <= 2; tick++ {
		got = mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, got, nil)
		if got == nil {
			t.Fatalf("terminated early at tick %d", tick)
		}
	}
	if mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 3, got, nil) != nil {
		t.Fatalf("idle match kept running")
	}
}
