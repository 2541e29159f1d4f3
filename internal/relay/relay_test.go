package relay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/domain"
	"herowiz/internal/logging"
	"herowiz/internal/ports/wsclient"
	"herowiz/internal/protocol"
	"herowiz/internal/relay"
	"herowiz/internal/session"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
	matchID = "match-1"
)

type fixture struct {
	srv     *httptest.Server
	hub     *relay.Hub
	tickets *app.TicketService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tickets := app.NewTicketService("test-secret", "herowiz-relay", time.Hour)
	hub := relay.NewHub(relay.Config{Rate: 1000, Burst: 1000}, tickets, logging.Nop())
	srv := httptest.NewServer(relay.NewServer(hub))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, hub: hub, tickets: tickets}
}

func (f *fixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

// inbox records what a transport delivers.
type inbox struct {
	mu       sync.Mutex
	messages []protocol.Message
	events   []protocol.PresenceEvent
}

func (in *inbox) messageList() []protocol.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]protocol.Message(nil), in.messages...)
}

func (in *inbox) eventList() []protocol.PresenceEvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]protocol.PresenceEvent(nil), in.events...)
}

func (f *fixture) dial(t *testing.T, participantID string) (*wsclient.Client, *inbox) {
	t.Helper()
	c, err := wsclient.Dial(context.Background(), wsclient.Config{
		BaseURL:        f.wsURL(),
		MatchID:        matchID,
		ParticipantID:  participantID,
		ReconnectDelay: 20 * time.Millisecond,
	}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	in := &inbox{}
	c.OnMessage(func(m protocol.Message) {
		in.mu.Lock()
		in.messages = append(in.messages, m)
		in.mu.Unlock()
	})
	c.OnPresence(func(ev protocol.PresenceEvent) {
		in.mu.Lock()
		in.events = append(in.events, ev)
		in.mu.Unlock()
	})
	return c, in
}

func TestHTTPRoutes(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(f.srv.URL+"/v1/matches/", "application/json", nil)
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created["matchId"])

	resp, err = http.Get(f.srv.URL + "/v1/matches/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	id, err := wsclient.CreateMatch(context.Background(), f.wsURL())
	require.NoError(t, err)
	assert.NotEqual(t, created["matchId"], id)
}

func TestRelayForwardsAndReportsPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, ina := f.dial(t, "alice")
	b, inb := f.dial(t, "bob")

	require.NoError(t, a.Track(ctx, protocol.Presence{Seat: 0, ParticipantID: "alice"}))
	require.Eventually(t, func() bool { return a.Ticket() != "" }, waitFor, tick)
	require.NoError(t, b.Track(ctx, protocol.Presence{Seat: 1, ParticipantID: "bob"}))

	require.Eventually(t, func() bool { return len(ina.eventList()) == 1 && len(inb.eventList()) == 1 }, waitFor, tick)
	assert.Equal(t, protocol.Presence{Seat: 1, ParticipantID: "bob"}, ina.eventList()[0].Presence)
	assert.Equal(t, protocol.Presence{Seat: 0, ParticipantID: "alice"}, inb.eventList()[0].Presence)

	require.NoError(t, a.Send(ctx, protocol.RequestState("alice", 0)))
	require.Eventually(t, func() bool { return len(inb.messageList()) == 1 }, waitFor, tick)
	assert.Equal(t, protocol.KindRequestState, inb.messageList()[0].Kind)
	assert.Empty(t, ina.messageList(), "sender does not receive its own frame")

	info, ok := f.hub.Room(matchID)
	require.True(t, ok)
	assert.Equal(t, 2, info.Connected)
	assert.Equal(t, "alice", info.ClaimedSeats[0])

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool {
		evs := ina.eventList()
		return len(evs) == 2 && evs[1].Type == protocol.PresenceLeave && evs[1].Presence.Seat == 1
	}, waitFor, tick)
}

func TestRelayDropsActionsForOtherSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, ina := f.dial(t, "alice")
	b, _ := f.dial(t, "bob")
	require.NoError(t, a.Track(ctx, protocol.Presence{Seat: 0, ParticipantID: "alice"}))
	require.NoError(t, b.Track(ctx, protocol.Presence{Seat: 1, ParticipantID: "bob"}))
	require.Eventually(t, func() bool { return len(ina.eventList()) == 1 }, waitFor, tick)

	require.NoError(t, b.Send(ctx, protocol.ActionFrom(app.Draw(), 0)))
	require.NoError(t, b.Send(ctx, protocol.ActionFrom(app.PassTurn(), 1)))

	require.Eventually(t, func() bool { return len(ina.messageList()) >= 1 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	msgs := ina.messageList()
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, msgs[0].FromSeat)
	assert.Equal(t, app.ActionPassTurn, msgs[0].Action.Type)
}

func TestSeatClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.dial(t, "alice")
	require.NoError(t, a.Track(ctx, protocol.Presence{Seat: 0, ParticipantID: "alice"}))
	require.Eventually(t, func() bool { return a.Ticket() != "" }, waitFor, tick)

	// Same participant id without a ticket is refused outright.
	u := f.wsURL() + "/v1/matches/" + matchID + "/ws?participant=alice"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Another participant cannot take seat 0.
	raw, _, err := websocket.DefaultDialer.Dial(f.wsURL()+"/v1/matches/"+matchID+"/ws?participant=mallory", nil)
	require.NoError(t, err)
	defer raw.Close()
	frame, err := protocol.EncodeJSON(protocol.OpTrack, protocol.Presence{Seat: 0, ParticipantID: "mallory"})
	require.NoError(t, err)
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, frame))
	_ = raw.SetReadDeadline(time.Now().Add(waitFor))
	_, _, err = raw.ReadMessage()
	require.Error(t, err, "relay closes a connection that steals a seat")

	info, ok := f.hub.Room(matchID)
	require.True(t, ok)
	assert.Equal(t, "alice", info.ClaimedSeats[0])
}

func rawDial(t *testing.T, f *fixture, query url.Values) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL()+"/v1/matches/"+matchID+"/ws?"+query.Encode(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func rawTrack(t *testing.T, conn *websocket.Conn, seat int) protocol.Welcome {
	t.Helper()
	frame, err := protocol.EncodeJSON(protocol.OpTrack, protocol.Presence{Seat: seat})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

	_ = conn.SetReadDeadline(time.Now().Add(waitFor))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	op, body, err := protocol.DecodeFrame(data)
	require.NoError(t, err)
	require.Equal(t, protocol.OpWelcome, op)
	var w protocol.Welcome
	require.NoError(t, json.Unmarshal(body, &w))
	return w
}

func TestTicketReconnectKeepsSeatSilently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, inb := f.dial(t, "bob")
	require.NoError(t, b.Track(ctx, protocol.Presence{Seat: 1, ParticipantID: "bob"}))
	require.Eventually(t, func() bool { return b.Ticket() != "" }, waitFor, tick)

	first := rawDial(t, f, url.Values{"participant": {"alice"}})
	w := rawTrack(t, first, 0)
	assert.Equal(t, "alice", w.ParticipantID)
	require.NotEmpty(t, w.Ticket)

	claims, err := f.tickets.Verify(w.Ticket, matchID)
	require.NoError(t, err)
	assert.Equal(t, 0, claims.Seat)

	second := rawDial(t, f, url.Values{"ticket": {w.Ticket}})
	w2 := rawTrack(t, second, 0)
	assert.Equal(t, "alice", w2.ParticipantID)

	// The replaced connection is closed by the relay.
	_ = first.SetReadDeadline(time.Now().Add(waitFor))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	require.Eventually(t, func() bool { return len(inb.eventList()) == 2 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	for _, ev := range inb.eventList() {
		assert.Equal(t, protocol.PresenceJoin, ev.Type, "replacing a connection announces no leave")
		assert.Equal(t, 0, ev.Presence.Seat)
	}
}

func TestSessionsOverRelay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := func(seat int, pid string) *session.Session {
		c, err := wsclient.Dial(ctx, wsclient.Config{BaseURL: f.wsURL(), MatchID: matchID, ParticipantID: pid}, logging.Nop())
		require.NoError(t, err)
		s := session.New(session.Config{
			MatchID:           matchID,
			ParticipantID:     pid,
			Seat:              seat,
			NoticeDisplay:     time.Hour,
			RequestStateDelay: 50 * time.Millisecond,
		}, app.NewService(nil, nil), c, logging.Nop())
		require.NoError(t, s.Start(ctx))
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	host := start(0, "alice")
	guest := start(1, "bob")

	require.NoError(t, host.StartGame([]domain.Seat{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}}))
	require.Eventually(t, func() bool { return guest.Snapshot().Seq == 1 }, waitFor, tick)

	host.Dispatch(app.Draw())
	host.Dispatch(app.PassTurn())
	require.Eventually(t, func() bool { return guest.Snapshot().MyTurn() }, waitFor, tick)

	guest.Dispatch(app.Dismiss(app.ActionDismissDrew))
	require.Eventually(t, func() bool { return host.Snapshot().State.DrawNotice == nil }, waitFor, tick)

	require.NoError(t, host.Close())
	require.Eventually(t, func() bool {
		st := guest.Snapshot().State
		return st.Over() && st.Winner == "bob"
	}, waitFor, tick)
}
