package redisbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/logging"
	"herowiz/internal/protocol"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type recorder struct {
	mu       sync.Mutex
	messages []protocol.Message
	events   []protocol.PresenceEvent
}

func (r *recorder) attach(tr *Transport) {
	tr.OnMessage(func(m protocol.Message) {
		r.mu.Lock()
		r.messages = append(r.messages, m)
		r.mu.Unlock()
	})
	tr.OnPresence(func(ev protocol.PresenceEvent) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
}

func (r *recorder) messageList() []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Message(nil), r.messages...)
}

func (r *recorder) eventList() []protocol.PresenceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.PresenceEvent(nil), r.events...)
}

func newTransport(t *testing.T, client *redis.Client, participantID string, heartbeat time.Duration) (*Transport, *recorder) {
	t.Helper()
	tr, err := New(context.Background(), client, Config{
		MatchID:       "match-1",
		ParticipantID: participantID,
		Heartbeat:     heartbeat,
	}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	rec := &recorder{}
	rec.attach(tr)
	return tr, rec
}

func TestSendAndPresence(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	a, ra := newTransport(t, client, "alice", time.Hour)
	b, rb := newTransport(t, client, "bob", time.Hour)

	require.NoError(t, a.Track(ctx, protocol.Presence{Seat: 0, ParticipantID: "alice"}))
	require.NoError(t, b.Track(ctx, protocol.Presence{Seat: 1, ParticipantID: "bob"}))

	require.Eventually(t, func() bool { return len(ra.eventList()) == 1 && len(rb.eventList()) == 1 }, waitFor, tick)
	assert.Equal(t, protocol.PresenceEvent{Type: protocol.PresenceJoin, Presence: protocol.Presence{Seat: 1, ParticipantID: "bob"}}, ra.eventList()[0])
	assert.Equal(t, protocol.PresenceEvent{Type: protocol.PresenceJoin, Presence: protocol.Presence{Seat: 0, ParticipantID: "alice"}}, rb.eventList()[0])

	require.NoError(t, a.Send(ctx, protocol.ActionFrom(app.Draw(), 0)))
	require.Eventually(t, func() bool { return len(rb.messageList()) == 1 }, waitFor, tick)
	assert.Equal(t, app.ActionDraw, rb.messageList()[0].Action.Type)
	assert.Empty(t, ra.messageList())
}

func TestCloseAnnouncesLeave(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	a, ra := newTransport(t, client, "alice", time.Hour)
	b, _ := newTransport(t, client, "bob", time.Hour)

	require.NoError(t, a.Track(ctx, protocol.Presence{Seat: 0, ParticipantID: "alice"}))
	require.NoError(t, b.Track(ctx, protocol.Presence{Seat: 1, ParticipantID: "bob"}))
	require.Eventually(t, func() bool { return len(ra.eventList()) == 1 }, waitFor, tick)
	assert.True(t, mr.Exists(presenceKey("match-1", "bob")))

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool {
		evs := ra.eventList()
		return len(evs) == 2 && evs[1].Type == protocol.PresenceLeave && evs[1].Presence.Seat == 1
	}, waitFor, tick)
	assert.False(t, mr.Exists(presenceKey("match-1", "bob")))
	assert.ErrorIs(t, b.Send(ctx, protocol.RequestState("bob", 1)), ErrClosed)
}

func TestLapsedHeartbeatIsReportedAsLeave(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	a, ra := newTransport(t, client, "alice", 20*time.Millisecond)
	b, _ := newTransport(t, client, "bob", 20*time.Millisecond)

	require.NoError(t, a.Track(ctx, protocol.Presence{Seat: 0, ParticipantID: "alice"}))
	require.NoError(t, b.Track(ctx, protocol.Presence{Seat: 1, ParticipantID: "bob"}))
	require.Eventually(t, func() bool { return len(ra.eventList()) == 1 }, waitFor, tick)

	// Heartbeats keep bob present for several timeouts.
	time.Sleep(150 * time.Millisecond)
	require.Len(t, ra.eventList(), 1)

	// Simulate a crash: stop without publishing a leave.
	b.closeOnce.Do(func() {
		close(b.done)
		_ = b.pubsub.Close()
		b.wg.Wait()
	})

	require.Eventually(t, func() bool {
		evs := ra.eventList()
		return len(evs) == 2 && evs[1].Type == protocol.PresenceLeave
	}, waitFor, tick)
}

func TestMalformedPayloadsAreDropped(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	_, ra := newTransport(t, client, "alice", time.Hour)
	b, _ := newTransport(t, client, "bob", time.Hour)

	require.NoError(t, client.Publish(ctx, channelName("match-1"), "not json").Err())
	require.NoError(t, client.Publish(ctx, channelName("match-1"), `{"from":"mallory","frame":"AAA="}`).Err())
	require.NoError(t, b.Send(ctx, protocol.RequestState("bob", 1)))

	require.Eventually(t, func() bool { return len(ra.messageList()) == 1 }, waitFor, tick)
	assert.Equal(t, protocol.KindRequestState, ra.messageList()[0].Kind)
}
