// Package redisbus is a ports.Transport over Redis pub/sub. Each match is
// one channel. Presence comes from periodic track heartbeats: a participant
// whose heartbeat stops for longer than the presence timeout is reported as
// having left.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"herowiz/internal/ports"
	"herowiz/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultHeartbeat = 2 * time.Second
	keyPrefix        = "herowiz:match:"
)

var ErrClosed = errors.New("transport closed")

type Config struct {
	MatchID       string
	ParticipantID string
	// Heartbeat is how often the tracked presence is republished.
	Heartbeat time.Duration
	// PresenceTimeout defaults to three heartbeats.
	PresenceTimeout time.Duration
}

// envelope is what goes over the Redis channel.
type envelope struct {
	From  string `json:"from"`
	Frame []byte `json:"frame"`
}

type peer struct {
	presence protocol.Presence
	lastSeen time.Time
}

type Transport struct {
	cfg    Config
	client *redis.Client
	pubsub *redis.PubSub
	logger runtime.Logger

	mu         sync.Mutex
	onMessage  func(protocol.Message)
	onPresence func(protocol.PresenceEvent)
	presence   *protocol.Presence
	peers      map[string]*peer

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ ports.Transport = (*Transport)(nil)

func channelName(matchID string) string {
	return keyPrefix + matchID
}

func presenceKey(matchID, participantID string) string {
	return keyPrefix + matchID + ":presence:" + participantID
}

// New subscribes to the match channel. The subscription is confirmed before
// New returns so nothing published afterwards is missed.
func New(ctx context.Context, client *redis.Client, cfg Config, logger runtime.Logger) (*Transport, error) {
	if cfg.MatchID == "" || cfg.ParticipantID == "" {
		return nil, fmt.Errorf("match and participant are required")
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.PresenceTimeout <= 0 {
		cfg.PresenceTimeout = 3 * cfg.Heartbeat
	}

	pubsub := client.Subscribe(ctx, channelName(cfg.MatchID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	t := &Transport{
		cfg:    cfg,
		client: client,
		pubsub: pubsub,
		logger: logger.WithFields(map[string]interface{}{
			"match_id":       cfg.MatchID,
			"participant_id": cfg.ParticipantID,
		}),
		peers: map[string]*peer{},
		done:  make(chan struct{}),
	}
	t.wg.Add(2)
	go t.receive()
	go t.heartbeat()
	return t, nil
}

func (t *Transport) OnMessage(handler func(protocol.Message)) {
	t.mu.Lock()
	t.onMessage = handler
	t.mu.Unlock()
}

func (t *Transport) OnPresence(handler func(protocol.PresenceEvent)) {
	t.mu.Lock()
	t.onPresence = handler
	t.mu.Unlock()
}

func (t *Transport) Send(ctx context.Context, msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return t.publish(ctx, frame)
}

// Track publishes this participant's presence and reports the presences
// already stored for the match.
func (t *Transport) Track(ctx context.Context, p protocol.Presence) error {
	t.mu.Lock()
	t.presence = &p
	t.mu.Unlock()
	if err := t.announce(ctx); err != nil {
		return err
	}
	return t.loadExisting(ctx)
}

// Close publishes a leave and unsubscribes.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		p := t.presence
		t.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if p != nil {
			frame, encErr := protocol.EncodeJSON(protocol.OpPresenceLeave, *p)
			if encErr == nil {
				err = t.publish(ctx, frame)
			}
			if delErr := t.client.Del(ctx, presenceKey(t.cfg.MatchID, t.cfg.ParticipantID)).Err(); delErr != nil {
				err = errors.Join(err, fmt.Errorf("redis del failed: %w", delErr))
			}
		}
		close(t.done)
		err = errors.Join(err, t.pubsub.Close())
		t.wg.Wait()
	})
	return err
}

func (t *Transport) closed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Transport) publish(ctx context.Context, frame []byte) error {
	if t.closed() {
		return ErrClosed
	}
	payload, err := json.Marshal(envelope{From: t.cfg.ParticipantID, Frame: frame})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := t.client.Publish(ctx, channelName(t.cfg.MatchID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// announce refreshes the presence key and publishes a track frame.
func (t *Transport) announce(ctx context.Context) error {
	t.mu.Lock()
	p := t.presence
	t.mu.Unlock()
	if p == nil {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	key := presenceKey(t.cfg.MatchID, t.cfg.ParticipantID)
	if err := t.client.Set(ctx, key, body, t.cfg.PresenceTimeout).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return t.publish(ctx, protocol.EncodeFrame(protocol.OpTrack, body))
}

// loadExisting reports presences stored before this participant subscribed.
func (t *Transport) loadExisting(ctx context.Context) error {
	pattern := presenceKey(t.cfg.MatchID, "*")
	iter := t.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		val, err := t.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis get failed: %w", err)
		}
		var p protocol.Presence
		if err := json.Unmarshal(val, &p); err != nil {
			t.logger.Warn("Skipping malformed presence key %s: %v", iter.Val(), err)
			continue
		}
		if p.ParticipantID == t.cfg.ParticipantID {
			continue
		}
		t.seen(p)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return nil
}

func (t *Transport) heartbeat() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Heartbeat)
			if err := t.announce(ctx); err != nil && !t.closed() {
				t.logger.Warn("Heartbeat failed: %v", err)
			}
			cancel()
			t.reap(time.Now())
		}
	}
}

// reap reports peers whose heartbeat has lapsed.
func (t *Transport) reap(now time.Time) {
	t.mu.Lock()
	var gone []protocol.Presence
	for id, p := range t.peers {
		if now.Sub(p.lastSeen) > t.cfg.PresenceTimeout {
			gone = append(gone, p.presence)
			delete(t.peers, id)
		}
	}
	h := t.onPresence
	t.mu.Unlock()
	for _, p := range gone {
		t.logger.Info("Presence timed out for seat %d", p.Seat)
		if h != nil {
			h(protocol.PresenceEvent{Type: protocol.PresenceLeave, Presence: p})
		}
	}
}

// seen records a heartbeat and reports first sightings as joins.
func (t *Transport) seen(p protocol.Presence) {
	t.mu.Lock()
	existing, ok := t.peers[p.ParticipantID]
	if ok && existing.presence == p {
		existing.lastSeen = time.Now()
		t.mu.Unlock()
		return
	}
	t.peers[p.ParticipantID] = &peer{presence: p, lastSeen: time.Now()}
	h := t.onPresence
	t.mu.Unlock()
	if h != nil {
		h(protocol.PresenceEvent{Type: protocol.PresenceJoin, Presence: p})
	}
}

func (t *Transport) left(p protocol.Presence) {
	t.mu.Lock()
	_, ok := t.peers[p.ParticipantID]
	delete(t.peers, p.ParticipantID)
	h := t.onPresence
	t.mu.Unlock()
	if ok && h != nil {
		h(protocol.PresenceEvent{Type: protocol.PresenceLeave, Presence: p})
	}
}

func (t *Transport) receive() {
	defer t.wg.Done()
	ch := t.pubsub.Channel()
	for {
		select {
		case <-t.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handle([]byte(msg.Payload))
		}
	}
}

func (t *Transport) handle(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.logger.Warn("Dropping malformed envelope: %v", err)
		return
	}
	if env.From == t.cfg.ParticipantID {
		return
	}
	op, body, err := protocol.DecodeFrame(env.Frame)
	if err != nil {
		t.logger.Warn("Dropping malformed frame: %v", err)
		return
	}
	switch op {
	case protocol.OpTrack, protocol.OpPresenceLeave:
		var p protocol.Presence
		if err := json.Unmarshal(body, &p); err != nil {
			t.logger.Warn("Dropping malformed presence: %v", err)
			return
		}
		p.ParticipantID = env.From
		if op == protocol.OpTrack {
			t.seen(p)
		} else {
			t.left(p)
		}
	default:
		m, err := protocol.DecodeBody(op, body)
		if err != nil {
			t.logger.Warn("Dropping frame: %v", err)
			return
		}
		t.mu.Lock()
		h := t.onMessage
		t.mu.Unlock()
		if h != nil {
			h(m)
		}
	}
}
