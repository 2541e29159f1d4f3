// Package memory is an in-process ports.Transport. Every endpoint has its own
// ordered delivery queue, so delivery is asynchronous like a real channel.
// Messages pass through the wire codec so receivers never share state
// pointers with the sender.
package memory

import (
	"context"
	"errors"
	"sync"

	"herowiz/internal/ports"
	"herowiz/internal/protocol"
)

var ErrClosed = errors.New("endpoint closed")

// Filter decides whether a frame from one participant reaches another.
type Filter func(from, to string, op int64) bool

// Bus is one match channel.
type Bus struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint
	filter    Filter
}

func NewBus() *Bus {
	return &Bus{endpoints: map[string]*Endpoint{}}
}

// SetFilter installs f; nil delivers everything.
func (b *Bus) SetFilter(f Filter) {
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
}

// Join attaches a participant. Joining with an id that is already attached
// replaces the old endpoint without announcing a leave, the way a reconnect
// keeps its participant id.
func (b *Bus) Join(participantID string) *Endpoint {
	e := &Endpoint{
		bus:  b,
		id:   participantID,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	old := b.endpoints[participantID]
	b.endpoints[participantID] = e
	b.mu.Unlock()
	if old != nil {
		old.shutdown()
	}
	go e.deliver()
	return e
}

func (b *Bus) allowed(from, to string, op int64) bool {
	b.mu.Lock()
	f := b.filter
	b.mu.Unlock()
	return f == nil || f(from, to, op)
}

// peers returns every other attached endpoint.
func (b *Bus) peers(self *Endpoint) []*Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Endpoint, 0, len(b.endpoints))
	for _, e := range b.endpoints {
		if e != self {
			out = append(out, e)
		}
	}
	return out
}

// Endpoint is one participant's attachment to the bus.
type Endpoint struct {
	bus *Bus
	id  string

	mu         sync.Mutex
	onMessage  func(protocol.Message)
	onPresence func(protocol.PresenceEvent)
	presence   *protocol.Presence
	queue      []func()
	closed     bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

var _ ports.Transport = (*Endpoint)(nil)

// ParticipantID returns the id the endpoint joined with.
func (e *Endpoint) ParticipantID() string { return e.id }

func (e *Endpoint) OnMessage(handler func(protocol.Message)) {
	e.mu.Lock()
	e.onMessage = handler
	e.mu.Unlock()
}

func (e *Endpoint) OnPresence(handler func(protocol.PresenceEvent)) {
	e.mu.Lock()
	e.onPresence = handler
	e.mu.Unlock()
}

func (e *Endpoint) Send(ctx context.Context, msg protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.isClosed() {
		return ErrClosed
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	op, _ := protocol.OpCode(msg.Kind)
	for _, peer := range e.bus.peers(e) {
		peer := peer // per-iteration copy (go 1.21 loop semantics)
		if !e.bus.allowed(e.id, peer.id, op) {
			continue
		}
		m, err := protocol.Decode(frame)
		if err != nil {
			return err
		}
		peer.enqueue(func() {
			if h := peer.messageHandler(); h != nil {
				h(m)
			}
		})
	}
	return nil
}

// Track announces p to the other tracked endpoints and replays their
// presences to this one.
func (e *Endpoint) Track(ctx context.Context, p protocol.Presence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.presence = &p
	e.mu.Unlock()

	// Only tracked endpoints take part in presence.
	for _, peer := range e.bus.peers(e) {
		theirs := peer.tracked()
		if theirs == nil {
			continue
		}
		peer.presenceEvent(protocol.PresenceEvent{Type: protocol.PresenceJoin, Presence: p})
		e.presenceEvent(protocol.PresenceEvent{Type: protocol.PresenceJoin, Presence: *theirs})
	}
	return nil
}

// Close detaches the endpoint and announces a presence leave.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	p := e.presence
	e.mu.Unlock()

	e.bus.mu.Lock()
	if e.bus.endpoints[e.id] == e {
		delete(e.bus.endpoints, e.id)
	}
	e.bus.mu.Unlock()

	if p != nil && !e.isClosed() {
		for _, peer := range e.bus.peers(e) {
			peer.presenceEvent(protocol.PresenceEvent{Type: protocol.PresenceLeave, Presence: *p})
		}
	}
	e.shutdown()
	return nil
}

func (e *Endpoint) shutdown() {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.queue = nil
		e.mu.Unlock()
		close(e.done)
	})
}

func (e *Endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Endpoint) tracked() *protocol.Presence {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.presence == nil {
		return nil
	}
	p := *e.presence
	return &p
}

func (e *Endpoint) messageHandler() func(protocol.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.onMessage
}

func (e *Endpoint) presenceEvent(ev protocol.PresenceEvent) {
	e.enqueue(func() {
		e.mu.Lock()
		h := e.onPresence
		e.mu.Unlock()
		if h != nil {
			h(ev)
		}
	})
}

func (e *Endpoint) enqueue(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Endpoint) deliver() {
	for {
		select {
		case <-e.done:
			return
		case <-e.wake:
		}
		for {
			e.mu.Lock()
			if len(e.queue) == 0 || e.closed {
				e.mu.Unlock()
				break
			}
			fn := e.queue[0]
			e.queue = e.queue[1:]
			e.mu.Unlock()
			fn()
		}
	}
}
