// Package session keeps one participant's copy of a match in step with the
// host over a ports.Transport.
//
// Every transport callback, timer fire and local call is funneled into a
// single loop goroutine that owns the state, so the host applies exactly one
// action at a time against its latest snapshot.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/domain"
	"herowiz/internal/ports"
	"herowiz/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	DefaultNoticeDisplay     = 3 * time.Second
	DefaultDisconnectGrace   = 30 * time.Second
	DefaultRequestStateDelay = 800 * time.Millisecond

	inboxSize = 64
)

var (
	ErrNotHost        = errors.New("only the host can start the game")
	ErrAlreadyStarted = errors.New("game already started")
	ErrClosed         = errors.New("session closed")
)

// Config identifies the local participant and tunes the host timers.
type Config struct {
	MatchID       string
	ParticipantID string
	Seat          int
	Name          string

	NoticeDisplay     time.Duration
	DisconnectGrace   time.Duration
	RequestStateDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.NoticeDisplay <= 0 {
		c.NoticeDisplay = DefaultNoticeDisplay
	}
	if c.DisconnectGrace <= 0 {
		c.DisconnectGrace = DefaultDisconnectGrace
	}
	if c.RequestStateDelay <= 0 {
		c.RequestStateDelay = DefaultRequestStateDelay
	}
}

// View is what a UI or bot consumes. Legal is only populated while it is
// this participant's turn.
type View struct {
	State     *domain.GameState
	SeatOrder []string
	Seq       uint64
	MySeat    int
	IsHost    bool
	Legal     domain.LegalActions
}

// MyTurn reports whether the local seat is the mover of a running game.
func (v View) MyTurn() bool {
	return v.State != nil && !v.State.Over() && v.State.Mover == v.MySeat
}

// Session is one participant's view of a match.
type Session struct {
	cfg       Config
	svc       *app.Service
	transport ports.Transport
	logger    runtime.Logger

	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	view atomic.Pointer[View]

	// Owned by the loop goroutine.
	state     *domain.GameState
	seatOrder []string
	seq       uint64
	isHost    bool
	tasks     *taskTable
	timer     *time.Timer
	subs      map[int]func(View)
	nextSub   int
}

// New builds a session. Start must be called before anything is delivered.
func New(cfg Config, svc *app.Service, transport ports.Transport, logger runtime.Logger) *Session {
	cfg.applyDefaults()
	s := &Session{
		cfg:       cfg,
		svc:       svc,
		transport: transport,
		logger: logger.WithFields(map[string]interface{}{
			"match_id":       cfg.MatchID,
			"participant_id": cfg.ParticipantID,
			"seat":           cfg.Seat,
		}),
		inbox: make(chan func(), inboxSize),
		done:  make(chan struct{}),
		tasks: newTaskTable(),
		timer: time.NewTimer(time.Hour),
		subs:  map[int]func(View){},
	}
	s.timer.Stop()
	s.isHost = domain.IsAuthoritative(nil, cfg.Seat)
	s.publish()
	return s
}

// Start runs the loop, tracks this seat's presence and, if no snapshot has
// arrived after RequestStateDelay, asks the host for one.
func (s *Session) Start(ctx context.Context) error {
	s.transport.OnMessage(func(m protocol.Message) {
		s.post(func() { s.handleMessage(m) })
	})
	s.transport.OnPresence(func(ev protocol.PresenceEvent) {
		s.post(func() { s.handlePresence(ev) })
	})

	s.wg.Add(1)
	go s.run()

	if err := s.transport.Track(ctx, protocol.Presence{Seat: s.cfg.Seat, ParticipantID: s.cfg.ParticipantID}); err != nil {
		return err
	}

	time.AfterFunc(s.cfg.RequestStateDelay, func() {
		s.post(func() {
			if s.state == nil {
				s.requestState()
			}
		})
	})
	s.logger.Info("Session started")
	return nil
}

// Dispatch submits a local action. The host applies it directly; everyone
// else forwards it and waits for the next snapshot.
func (s *Session) Dispatch(a app.Action) {
	s.post(func() { s.dispatch(a) })
}

// StartGame deals a game for seats and broadcasts game_start. Only the host
// may call it, and only once.
func (s *Session) StartGame(seats []domain.Seat) error {
	errc := make(chan error, 1)
	if !s.post(func() { errc <- s.startGame(seats) }) {
		return ErrClosed
	}
	select {
	case err := <-errc:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// RequestState asks the current host to resend its snapshot.
func (s *Session) RequestState() {
	s.post(s.requestState)
}

// Subscribe registers fn for every view change and returns a function that
// removes it. fn runs on the session loop: it must not block and must not
// call StartGame.
func (s *Session) Subscribe(fn func(View)) func() {
	idc := make(chan int, 1)
	if !s.post(func() {
		id := s.nextSub
		s.nextSub++
		s.subs[id] = fn
		idc <- id
	}) {
		return func() {}
	}
	var id int
	select {
	case id = <-idc:
	case <-s.done:
		return func() {}
	}
	return func() {
		s.post(func() { delete(s.subs, id) })
	}
}

// Snapshot returns the latest view without waiting on the loop.
func (s *Session) Snapshot() View {
	return *s.view.Load()
}

// Leave announces a permanent departure and closes the session.
func (s *Session) Leave(ctx context.Context) error {
	msg := protocol.PlayerLeft(s.cfg.Seat, s.cfg.ParticipantID, domain.ReasonLeave)
	sendErr := s.transport.Send(ctx, msg)
	if sendErr != nil {
		s.logger.Warn("Failed to announce leave: %v", sendErr)
	}
	return errors.Join(sendErr, s.Close())
}

// Close stops the loop and the transport. Peers see a presence leave.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.timer.Stop()
		err = s.transport.Close()
		s.logger.Info("Session closed")
	})
	return err
}

func (s *Session) post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.inbox:
			fn()
		case <-s.timer.C:
			s.fireDue()
		}
	}
}

func (s *Session) send(m protocol.Message) {
	if err := s.transport.Send(context.Background(), m); err != nil {
		s.logger.Warn("Failed to send %s: %v", m.Kind, err)
	}
}

func (s *Session) dispatch(a app.Action) {
	if s.state == nil {
		s.logger.Debug("Dropping %s before the game started", a.Type)
		return
	}
	if s.isHost {
		s.accept(a, s.cfg.Seat)
		return
	}
	s.send(protocol.ActionFrom(a, s.cfg.Seat))
}

func (s *Session) startGame(seats []domain.Seat) error {
	if !s.isHost {
		return ErrNotHost
	}
	if s.state != nil {
		return ErrAlreadyStarted
	}
	state, err := s.svc.StartGame(seats)
	if err != nil {
		return err
	}
	order := make([]string, len(seats))
	for i, seat := range seats {
		order[i] = seat.ID
	}
	s.seatOrder = order
	s.logger.Info("Game started with %d seats", len(seats))
	s.commit(state, protocol.KindGameStart)
	return nil
}

// accept runs an action through the anti-spoof gate on the host.
func (s *Session) accept(a app.Action, fromSeat int) {
	next, err := s.svc.Accept(s.state, a, fromSeat)
	if err != nil {
		s.logger.Debug("Dropped %s from seat %d: %v", a.Type, fromSeat, err)
		return
	}
	s.commit(next, protocol.KindGameState)
}

// commit installs a host-produced state and broadcasts it.
func (s *Session) commit(next *domain.GameState, kind protocol.Kind) {
	s.state = next
	s.seq++
	if kind == protocol.KindGameStart {
		s.send(protocol.GameStart(next, s.seatOrder, s.seq))
	} else {
		s.send(protocol.GameState(next, s.seatOrder, s.seq))
	}
	s.refresh()
}

func (s *Session) rebroadcast() {
	if s.state == nil {
		return
	}
	s.send(protocol.GameState(s.state, s.seatOrder, s.seq))
}

func (s *Session) requestState() {
	s.send(protocol.RequestState(s.cfg.ParticipantID, s.cfg.Seat))
}

func (s *Session) handleMessage(m protocol.Message) {
	switch m.Kind {
	case protocol.KindGameStart, protocol.KindGameState:
		s.applySnapshot(m)
	case protocol.KindAction:
		if !s.isHost || m.Action == nil {
			return
		}
		s.accept(*m.Action, m.FromSeat)
	case protocol.KindRequestState:
		if s.isHost {
			s.rebroadcast()
		}
	case protocol.KindPlayerLeft:
		s.departure(m.SeatIndex, m.Reason)
	}
}

// applySnapshot replaces local state wholesale. Snapshots not newer than the
// one held are ignored so a former host's late broadcast cannot roll back.
func (s *Session) applySnapshot(m protocol.Message) {
	if m.State == nil {
		return
	}
	if s.state != nil && m.Seq <= s.seq {
		s.logger.Debug("Ignoring stale snapshot seq %d (have %d)", m.Seq, s.seq)
		return
	}
	s.state = m.State
	s.seq = m.Seq
	if len(m.SeatOrder) > 0 {
		s.seatOrder = m.SeatOrder
	}
	s.refresh()
}

// departure applies a leave or disconnect. Only the seat that hosts once the
// departing seat is excluded processes it, which covers the host leaving.
func (s *Session) departure(seat int, reason domain.LeaveReason) {
	if s.state == nil || domain.HostAfterDeparture(s.state, seat) != s.cfg.Seat {
		return
	}
	if reason == "" {
		reason = domain.ReasonDisconnect
	}
	next := s.svc.Rules().PlayerLeft(s.state, seat, reason)
	if next == s.state {
		return
	}
	s.logger.Info("Seat %d departed (%s)", seat, reason)
	s.commit(next, protocol.KindGameState)
}

func (s *Session) handlePresence(ev protocol.PresenceEvent) {
	switch ev.Type {
	case protocol.PresenceLeave:
		s.departure(ev.Presence.Seat, domain.ReasonDisconnect)
	case protocol.PresenceJoin:
		if !s.isHost || s.state == nil {
			return
		}
		next := s.svc.Rules().PlayerReconnected(s.state, ev.Presence.Seat)
		if next != s.state {
			s.logger.Info("Seat %d reconnected", ev.Presence.Seat)
			s.commit(next, protocol.KindGameState)
			return
		}
		s.rebroadcast()
	}
}

// refresh recomputes host status, reconciles timers and notifies subscribers.
func (s *Session) refresh() {
	wasHost := s.isHost
	s.isHost = domain.IsAuthoritative(s.state, s.cfg.Seat)
	if s.isHost != wasHost {
		s.logger.Info("Host status changed: %v", s.isHost)
	}
	if s.isHost {
		w := desiredTasks(s.state, s.svc.Rules(), s.cfg.NoticeDisplay, s.cfg.DisconnectGrace)
		s.tasks.reconcile(w, time.Now())
	} else {
		s.tasks.clear()
	}
	s.armTimer()
	s.publish()
	s.notify()
}

func (s *Session) armTimer() {
	s.timer.Stop()
	at, ok := s.tasks.next()
	if !ok {
		return
	}
	s.timer.Reset(max(time.Until(at), 0))
}

// fireDue applies every due task as one host transition.
func (s *Session) fireDue() {
	if !s.isHost || s.state == nil {
		s.tasks.clear()
		return
	}
	next := s.state
	for _, t := range s.tasks.due(time.Now()) {
		next = t.apply(next)
	}
	if next != s.state {
		s.commit(next, protocol.KindGameState)
		return
	}
	s.armTimer()
}

func (s *Session) publish() {
	v := View{
		State:     s.state,
		SeatOrder: s.seatOrder,
		Seq:       s.seq,
		MySeat:    s.cfg.Seat,
		IsHost:    s.isHost,
	}
	if v.MyTurn() {
		v.Legal = s.svc.Rules().LegalActions(s.state)
	}
	s.view.Store(&v)
}

func (s *Session) notify() {
	v := s.Snapshot()
	for _, fn := range s.subs {
		fn(v)
	}
}
