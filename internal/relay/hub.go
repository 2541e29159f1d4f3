// Package relay is the WebSocket server half of the match broadcast channel.
// It forwards game frames between the participants of a match and reports
// their presence. It never looks inside game state; the host participant is
// authoritative.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/protocol"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/time/rate"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameBytes = 256 * 1024
	sendQueueSize = 64
)

// Config tunes per-connection flood control.
type Config struct {
	Rate  rate.Limit
	Burst int
}

// Hub owns every room.
type Hub struct {
	cfg      Config
	tickets  *app.TicketService
	logger   runtime.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room
}

// room is one match. seats survive disconnects so a ticket holder can
// reclaim its seat.
type room struct {
	clients map[string]*client
	seats   map[int]string
}

// RoomInfo is the public view of a room.
type RoomInfo struct {
	MatchID      string              `json:"matchId"`
	Connected    int                 `json:"connected"`
	Presences    []protocol.Presence `json:"presences"`
	ClaimedSeats map[int]string      `json:"claimedSeats"`
}

func NewHub(cfg Config, tickets *app.TicketService, logger runtime.Logger) *Hub {
	if cfg.Rate <= 0 {
		cfg.Rate = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}
	return &Hub{
		cfg:     cfg,
		tickets: tickets,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*room),
	}
}

// ServeWS upgrades a connection into matchID. The optional participant query
// parameter names the caller; a ticket from an earlier welcome proves it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		http.Error(w, "match id required", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	participantID := q.Get("participant")
	ticketSeat := -1
	if tok := q.Get("ticket"); tok != "" {
		claims, err := h.tickets.Verify(tok, matchID)
		if err != nil || (participantID != "" && claims.ParticipantID != participantID) {
			h.logger.Warn("Rejected ticket for match %s: %v", matchID, err)
			http.Error(w, "invalid ticket", http.StatusUnauthorized)
			return
		}
		participantID = claims.ParticipantID
		ticketSeat = claims.Seat
	}
	if participantID == "" {
		participantID = uuid.NewString()
	}
	if ticketSeat < 0 && h.connected(matchID, participantID) {
		http.Error(w, "participant already connected", http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{
		hub:           h,
		matchID:       matchID,
		participantID: participantID,
		ticketSeat:    ticketSeat,
		conn:          conn,
		send:          make(chan []byte, sendQueueSize),
		done:          make(chan struct{}),
		limiter:       rate.NewLimiter(h.cfg.Rate, h.cfg.Burst),
		logger: h.logger.WithFields(map[string]interface{}{
			"match_id":       matchID,
			"participant_id": participantID,
		}),
	}
	h.attach(c)
	go c.writeLoop()
	c.readLoop()
}

func (h *Hub) connected(matchID, participantID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm := h.rooms[matchID]
	return rm != nil && rm.clients[participantID] != nil
}

// Room reports a room's occupancy.
func (h *Hub) Room(matchID string) (RoomInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[matchID]
	if !ok {
		return RoomInfo{}, false
	}
	info := RoomInfo{MatchID: matchID, Connected: len(rm.clients), ClaimedSeats: map[int]string{}}
	for _, c := range rm.clients {
		if c.presence != nil {
			info.Presences = append(info.Presences, *c.presence)
		}
	}
	for seat, pid := range rm.seats {
		info.ClaimedSeats[seat] = pid
	}
	return info, true
}

// attach registers c. A connection for an already attached participant
// replaces the old one, which then closes without announcing a leave.
func (h *Hub) attach(c *client) {
	h.mu.Lock()
	rm, ok := h.rooms[c.matchID]
	if !ok {
		rm = &room{clients: map[string]*client{}, seats: map[int]string{}}
		h.rooms[c.matchID] = rm
	}
	old := rm.clients[c.participantID]
	if old != nil {
		old.replaced = true
	}
	rm.clients[c.participantID] = c
	h.mu.Unlock()

	if old != nil {
		c.logger.Info("Connection replaced")
		old.close()
	}
	c.logger.Debug("Connection attached")
}

// detach removes c and tells the room it left.
func (h *Hub) detach(c *client) {
	h.mu.Lock()
	rm := h.rooms[c.matchID]
	if rm == nil {
		h.mu.Unlock()
		return
	}
	if rm.clients[c.participantID] == c {
		delete(rm.clients, c.participantID)
	}
	var peers []*client
	var leave *protocol.Presence
	if c.presence != nil && !c.replaced {
		leave = c.presence
		peers = rm.others(c)
	}
	if len(rm.clients) == 0 {
		delete(h.rooms, c.matchID)
	}
	h.mu.Unlock()

	if leave == nil {
		return
	}
	frame, err := protocol.EncodeJSON(protocol.OpPresenceLeave, *leave)
	if err != nil {
		c.logger.Error("Failed to encode presence leave: %v", err)
		return
	}
	for _, p := range peers {
		p.enqueue(frame)
	}
	c.logger.Info("Presence left seat %d", leave.Seat)
}

func (rm *room) others(c *client) []*client {
	out := make([]*client, 0, len(rm.clients))
	for _, o := range rm.clients {
		if o != c {
			out = append(out, o)
		}
	}
	return out
}

// handleFrame routes one inbound frame.
func (h *Hub) handleFrame(c *client, data []byte) {
	op, body, err := protocol.DecodeFrame(data)
	if err != nil {
		c.logger.Warn("Dropping malformed frame: %v", err)
		return
	}
	switch {
	case op == protocol.OpTrack:
		var p protocol.Presence
		if err := json.Unmarshal(body, &p); err != nil {
			c.logger.Warn("Dropping malformed track: %v", err)
			return
		}
		h.track(c, p.Seat)
	case protocol.IsGameOp(op):
		if op == protocol.OpAction && !h.actionFromOwnSeat(c, op, body) {
			return
		}
		h.broadcast(c, data)
	default:
		c.logger.Warn("Dropping frame with op %d", op)
	}
}

// actionFromOwnSeat drops actions whose fromSeatIndex is not the sender's
// tracked seat.
func (h *Hub) actionFromOwnSeat(c *client, op int64, body []byte) bool {
	m, err := protocol.DecodeBody(op, body)
	if err != nil {
		c.logger.Warn("Dropping malformed action: %v", err)
		return false
	}
	h.mu.Lock()
	p := c.presence
	h.mu.Unlock()
	if p == nil || p.Seat != m.FromSeat {
		c.logger.Warn("Dropping action claiming seat %d", m.FromSeat)
		return false
	}
	return true
}

// track claims seat for c. A seat held by another participant is refused,
// and the holder itself needs a ticket for that seat on a new connection.
func (h *Hub) track(c *client, seat int) {
	h.mu.Lock()
	rm := h.rooms[c.matchID]
	if rm == nil || rm.clients[c.participantID] != c {
		h.mu.Unlock()
		return
	}
	holder, held := rm.seats[seat]
	sameConn := c.presence != nil && c.presence.Seat == seat
	switch {
	case held && holder != c.participantID:
		h.mu.Unlock()
		c.logger.Warn("Seat %d already held by %s", seat, holder)
		c.close()
		return
	case held && !sameConn && c.ticketSeat != seat:
		h.mu.Unlock()
		c.logger.Warn("Seat %d reclaimed without a ticket", seat)
		c.close()
		return
	}
	if c.presence != nil && c.presence.Seat != seat && rm.seats[c.presence.Seat] == c.participantID {
		delete(rm.seats, c.presence.Seat)
	}
	rm.seats[seat] = c.participantID
	p := protocol.Presence{Seat: seat, ParticipantID: c.participantID}
	c.presence = &p
	var existing []protocol.Presence
	peers := rm.others(c)
	tracked := peers[:0:0]
	for _, o := range peers {
		if o.presence != nil {
			existing = append(existing, *o.presence)
			tracked = append(tracked, o)
		}
	}
	h.mu.Unlock()

	ticket, err := h.tickets.Issue(c.matchID, c.participantID, seat)
	if err != nil {
		c.logger.Error("Failed to issue ticket: %v", err)
	}
	welcome, err := protocol.EncodeJSON(protocol.OpWelcome, protocol.Welcome{ParticipantID: c.participantID, Ticket: ticket})
	if err != nil {
		c.logger.Error("Failed to encode welcome: %v", err)
		return
	}
	c.enqueue(welcome)

	join, err := protocol.EncodeJSON(protocol.OpPresenceJoin, p)
	if err != nil {
		c.logger.Error("Failed to encode presence join: %v", err)
		return
	}
	for _, o := range tracked {
		o.enqueue(join)
	}
	for _, e := range existing {
		frame, err := protocol.EncodeJSON(protocol.OpPresenceJoin, e)
		if err != nil {
			continue
		}
		c.enqueue(frame)
	}
	c.logger.Info("Tracked seat %d", seat)
}

// broadcast relays a game frame to everyone in the room except the sender.
func (h *Hub) broadcast(c *client, frame []byte) {
	h.mu.Lock()
	rm := h.rooms[c.matchID]
	var peers []*client
	if rm != nil {
		peers = rm.others(c)
	}
	h.mu.Unlock()
	for _, p := range peers {
		p.enqueue(frame)
	}
}
