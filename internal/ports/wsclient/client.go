// Package wsclient is a ports.Transport that talks to the WebSocket relay.
// A dropped connection is redialed with the presence ticket from the last
// welcome and the seat is tracked again.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"herowiz/internal/ports"
	"herowiz/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	ErrNotConnected = errors.New("relay connection is down")
	ErrClosed       = errors.New("client closed")
)

const writeWait = 10 * time.Second

type Config struct {
	// BaseURL is the relay root, e.g. ws://localhost:8080.
	BaseURL        string
	MatchID        string
	ParticipantID  string
	ReconnectDelay time.Duration
}

type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger runtime.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	ticket     string
	presence   *protocol.Presence
	onMessage  func(protocol.Message)
	onPresence func(protocol.PresenceEvent)

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

var _ ports.Transport = (*Client)(nil)

// Dial connects to the relay and starts reading.
func Dial(ctx context.Context, cfg Config, logger runtime.Logger) (*Client, error) {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	c := &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: logger.WithFields(map[string]interface{}{
			"match_id":       cfg.MatchID,
			"participant_id": cfg.ParticipantID,
		}),
		done: make(chan struct{}),
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	go c.run(conn)
	return c, nil
}

// Ticket returns the latest presence ticket, empty before the first welcome.
func (c *Client) Ticket() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticket
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}
	u = u.JoinPath("v1", "matches", c.cfg.MatchID, "ws")
	c.mu.Lock()
	participantID, ticket := c.cfg.ParticipantID, c.ticket
	c.mu.Unlock()
	q := url.Values{}
	if participantID != "" {
		q.Set("participant", participantID)
	}
	if ticket != "" {
		q.Set("ticket", ticket)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	conn, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial relay: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	return conn, nil
}

func (c *Client) OnMessage(handler func(protocol.Message)) {
	c.mu.Lock()
	c.onMessage = handler
	c.mu.Unlock()
}

func (c *Client) OnPresence(handler func(protocol.PresenceEvent)) {
	c.mu.Lock()
	c.onPresence = handler
	c.mu.Unlock()
}

func (c *Client) Send(ctx context.Context, msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.write(ctx, frame)
}

func (c *Client) Track(ctx context.Context, p protocol.Presence) error {
	c.mu.Lock()
	c.presence = &p
	c.mu.Unlock()
	frame, err := protocol.EncodeJSON(protocol.OpTrack, p)
	if err != nil {
		return err
	}
	return c.write(ctx, frame)
}

// Close ends the connection; the relay announces a presence leave.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn == nil {
			return
		}
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = conn.Close()
	})
	return err
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) write(ctx context.Context, frame []byte) error {
	if c.closed() {
		return ErrClosed
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// run reads until the connection fails, then redials until closed.
func (c *Client) run(conn *websocket.Conn) {
	for {
		c.read(conn)
		if c.closed() {
			return
		}
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		c.logger.Warn("Relay connection lost, reconnecting")

		conn = c.redial()
		if conn == nil {
			return
		}
	}
}

func (c *Client) redial() *websocket.Conn {
	for {
		select {
		case <-c.done:
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("Reconnect failed: %v", err)
			continue
		}
		c.mu.Lock()
		if c.closed() {
			c.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		c.conn = conn
		p := c.presence
		c.mu.Unlock()

		if p != nil {
			if err := c.Track(context.Background(), *p); err != nil {
				c.logger.Warn("Re-track failed: %v", err)
			}
		}
		c.logger.Info("Reconnected to relay")
		return conn
	}
}

func (c *Client) read(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.closed() {
				c.logger.Debug("Read failed: %v", err)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	op, body, err := protocol.DecodeFrame(data)
	if err != nil {
		c.logger.Warn("Dropping malformed frame: %v", err)
		return
	}
	switch op {
	case protocol.OpWelcome:
		var w protocol.Welcome
		if err := json.Unmarshal(body, &w); err != nil {
			c.logger.Warn("Dropping malformed welcome: %v", err)
			return
		}
		c.mu.Lock()
		c.ticket = w.Ticket
		if c.cfg.ParticipantID == "" {
			c.cfg.ParticipantID = w.ParticipantID
		}
		c.mu.Unlock()
	case protocol.OpPresenceJoin, protocol.OpPresenceLeave:
		var p protocol.Presence
		if err := json.Unmarshal(body, &p); err != nil {
			c.logger.Warn("Dropping malformed presence: %v", err)
			return
		}
		typ := protocol.PresenceJoin
		if op == protocol.OpPresenceLeave {
			typ = protocol.PresenceLeave
		}
		c.mu.Lock()
		h := c.onPresence
		c.mu.Unlock()
		if h != nil {
			h(protocol.PresenceEvent{Type: typ, Presence: p})
		}
	default:
		m, err := protocol.DecodeBody(op, body)
		if err != nil {
			c.logger.Warn("Dropping frame: %v", err)
			return
		}
		c.mu.Lock()
		h := c.onMessage
		c.mu.Unlock()
		if h != nil {
			h(m)
		}
	}
}
