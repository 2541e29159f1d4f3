package relay

import (
	"sync"
	"time"

	"herowiz/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/time/rate"
)

// client is one WebSocket connection. presence and replaced are guarded by
// the hub's mutex.
type client struct {
	hub           *Hub
	matchID       string
	participantID string
	// ticketSeat is the seat vouched for by the connect ticket, or -1.
	ticketSeat int

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	logger  runtime.Logger

	presence *protocol.Presence
	replaced bool
}

// enqueue hands a frame to the writer. A client that cannot keep up is
// disconnected rather than allowed to stall the room.
func (c *client) enqueue(frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("Send queue full, closing connection")
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) readLoop() {
	defer func() {
		c.hub.detach(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Read failed: %v", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.logger.Warn("Rate limit exceeded, dropping frame")
			continue
		}
		c.hub.handleFrame(c, data)
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.logger.Debug("Write failed: %v", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}
