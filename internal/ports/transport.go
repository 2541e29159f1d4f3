package ports

import (
	"context"

	"herowiz/internal/protocol"
)

// Transport is the per-match broadcast channel. Send delivers to every
// other participant; a participant never receives its own messages.
type Transport interface {
	// Send broadcasts a game message.
	Send(ctx context.Context, msg protocol.Message) error

	// Track announces this participant's seat so peers see a presence join.
	Track(ctx context.Context, p protocol.Presence) error

	// OnMessage registers the game message handler. Call before Track.
	OnMessage(handler func(protocol.Message))

	// OnPresence registers the presence handler. Call before Track.
	OnPresence(handler func(protocol.PresenceEvent))

	// Close leaves the channel. Peers observe a presence leave.
	Close() error
}
