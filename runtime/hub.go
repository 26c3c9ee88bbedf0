// Package runtime hosts the broadcast hub and the supervised workers that
// move events from the broker to connected clients. It carries no business
// rules; the services own those.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ConnectionState is the per-connection lifecycle. Disconnected is
// terminal: a reconnecting client comes back as a brand new connection and
// re-fetches history itself.
type ConnectionState int

const (
	Connecting ConnectionState = iota
	Joined
	Disconnected
)

type connection struct {
	state ConnectionState
	sink  contract.EventSink
}

// Hub maintains the set of live connections of the single chat room and
// fans incoming events out to every Joined one. There is no self-filtering:
// whether "this is my own message" matters is a presentation concern.
type Hub struct {
	mu          sync.RWMutex
	log         *slog.Logger
	connections map[domain.ConnectionID]*connection
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:         log,
		connections: make(map[domain.ConnectionID]*connection),
	}
}

// OnConnect registers a transport connection in the Connecting state. It
// receives nothing until it joins the room.
func (h *Hub) OnConnect(sink contract.EventSink) domain.ConnectionID {
	id := domain.ConnectionID(uuid.NewString())
	h.mu.Lock()
	h.connections[id] = &connection{state: Connecting, sink: sink}
	h.mu.Unlock()
	h.log.Debug("Connection registered", "connection_id", id)
	return id
}

// OnJoinRoom moves the connection into the room. Joining an unknown or
// already disconnected connection fails: Disconnected is terminal.
func (h *Hub) OnJoinRoom(id domain.ConnectionID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.connections[id]
	if !ok {
		return errors.ErrUnknownConnection
	}
	conn.state = Joined
	h.log.Debug("Connection joined the room", "connection_id", id)
	return nil
}

// OnDisconnect removes the connection. No further events are delivered to
// it, even for a message sent immediately after.
func (h *Hub) OnDisconnect(id domain.ConnectionID) {
	h.mu.Lock()
	delete(h.connections, id)
	remaining := len(h.connections)
	h.mu.Unlock()
	h.log.Debug("Connection removed", "connection_id", id, "remaining", remaining)
}

// Broadcast pushes the event to every Joined connection, in registration
// map order, synchronously: sinks are buffered channel writers, so a slow
// client drops its own events instead of stalling the room.
func (h *Hub) Broadcast(ctx context.Context, e event.DomainEvent) {
	h.mu.RLock()
	sinks := make(map[domain.ConnectionID]contract.EventSink, len(h.connections))
	for id, conn := range h.connections {
		if conn.state == Joined {
			sinks[id] = conn.sink
		}
	}
	h.mu.RUnlock()

	for id, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			h.log.Warn("Dropping event for connection", "connection_id", id, "error", err)
		}
	}
}

// Stats feeds the reporter worker's periodic snapshot.
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	joined := 0
	for _, conn := range h.connections {
		if conn.state == Joined {
			joined++
		}
	}
	return map[string]any{
		"connections": len(h.connections),
		"joined":      joined,
	}
}
