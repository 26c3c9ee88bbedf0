package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/wire"
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// connSink buffers events for one socket. Consume never blocks: when the
// buffer is full the event is dropped for this connection only, which is
// the best-effort contract: the client recovers through history.
type connSink struct {
	events chan event.DomainEvent
}

func newConnSink(buffer int) *connSink {
	return &connSink{events: make(chan event.DomainEvent, buffer)}
}

func (c *connSink) Consume(_ context.Context, e event.DomainEvent) error {
	select {
	case c.events <- e:
		return nil
	default:
		return fmt.Errorf("connection buffer full")
	}
}

// helloFrame is the first frame a client sends after the upgrade, naming
// the user behind the connection.
type helloFrame struct {
	UserID uuid.UUID `json:"userId"`
}

// handleSocket drives one connection through its lifecycle: upgrade
// (Connecting), hello frame (Joined), socket close (Disconnected). Sends
// travel over REST; the socket is downstream-only, so the read loop exists
// to detect the close.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	sink := newConnSink(s.connectionBufferSize)
	id := s.hub.OnConnect(sink)

	var hello helloFrame
	if err := conn.ReadJSON(&hello); err != nil || hello.UserID == uuid.Nil {
		s.log.Warn("Closing socket without a valid hello frame",
			"connection_id", id, "error", err)
		s.hub.OnDisconnect(id)
		_ = conn.Close()
		return
	}

	if err := s.hub.OnJoinRoom(id); err != nil {
		s.log.Warn("Failed to join room", "connection_id", id, "error", err)
		_ = conn.Close()
		return
	}
	s.log.Info("User connected to chat", "user_id", hello.UserID, "connection_id", id)

	done := make(chan struct{})
	go s.writePump(conn, sink, done, id)

	// Blocks until the peer goes away.
	s.readPump(conn)

	s.hub.OnDisconnect(id)
	close(done)
	_ = conn.Close()
	s.log.Info("User disconnected from chat", "user_id", hello.UserID, "connection_id", id)
}

// writePump pushes buffered events to the socket until the connection ends.
func (s *Server) writePump(conn *websocket.Conn, sink *connSink, done <-chan struct{}, id domain.ConnectionID) {
	for {
		select {
		case <-done:
			return
		case e := <-sink.events:
			msg, ok := e.(event.MessageSent)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(wire.FromEvent(msg)); err != nil {
				s.log.Warn("Failed to push event to socket",
					"connection_id", id, "error", err)
				return
			}
		}
	}
}

// readPump discards incoming frames; clients send over REST. Its only job
// is returning when the transport detects the disconnect.
func (s *Server) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
