package event

import (
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	OccurredAt() time.Time
}

// MessageSent is the event emitted on the chat-messages topic after a
// message has been appended to the persisted window. Transient copies of
// it flow through the broker and the hub; the window owns the message.
type MessageSent struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	SenderName string
	Body       string
	At         time.Time
}

func (e MessageSent) OccurredAt() time.Time {
	return e.At
}
