// Package domain contains core concepts of the chat relay.
// This file defines Message and its construction rules.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. The sender's display name is
// denormalized at send time: the message keeps rendering correctly even
// after the sender's presence record expired.
type Message struct {
	ID         uuid.UUID // unique identifier, generated at creation
	SenderID   uuid.UUID
	SenderName string
	Body       string
	SentAt     time.Time // UTC
}

// NewMessage builds a message with a fresh identity and the current UTC time.
func NewMessage(senderID uuid.UUID, senderName, body string) Message {
	return Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		SentAt:     time.Now().UTC(),
	}
}
