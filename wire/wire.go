// Package wire defines the JSON shapes shared by the state store, the
// pub/sub bridge, and the transport layer. The persisted history window,
// the broker payload, and the HTTP/WebSocket bodies all carry the same
// document, so there is exactly one place where field names live.
package wire

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"message"`
	SentAt     time.Time `json:"sentAt"`
}

type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	LastSeen    time.Time `json:"lastSeen"`
}

func FromMessage(m domain.Message) Message {
	return Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Body,
		SentAt:     m.SentAt,
	}
}

func (m Message) ToDomain() domain.Message {
	return domain.Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Body,
		SentAt:     m.SentAt.UTC(),
	}
}

// ToEvent converts the payload into the event shape the hub fans out.
func (m Message) ToEvent() event.MessageSent {
	return event.MessageSent{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Body,
		At:         m.SentAt.UTC(),
	}
}

func FromEvent(e event.MessageSent) Message {
	return Message{
		ID:         e.ID,
		SenderID:   e.SenderID,
		SenderName: e.SenderName,
		Body:       e.Body,
		SentAt:     e.At,
	}
}

func FromMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(item domain.Message, _ int) Message {
		return FromMessage(item)
	})
}

func ToMessages(messages []Message) []domain.Message {
	return lo.Map(messages, func(item Message, _ int) domain.Message {
		return item.ToDomain()
	})
}

func FromUser(u domain.User) User {
	return User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		LastSeen:    u.LastSeen,
	}
}

func (u User) ToDomain() domain.User {
	return domain.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		LastSeen:    u.LastSeen.UTC(),
	}
}
