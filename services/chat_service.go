package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/wire"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type IChatService interface {
	GetHistory(ctx context.Context) ([]domain.Message, error)
	SendMessage(ctx context.Context, senderID uuid.UUID, senderName, body string) (*domain.Message, error)
}

// ChatService is the central write path: it builds the message, runs the
// read-modify-write cycle on the persisted window, and publishes the result
// on the chat-messages subject.
//
// The window is the only shared mutable resource, and this service is its
// single writer: mu serializes the read-modify-write so concurrent sends
// cannot race the eviction boundary. The store itself offers no conditional
// write across our cycle, so serializing here is the honest choice.
type ChatService struct {
	mu        sync.Mutex
	log       *slog.Logger
	history   repositories.IHistoryRepository
	publisher contract.Publisher
	subject   string
}

func NewChatService(log *slog.Logger, history repositories.IHistoryRepository,
	publisher contract.Publisher, subject string) *ChatService {
	return &ChatService{log: log, history: history, publisher: publisher, subject: subject}
}

// GetHistory returns the persisted window oldest to newest. An empty slice
// on first-ever use is not a failure; a store error is.
func (s *ChatService) GetHistory(ctx context.Context) ([]domain.Message, error) {
	history, err := s.history.Load(ctx)
	if err != nil {
		s.log.Error("Failed to load chat history", "error", err)
		return nil, err
	}
	return history.All(), nil
}

// SendMessage constructs the message, appends it to the window, persists,
// then publishes. Failures are logged and surfaced to the caller; nothing
// is retried here, retry policy belongs to the caller or the adapters.
// A failed publish leaves the message in the window: connected clients miss
// the live event and recover it from history, matching best-effort fan-out.
func (s *ChatService) SendMessage(ctx context.Context, senderID uuid.UUID, senderName, body string) (*domain.Message, error) {
	if senderID == uuid.Nil {
		return nil, errors.ErrNilSenderID
	}
	if body == "" {
		return nil, errors.ErrEmptyMessageBody
	}

	message := domain.NewMessage(senderID, senderName, body)

	if err := s.appendToHistory(ctx, message); err != nil {
		s.log.Error("Failed to append message to history",
			"message_id", message.ID, "sender_id", senderID, "error", err)
		return nil, err
	}

	payload, err := json.Marshal(wire.FromMessage(message))
	if err != nil {
		return nil, fmt.Errorf("marshal message %s: %w", message.ID, err)
	}
	if err := s.publisher.Publish(ctx, s.subject, payload); err != nil {
		s.log.Error("Failed to publish message",
			"message_id", message.ID, "subject", s.subject, "error", err)
		return nil, err
	}

	return &message, nil
}

// appendToHistory runs the fetch-append-persist cycle under the single
// writer lock.
func (s *ChatService) appendToHistory(ctx context.Context, message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.history.Load(ctx)
	if err != nil {
		return err
	}
	history.Append(message)
	return s.history.Save(ctx, history)
}
