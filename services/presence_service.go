package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IPresenceService interface {
	Join(ctx context.Context, displayName string) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Touch(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// PresenceService orchestrates user creation, lookup, and last-seen refresh.
// Expiry itself never runs here: the store's TTL is the only removal path.
type PresenceService struct {
	log  *slog.Logger
	repo repositories.IPresenceRepository
}

func NewPresenceService(log *slog.Logger, repo repositories.IPresenceRepository) *PresenceService {
	return &PresenceService{log: log, repo: repo}
}

// Join creates a user with a fresh identity. The display name is not a
// uniqueness key, so Join never fails on duplicates.
func (s *PresenceService) Join(ctx context.Context, displayName string) (domain.User, error) {
	if displayName == "" {
		return domain.User{}, errors.ErrEmptyDisplayName
	}
	user := domain.NewUser(displayName)
	if err := s.repo.Save(ctx, user); err != nil {
		s.log.Error("Failed to persist joining user",
			"user_id", user.ID, "display_name", displayName, "error", err)
		return domain.User{}, err
	}
	s.log.Info("User joined", "user_id", user.ID, "display_name", displayName)
	return user, nil
}

// Get returns nil for an unknown or expired user.
func (s *PresenceService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.Find(ctx, id)
}

// Touch refreshes the last-seen timestamp and the TTL. Touching a vanished
// user is a no-op signal, not an error: it returns nil without recreating
// the record.
func (s *PresenceService) Touch(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.Find(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	user.LastSeen = time.Now().UTC()
	if err := s.repo.Save(ctx, *user); err != nil {
		s.log.Error("Failed to refresh user presence", "user_id", id, "error", err)
		return nil, err
	}
	return user, nil
}
