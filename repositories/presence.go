package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/wire"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PresenceTTL is the expiry window of a presence record. Every save
// refreshes it; a user with no activity for this long vanishes.
const PresenceTTL = 15 * time.Minute

const userKeyPrefix = "user:"

type IPresenceRepository interface {
	Save(ctx context.Context, user domain.User) error
	Find(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// PresenceRepository wraps the state store with key construction and TTL
// refresh. Nothing else lives here: expiry is the store's job.
type PresenceRepository struct {
	store contract.StateStore
	ttl   time.Duration
}

func NewPresenceRepository(store contract.StateStore, ttl time.Duration) PresenceRepository {
	if ttl <= 0 {
		ttl = PresenceTTL
	}
	return PresenceRepository{store: store, ttl: ttl}
}

// Save persists the user and restarts its expiry clock.
func (r PresenceRepository) Save(ctx context.Context, user domain.User) error {
	data, err := json.Marshal(wire.FromUser(user))
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", user.ID, err)
	}
	return r.store.Put(ctx, userKey(user.ID), data, r.ttl)
}

// Find returns nil without error when the user never existed or expired:
// the two cases are indistinguishable by design.
func (r PresenceRepository) Find(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	data, found, err := r.store.Get(ctx, userKey(id))
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	var record wire.User
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	user := record.ToDomain()
	return &user, nil
}

func userKey(id uuid.UUID) string {
	return userKeyPrefix + id.String()
}
