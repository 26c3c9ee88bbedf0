package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an ephemeral presence record. It only exists while its TTL in the
// backing store has not elapsed; an expired user is indistinguishable from
// one that never joined.
type User struct {
	ID          uuid.UUID // unique identifier, generated at join, never reused
	DisplayName string    // set at join, immutable thereafter
	LastSeen    time.Time // UTC, refreshed on every activity
}

// NewUser builds a user with a fresh identity. Display names are not a
// uniqueness key: two users may share one.
func NewUser(displayName string) User {
	return User{
		ID:          uuid.New(),
		DisplayName: displayName,
		LastSeen:    time.Now().UTC(),
	}
}
