package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/wire"
	"context"
	"encoding/json"
	"fmt"
)

// historyKey holds the whole rolling window under one key, like the source
// system's single chat-history state entry. No TTL: history survives until
// overwritten.
const historyKey = "chat:history"

type IHistoryRepository interface {
	Load(ctx context.Context) (*domain.History, error)
	Save(ctx context.Context, history *domain.History) error
}

type HistoryRepository struct {
	store    contract.StateStore
	capacity int
}

func NewHistoryRepository(store contract.StateStore, capacity int) HistoryRepository {
	if capacity <= 0 {
		capacity = domain.DefaultHistoryCapacity
	}
	return HistoryRepository{store: store, capacity: capacity}
}

// Load fetches the persisted window. "Never persisted" and "empty window"
// are indistinguishable by store contract, so both come back as an empty
// history; a store failure, in contrast, is surfaced, never treated as
// empty data.
func (r HistoryRepository) Load(ctx context.Context) (*domain.History, error) {
	data, found, err := r.store.Get(ctx, historyKey)
	if err != nil {
		return nil, fmt.Errorf("read history window: %w", err)
	}
	if !found {
		return domain.NewHistory(r.capacity), nil
	}
	var window []wire.Message
	if err := json.Unmarshal(data, &window); err != nil {
		return nil, fmt.Errorf("decode history window: %w", err)
	}
	return domain.RestoreHistory(r.capacity, wire.ToMessages(window)), nil
}

func (r HistoryRepository) Save(ctx context.Context, history *domain.History) error {
	data, err := json.Marshal(wire.FromMessages(history.All()))
	if err != nil {
		return fmt.Errorf("marshal history window: %w", err)
	}
	return r.store.Put(ctx, historyKey, data, 0)
}
