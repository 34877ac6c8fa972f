package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"lottery-miniapp-backend/internal/features/cart/models"
	"lottery-miniapp-backend/internal/features/cart/repository"
	"lottery-miniapp-backend/internal/platform/kv"
)

// Repository stores one cart as a JSON array under a single key.
type Repository struct {
	store kv.Store
	key   string
}

func NewRepository(store kv.Store, key string) repository.Repository {
	return &Repository{store: store, key: key}
}

func (r *Repository) Load(ctx context.Context) ([]models.CartTicket, error) {
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var tickets []models.CartTicket
	if err := json.Unmarshal([]byte(raw), &tickets); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}
	return tickets, nil
}

func (r *Repository) Save(ctx context.Context, tickets []models.CartTicket) error {
	if tickets == nil {
		tickets = []models.CartTicket{}
	}
	data, err := json.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	return r.store.Set(ctx, r.key, string(data))
}
