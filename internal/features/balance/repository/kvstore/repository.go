package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"lottery-miniapp-backend/internal/features/balance/models"
	"lottery-miniapp-backend/internal/features/balance/repository"
	"lottery-miniapp-backend/internal/platform/kv"
)

type Repository struct {
	store kv.Store
	key   string
}

func NewRepository(store kv.Store, key string) repository.CacheRepository {
	return &Repository{store: store, key: key}
}

func (r *Repository) Load(ctx context.Context) (models.CacheRecord, bool, error) {
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil || !ok {
		return models.CacheRecord{}, false, err
	}

	var rec models.CacheRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return models.CacheRecord{}, false, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}
	if rec.Timestamp.IsZero() {
		return models.CacheRecord{}, false, fmt.Errorf("%w: missing timestamp", repository.ErrCorrupt)
	}
	return rec, true, nil
}

func (r *Repository) Save(ctx context.Context, rec models.CacheRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal balance cache: %w", err)
	}
	return r.store.Set(ctx, r.key, string(data))
}
