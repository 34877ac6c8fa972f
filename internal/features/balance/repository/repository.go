package repository

import (
	"context"
	"errors"

	"lottery-miniapp-backend/internal/features/balance/models"
)

// ErrCorrupt is returned by Load when the cache record cannot be decoded.
var ErrCorrupt = errors.New("balance cache record is corrupt")

type CacheRepository interface {
	// Load returns the last written record; ok is false when none exists.
	Load(ctx context.Context) (rec models.CacheRecord, ok bool, err error)

	Save(ctx context.Context, rec models.CacheRecord) error
}
