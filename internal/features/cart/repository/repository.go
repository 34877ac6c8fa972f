package repository

import (
	"context"
	"errors"

	"lottery-miniapp-backend/internal/features/cart/models"
)

// ErrCorrupt is returned by Load when the persisted cart cannot be decoded.
var ErrCorrupt = errors.New("persisted cart is corrupt")

type Repository interface {
	// Load returns the persisted tickets in insertion order; nil when nothing is stored.
	Load(ctx context.Context) ([]models.CartTicket, error)

	// Save replaces the persisted tickets with the full list.
	Save(ctx context.Context, tickets []models.CartTicket) error
}
