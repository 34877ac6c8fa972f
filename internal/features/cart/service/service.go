package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lottery-miniapp-backend/internal/features/cart/models"
	"lottery-miniapp-backend/internal/features/cart/repository"
)

// Cart holds one user's pending tickets. Every mutation persists the whole list;
// a failed write is logged and the in-memory change stays.
type Cart struct {
	mu      sync.Mutex
	tickets []models.CartTicket

	repo    repository.Repository
	pricing models.Pricing
	now     func() time.Time
	log     zerolog.Logger
}

// NewCart restores the persisted cart. Malformed data starts an empty cart; a
// failed read is returned so the stored list is never overwritten blindly.
func NewCart(ctx context.Context, repo repository.Repository, pricing models.Pricing, log zerolog.Logger) (*Cart, error) {
	c := &Cart{
		repo:    repo,
		pricing: pricing,
		now:     time.Now,
		log:     log,
	}

	tickets, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrCorrupt):
		log.Warn().Err(err).Msg("Discarding corrupt persisted cart")
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	default:
		c.tickets = tickets
	}
	return c, nil
}

// WithClock replaces the time source used for AddedAt.
func (c *Cart) WithClock(now func() time.Time) *Cart {
	c.now = now
	return c
}

// AddTicket appends a ticket with a fresh id. numbers are copied and sorted;
// they are not validated here.
func (c *Cart) AddTicket(ctx context.Context, numbers []int) models.CartTicket {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	t := models.CartTicket{
		ID:      uuid.NewString(),
		Numbers: sorted,
		AddedAt: c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets = append(c.tickets, t)
	c.persist(ctx)
	return cloneTicket(t)
}

// RemoveTicket deletes the ticket with id. It reports whether a ticket was removed.
func (c *Cart) RemoveTicket(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.IndexFunc(c.tickets, func(t models.CartTicket) bool { return t.ID == id })
	if idx < 0 {
		return false
	}
	c.tickets = slices.Delete(c.tickets, idx, idx+1)
	c.persist(ctx)
	return true
}

func (c *Cart) ClearCart(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets = nil
	c.persist(ctx)
}

// Tickets returns a copy of the cart in insertion order.
func (c *Cart) Tickets() []models.CartTicket {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartTicket, len(c.tickets))
	for i, t := range c.tickets {
		out[i] = cloneTicket(t)
	}
	return out
}

func (c *Cart) Summary() models.Summary {
	c.mu.Lock()
	n := len(c.tickets)
	c.mu.Unlock()
	return c.pricing.Summarize(n)
}

// Quote checks the current total against available funds.
func (c *Cart) Quote(available decimal.Decimal) models.Quote {
	return models.NewQuote(c.Summary(), available)
}

// persist must be called with mu held.
func (c *Cart) persist(ctx context.Context) {
	if err := c.repo.Save(ctx, c.tickets); err != nil {
		c.log.Error().Err(err).Int("tickets", len(c.tickets)).Msg("Failed to persist cart")
	}
}

func cloneTicket(t models.CartTicket) models.CartTicket {
	t.Numbers = slices.Clone(t.Numbers)
	return t
}
