package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lottery-miniapp-backend/internal/features/cart/models"
	"lottery-miniapp-backend/internal/features/cart/repository/kvstore"
	"lottery-miniapp-backend/internal/platform/kv"
)

const keyPrefixCart = "cart:"

type cartEntry struct {
	cart     *Cart
	lastUsed time.Time
}

// Registry hands out one Cart per Telegram user, each persisted under its own key.
// Carts idle longer than the sweep window are dropped and reloaded on next use.
type Registry struct {
	mu      sync.Mutex
	carts   map[int64]*cartEntry
	store   kv.Store
	pricing models.Pricing
	now     func() time.Time
	log     zerolog.Logger
}

func NewRegistry(store kv.Store, pricing models.Pricing, log zerolog.Logger) *Registry {
	return &Registry{
		carts:   make(map[int64]*cartEntry),
		store:   store,
		pricing: pricing,
		now:     time.Now,
		log:     log,
	}
}

// WithClock replaces the time source used for idle tracking.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// For returns the user's cart, restoring it from the store on first use.
// A failed read leaves nothing cached, so the next call retries the load.
func (r *Registry) For(ctx context.Context, userID int64) (*Cart, error) {
	if c, ok := r.touch(userID); ok {
		return c, nil
	}

	key := keyPrefixCart + strconv.FormatInt(userID, 10)
	c, err := NewCart(ctx, kvstore.NewRepository(r.store, key), r.pricing, r.log.With().Int64("user_id", userID).Logger())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request may have loaded it meanwhile
	if e, ok := r.carts[userID]; ok {
		e.lastUsed = r.now()
		return e.cart, nil
	}
	r.carts[userID] = &cartEntry{cart: c, lastUsed: r.now()}
	return c, nil
}

func (r *Registry) touch(userID int64) (*Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.carts[userID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.cart, true
}

// EvictIdle drops carts unused for longer than idle. Their state is already persisted.
func (r *Registry) EvictIdle(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	evicted := 0
	for id, e := range r.carts {
		if e.lastUsed.Before(cutoff) {
			delete(r.carts, id)
			evicted++
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

func (r *Registry) Pricing() models.Pricing {
	return r.pricing
}
