package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "lottery-miniapp-backend/internal/common/errors"
	"lottery-miniapp-backend/internal/features/balance/models"
	"lottery-miniapp-backend/internal/features/balance/provider"
	"lottery-miniapp-backend/internal/features/balance/repository/kvstore"
	"lottery-miniapp-backend/internal/platform/kv"
)

const keyPrefixBalance = "balance:"

type trackerEntry struct {
	tracker  *Tracker
	lastUsed time.Time
}

// Registry owns one Tracker per Telegram user, each with its own cache key.
//
// Trackers idle past the sweep window are closed. Their wallet address is kept
// as a dormant binding and restored when the user shows up again.
type Registry struct {
	mu       sync.Mutex
	trackers map[int64]*trackerEntry
	dormant  map[int64]string
	provider provider.Provider
	store    kv.Store
	opts     Options
	now      func() time.Time
	log      zerolog.Logger
}

func NewRegistry(p provider.Provider, store kv.Store, opts Options, log zerolog.Logger) *Registry {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		trackers: make(map[int64]*trackerEntry),
		dormant:  make(map[int64]string),
		provider: p,
		store:    store,
		opts:     opts,
		now:      now,
		log:      log,
	}
}

func (r *Registry) For(userID int64) *Tracker {
	t, resume := r.lookup(userID, true)
	if resume != "" {
		r.log.Debug().Int64("user_id", userID).Msg("Resuming dormant wallet binding")
		t.Bind(context.Background(), resume)
	}
	return t
}

// lookup returns the user's tracker, creating it if needed. When a dormant
// binding is picked up and resume is true, its address is returned for rebinding.
func (r *Registry) lookup(userID int64, resume bool) (*Tracker, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.trackers[userID]; ok {
		e.lastUsed = r.now()
		return e.tracker, ""
	}
	key := keyPrefixBalance + strconv.FormatInt(userID, 10)
	t := NewTracker(r.provider, kvstore.NewRepository(r.store, key), r.opts, r.log.With().Int64("user_id", userID).Logger())
	r.trackers[userID] = &trackerEntry{tracker: t, lastUsed: r.now()}

	addr := r.dormant[userID]
	delete(r.dormant, userID)
	if !resume {
		addr = ""
	}
	return t, addr
}

// BindWallet binds the user's tracker to address, which must already be canonical.
func (r *Registry) BindWallet(ctx context.Context, userID int64, address string) {
	t, _ := r.lookup(userID, false)
	t.Bind(ctx, address)
}

func (r *Registry) UnbindWallet(userID int64) {
	t, _ := r.lookup(userID, false)
	t.Unbind()
}

// AvailableUSDT returns the displayed USDT balance of the user's bound wallet.
func (r *Registry) AvailableUSDT(userID int64) (decimal.Decimal, error) {
	snap := r.For(userID).Snapshot()
	if snap.State == models.StateUnbound {
		return decimal.Zero, apperrors.NewWalletNotBoundError()
	}
	return snap.USDT, nil
}

// EvictIdle closes and drops trackers unused for longer than idle.
func (r *Registry) EvictIdle(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Tracker
	for id, e := range r.trackers {
		if !e.lastUsed.Before(cutoff) {
			continue
		}
		if addr := e.tracker.Address(); addr != "" {
			r.dormant[id] = addr
		}
		delete(r.trackers, id)
		stale = append(stale, e.tracker)
	}
	r.mu.Unlock()

	for _, t := range stale {
		t.Close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Close stops every tracker's background refresh.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.trackers {
		e.tracker.Close()
	}
	r.log.Info().Int("trackers", len(r.trackers)).Msg("Balance trackers stopped")
}
