package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"lottery-miniapp-backend/internal/common/logger"
	"lottery-miniapp-backend/internal/features/balance/models"
	"lottery-miniapp-backend/internal/features/balance/provider"
	"lottery-miniapp-backend/internal/features/balance/repository"
)

const (
	DefaultCacheTTL        = 30 * time.Second
	DefaultRefreshInterval = 10 * time.Second
	fetchTimeout           = 15 * time.Second
)

// Options tune a Tracker. Zero values fall back to the defaults.
type Options struct {
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	Now             func() time.Time
}

// Tracker keeps one user's TON and USDT balances fresh for the currently bound wallet.
//
// Every binding gets a generation number. Fetches that finish after the binding
// changed are dropped, and refreshes requested while one is in flight for the
// same binding join it instead of issuing new provider calls.
type Tracker struct {
	provider provider.Provider
	cache    repository.CacheRepository
	cacheTTL time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu          sync.RWMutex
	address     string
	gen         uint64
	state       models.State
	balance     models.WalletBalance
	provisional bool
	lastErr     string
	updatedAt   time.Time
	sched       *cron.Cron
	closed      bool

	flight singleflight.Group
	bg     sync.WaitGroup
}

func NewTracker(p provider.Provider, cache repository.CacheRepository, opts Options, log zerolog.Logger) *Tracker {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		provider: p,
		cache:    cache,
		cacheTTL: opts.CacheTTL,
		interval: opts.RefreshInterval,
		now:      opts.Now,
		log:      log,
		state:    models.StateUnbound,
		balance:  zeroBalance(),
	}
}

// Bind attaches the tracker to address. A fresh cache record for the same address
// is shown until the first refresh completes; the periodic refresh starts at once.
// Binding the current address again does nothing; an empty address unbinds.
func (t *Tracker) Bind(ctx context.Context, address string) {
	if address == "" {
		t.Unbind()
		return
	}

	t.mu.Lock()
	if t.closed || t.address == address {
		t.mu.Unlock()
		return
	}
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.address = address
	t.state = models.StateLoading
	t.balance = zeroBalance()
	t.provisional = false
	t.lastErr = ""
	t.updatedAt = time.Time{}
	t.mu.Unlock()

	rec, ok, err := t.cache.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCorrupt) {
			t.log.Warn().Err(err).Msg("Ignoring corrupt balance cache")
		} else {
			t.log.Error().Err(err).Msg("Failed to read balance cache")
		}
	}

	t.mu.Lock()
	if t.closed || t.gen != gen {
		t.mu.Unlock()
		return
	}
	if ok && rec.Address == address && rec.FreshAt(t.now(), t.cacheTTL) && t.updatedAt.IsZero() {
		t.balance = models.WalletBalance{TON: rec.TON, USDT: rec.USDT}
		t.provisional = true
	}
	t.startLocked(gen)
	t.mu.Unlock()

	t.log.Info().Str("address", address).Bool("cached", t.Snapshot().Provisional).Msg("Wallet bound")

	t.bg.Add(1)
	go func() {
		defer t.bg.Done()
		t.tick(gen)
	}()
}

// Unbind stops the periodic refresh and zeroes both balances.
func (t *Tracker) Unbind() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if t.address != "" {
		t.log.Info().Str("address", t.address).Msg("Wallet unbound")
	}
	t.gen++
	t.address = ""
	t.resetLocked()
}

// Close stops background refreshes for good; later Binds are ignored.
// In-flight fetches finish and are discarded.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Unbind()
}

// Wait blocks until background refreshes started by Bind have returned.
func (t *Tracker) Wait() {
	t.bg.Wait()
}

// Refresh fetches both balances in parallel and updates them together. On failure
// the previous balances stay and the error message is kept for display.
func (t *Tracker) Refresh(ctx context.Context) (models.Snapshot, error) {
	t.mu.Lock()
	if t.address == "" {
		t.resetLocked()
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, nil
	}
	addr, gen := t.address, t.gen
	t.state = models.StateLoading
	t.mu.Unlock()

	key := addr + "#" + strconv.FormatUint(gen, 10)
	_, err, shared := t.flight.Do(key, func() (interface{}, error) {
		// the fetch outlives any single caller; joined callers share it
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return nil, t.fetch(fctx, addr, gen)
	})
	if shared {
		t.log.Debug().Str("address", addr).Msg("Joined in-flight balance refresh")
	}
	return t.Snapshot(), err
}

func (t *Tracker) Snapshot() models.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

// Address returns the bound wallet address or "".
func (t *Tracker) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.address
}

func (t *Tracker) fetch(ctx context.Context, addr string, gen uint64) error {
	var ton, usdt decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := t.provider.NativeBalance(gctx, addr)
		if err != nil {
			return fmt.Errorf("TON balance: %w", err)
		}
		ton = v
		return nil
	})
	g.Go(func() error {
		v, err := t.provider.StablecoinBalance(gctx, addr)
		if err != nil {
			return fmt.Errorf("USDT balance: %w", err)
		}
		usdt = v
		return nil
	})
	err := g.Wait()

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		t.log.Debug().Str("address", addr).Msg("Discarding balance for a stale wallet binding")
		return nil
	}
	if err != nil {
		t.state = models.StateError
		t.lastErr = err.Error()
		t.mu.Unlock()
		t.log.Warn().Err(err).Str("address", addr).Msg("Balance refresh failed")
		return err
	}

	now := t.now()
	t.balance = models.WalletBalance{TON: ton, USDT: usdt}
	t.state = models.StateFresh
	t.provisional = false
	t.lastErr = ""
	t.updatedAt = now
	t.mu.Unlock()

	rec := models.CacheRecord{Address: addr, TON: ton, USDT: usdt, Timestamp: now}
	if err := t.cache.Save(ctx, rec); err != nil {
		t.log.Error().Err(err).Str("address", addr).Msg("Failed to write balance cache")
	}
	return nil
}

func (t *Tracker) tick(gen uint64) {
	t.mu.RLock()
	current := t.gen == gen
	t.mu.RUnlock()
	if !current {
		return
	}
	// errors are already recorded in the snapshot and logged
	_, _ = t.Refresh(context.Background())
}

// startLocked must be called with mu held.
func (t *Tracker) startLocked(gen uint64) {
	cl := logger.CronLogger{L: t.log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(cron.Every(t.interval), cron.FuncJob(func() { t.tick(gen) }))
	c.Start()
	t.sched = c
}

// stopLocked must be called with mu held.
func (t *Tracker) stopLocked() {
	if t.sched != nil {
		t.sched.Stop()
		t.sched = nil
	}
}

func (t *Tracker) resetLocked() {
	t.state = models.StateUnbound
	t.balance = zeroBalance()
	t.provisional = false
	t.lastErr = ""
	t.updatedAt = time.Time{}
}

func (t *Tracker) snapshotLocked() models.Snapshot {
	s := models.Snapshot{
		Address:     t.address,
		State:       t.state,
		TON:         t.balance.TON,
		USDT:        t.balance.USDT,
		Provisional: t.provisional,
		Error:       t.lastErr,
	}
	if !t.updatedAt.IsZero() {
		ts := t.updatedAt
		s.UpdatedAt = &ts
	}
	return s
}

func zeroBalance() models.WalletBalance {
	return models.WalletBalance{TON: decimal.Zero, USDT: decimal.Zero}
}
