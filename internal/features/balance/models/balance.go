package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// State of a tracker's wallet binding.
type State string

const (
	StateUnbound State = "unbound"
	StateLoading State = "loading"
	StateFresh   State = "fresh"
	StateError   State = "error"
)

// WalletBalance holds both currencies. TON is in coins, USDT in token units.
type WalletBalance struct {
	TON  decimal.Decimal `json:"ton"`
	USDT decimal.Decimal `json:"usdt"`
}

// Snapshot is what the Mini App displays.
type Snapshot struct {
	Address     string          `json:"address,omitempty"`
	State       State           `json:"state"`
	TON         decimal.Decimal `json:"ton"`
	USDT        decimal.Decimal `json:"usdt"`
	Provisional bool            `json:"provisional"`
	Error       string          `json:"error,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// CacheRecord is written after every successful refresh.
type CacheRecord struct {
	Address   string          `json:"address"`
	TON       decimal.Decimal `json:"ton"`
	USDT      decimal.Decimal `json:"usdt"`
	Timestamp time.Time       `json:"timestamp"`
}

// FreshAt reports whether the record is younger than ttl at now. A record
// stamped in the future is never fresh.
func (r CacheRecord) FreshAt(now time.Time, ttl time.Duration) bool {
	age := now.Sub(r.Timestamp)
	return age >= 0 && age < ttl
}

type BindWalletRequest struct {
	Address string `json:"address" binding:"required"`
}
