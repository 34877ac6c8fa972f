// Package provider fetches wallet balances from the TON network.
package provider

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

// ErrMalformedPayload is returned when a balance source answers with data that cannot be read as an amount.
var ErrMalformedPayload = errors.New("malformed balance payload")

// Provider returns native TON and stablecoin (jetton) balances for a wallet.
type Provider interface {
	NativeBalance(ctx context.Context, address string) (decimal.Decimal, error)
	StablecoinBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

const nanoDecimals = 9

// ParseAddress accepts user-friendly (EQ.../UQ...) and raw (0:hex) addresses.
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}
	if strings.Contains(s, ":") {
		return address.ParseRawAddr(s)
	}
	return address.ParseAddr(s)
}

// Canonical renders a in raw form. Bounce and testnet flags of the user-friendly
// form are dropped, so one wallet always maps to one string.
func Canonical(a *address.Address) string {
	return fmt.Sprintf("%d:%s", a.Workchain(), hex.EncodeToString(a.Data()))
}

// NormalizeAddress parses s and returns its canonical form.
func NormalizeAddress(s string) (string, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return Canonical(a), nil
}

// SameAddress compares two addresses regardless of their textual form.
func SameAddress(a, b string) bool {
	pa, err := ParseAddress(a)
	if err != nil {
		return false
	}
	pb, err := ParseAddress(b)
	if err != nil {
		return false
	}
	return pa.Workchain() == pb.Workchain() && bytes.Equal(pa.Data(), pb.Data())
}
