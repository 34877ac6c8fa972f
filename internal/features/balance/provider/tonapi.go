package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TonAPI implements balance checks via TonAPI HTTP.
type TonAPI struct {
	baseURL        string
	token          string
	jettonMaster   string
	jettonDecimals int32
	httpClient     *http.Client
}

// NewTonAPI initializes TonAPI-based provider. jettonMaster is the stablecoin master contract.
func NewTonAPI(baseURL, token, jettonMaster string, jettonDecimals int32) *TonAPI {
	if baseURL == "" {
		baseURL = "https://tonapi.io"
	}
	return &TonAPI{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		jettonMaster:   jettonMaster,
		jettonDecimals: jettonDecimals,
		httpClient:     &http.Client{Timeout: 8 * time.Second},
	}
}

// amount decodes a smallest-unit integer sent either as a JSON number or a string.
type amount struct {
	set   bool
	value decimal.Decimal
}

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("%w: empty balance", ErrMalformedPayload)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("%w: invalid balance format %q", ErrMalformedPayload, s)
		}
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	a.set, a.value = true, v
	return nil
}

// NativeBalance returns TON balance in coins for the address.
func (s *TonAPI) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var out struct {
		Balance amount `json:"balance"`
	}
	if err := s.get(ctx, "/v2/accounts/"+url.PathEscape(address), &out); err != nil {
		return decimal.Zero, err
	}
	if !out.Balance.set {
		return decimal.Zero, fmt.Errorf("%w: balance missing", ErrMalformedPayload)
	}
	return out.Balance.value.Shift(-nanoDecimals), nil
}

// StablecoinBalance returns the configured jetton balance for the owner wallet. A wallet
// that never held the jetton has zero balance.
func (s *TonAPI) StablecoinBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	type jettonItem struct {
		Balance amount `json:"balance"`
		Jetton  struct {
			Address  string `json:"address"`
			Decimals *int32 `json:"decimals"`
		} `json:"jetton"`
	}
	var out struct {
		Balances *[]jettonItem `json:"balances"`
	}
	if err := s.get(ctx, "/v2/accounts/"+url.PathEscape(address)+"/jettons", &out); err != nil {
		return decimal.Zero, err
	}
	if out.Balances == nil {
		return decimal.Zero, fmt.Errorf("%w: balances missing", ErrMalformedPayload)
	}
	for _, b := range *out.Balances {
		if !SameAddress(b.Jetton.Address, s.jettonMaster) {
			continue
		}
		if !b.Balance.set {
			return decimal.Zero, fmt.Errorf("%w: jetton balance missing", ErrMalformedPayload)
		}
		decimals := s.jettonDecimals
		if b.Jetton.Decimals != nil {
			decimals = *b.Jetton.Decimals
		}
		return b.Balance.value.Shift(-decimals), nil
	}
	return decimal.Zero, nil
}

func (s *TonAPI) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tonapi http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
