package provider

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
)

func testAddress(fill byte) *address.Address {
	data := make([]byte, 32)
	for i := range data {
		data[i] = fill
	}
	return address.NewAddress(0, 0, data)
}

func rawForm(a *address.Address) string {
	return fmt.Sprintf("%d:%s", a.Workchain(), hex.EncodeToString(a.Data()))
}

func TestParseAddress(t *testing.T) {
	a := testAddress(0x11)

	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a.Data(), parsed.Data())

	parsed, err = ParseAddress(rawForm(a))
	require.NoError(t, err)
	assert.Equal(t, a.Data(), parsed.Data())

	_, err = ParseAddress("")
	assert.Error(t, err)
	_, err = ParseAddress("not-an-address")
	assert.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	a := testAddress(0x44)

	fromFriendly, err := NormalizeAddress(a.String())
	require.NoError(t, err)
	fromRaw, err := NormalizeAddress(" " + rawForm(a) + " ")
	require.NoError(t, err)

	assert.Equal(t, rawForm(a), fromFriendly)
	assert.Equal(t, fromFriendly, fromRaw)

	_, err = NormalizeAddress("EQ-broken")
	assert.Error(t, err)
}

func TestSameAddress(t *testing.T) {
	a := testAddress(0x22)
	b := testAddress(0x33)

	assert.True(t, SameAddress(a.String(), rawForm(a)))
	assert.False(t, SameAddress(a.String(), b.String()))
	assert.False(t, SameAddress(a.String(), "garbage"))
}

func newTonAPIServer(t *testing.T, handler http.HandlerFunc) *TonAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTonAPI(srv.URL, "secret", testAddress(0xAA).String(), 6)
}

func TestTonAPI_NativeBalance(t *testing.T) {
	owner := testAddress(0x01).String()

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{name: "number", status: 200, body: `{"balance": 3000000000}`, want: "3"},
		{name: "string", status: 200, body: `{"balance": "1500000000"}`, want: "1.5"},
		{name: "missing field", status: 200, body: `{"status":"active"}`, wantErr: ErrMalformedPayload},
		{name: "negative", status: 200, body: `{"balance": "-5"}`, wantErr: ErrMalformedPayload},
		{name: "not json", status: 200, body: `<html>`, wantErr: ErrMalformedPayload},
		{name: "http error", status: 502, body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTonAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/accounts/"+owner, r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := api.NativeBalance(context.Background(), owner)
			if tt.status != http.StatusOK {
				assert.ErrorContains(t, err, "tonapi http")
				return
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestTonAPI_StablecoinBalance(t *testing.T) {
	owner := testAddress(0x01).String()
	master := testAddress(0xAA)
	other := testAddress(0xBB)

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{
			name: "matches raw master address",
			body: fmt.Sprintf(`{"balances":[
				{"balance":"5","jetton":{"address":%q,"decimals":9}},
				{"balance":"10000000","jetton":{"address":%q,"decimals":6}}
			]}`, rawForm(other), rawForm(master)),
			want: "10",
		},
		{
			name: "falls back to configured decimals",
			body: fmt.Sprintf(`{"balances":[{"balance":"2500000","jetton":{"address":%q}}]}`, master.String()),
			want: "2.5",
		},
		{
			name: "no jetton held",
			body: fmt.Sprintf(`{"balances":[{"balance":"1","jetton":{"address":%q}}]}`, rawForm(other)),
			want: "0",
		},
		{name: "empty list", body: `{"balances":[]}`, want: "0"},
		{name: "missing balances", body: `{"error":"rate limit"}`, wantErr: ErrMalformedPayload},
		{
			name:    "bad amount",
			body:    fmt.Sprintf(`{"balances":[{"balance":"1e5","jetton":{"address":%q}}]}`, rawForm(master)),
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTonAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasSuffix(r.URL.Path, "/jettons"))
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := api.StablecoinBalance(context.Background(), owner)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
