package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := NewBalanceUnavailableError(cause)

	assert.Equal(t, ErrCodeBalanceUnavailable, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "BALANCE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "dial tcp: refused")
	assert.NotEmpty(t, err.Stack)
}

func TestAsAppError(t *testing.T) {
	inner := NewInvalidTicketError("duplicate number 7")
	wrapped := fmt.Errorf("add ticket: %w", inner)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)

	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestAppError_Classification(t *testing.T) {
	tests := []struct {
		err          *AppError
		validation   bool
		internal     bool
		notFound     bool
		unauthorized bool
	}{
		{err: NewInvalidTicketError("x"), validation: true},
		{err: NewInvalidAddressError("bad", stderrors.New("crc")), validation: true},
		{err: NewValidationError("numbers", "required"), validation: true},
		{err: NewCacheError("set", stderrors.New("oom")), internal: true},
		{err: NewNotFoundError("ticket", "abc"), notFound: true},
		{err: NewUnauthorizedError("missing init_data"), unauthorized: true},
		{err: NewWalletNotBoundError()},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.validation, tt.err.IsValidation())
			assert.Equal(t, tt.internal, tt.err.IsInternal())
			assert.Equal(t, tt.notFound, tt.err.IsNotFound())
			assert.Equal(t, tt.unauthorized, tt.err.IsUnauthorized())
		})
	}
}

func TestAppError_WithContextAndDetail(t *testing.T) {
	err := New(ErrCodeBadRequest, "bad").
		WithContext("path", "/api/v1/cart").
		WithDetail("field", "numbers").
		WithRequestID("req-1").
		WithUserID(42)

	assert.Equal(t, "/api/v1/cart", err.Context["path"])
	assert.Equal(t, "numbers", err.Details["field"])
	assert.Equal(t, "req-1", err.RequestID)
	assert.Equal(t, int64(42), err.UserID)
}
