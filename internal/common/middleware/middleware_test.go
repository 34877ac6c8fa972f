package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "lottery-miniapp-backend/internal/common/errors"
)

const testBotToken = "123456:TEST-TOKEN"

func init() {
	gin.SetMode(gin.TestMode)
}

// signInitData builds init-data the way Telegram does: HMAC-SHA256 over the sorted
// key=value lines, keyed by HMAC("WebAppData", botToken).
func signInitData(t *testing.T, token string, userID int64, authDate time.Time) string {
	t.Helper()
	user, err := json.Marshal(map[string]interface{}{
		"id":         userID,
		"first_name": "Ada",
		"username":   "ada",
	})
	require.NoError(t, err)

	fields := map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      string(user),
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	q := url.Values{}
	for k, v := range fields {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func newTestEngine(token string) *gin.Engine {
	log := zerolog.Nop()
	r := gin.New()
	r.Use(RequestID(), Recovery(log), Errors(log))
	api := r.Group("/api", TelegramInitData(token, time.Hour))
	api.GET("/me", func(c *gin.Context) {
		id, ok := UserID(c)
		u, _ := User(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok, "username": u.Username})
	})
	return r
}

func TestTelegramInitData(t *testing.T) {
	valid := signInitData(t, testBotToken, 777, time.Now())

	tests := []struct {
		name   string
		token  string
		header string
		query  string
		status int
	}{
		{name: "valid header", token: testBotToken, header: valid, status: http.StatusOK},
		{name: "valid query", token: testBotToken, query: valid, status: http.StatusOK},
		{name: "missing", token: testBotToken, status: http.StatusUnauthorized},
		{name: "wrong bot token", token: "999:OTHER", header: valid, status: http.StatusUnauthorized},
		{name: "expired", token: testBotToken, header: signInitData(t, testBotToken, 777, time.Now().Add(-2*time.Hour)), status: http.StatusUnauthorized},
		{name: "not configured", token: "", header: valid, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(tt.token)
			target := "/api/me"
			if tt.query != "" {
				target += "?init_data=" + url.QueryEscape(tt.query)
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("X-Telegram-Init-Data", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				var body struct {
					ID       int64  `json:"id"`
					OK       bool   `json:"ok"`
					Username string `json:"username"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, int64(777), body.ID)
				assert.True(t, body.OK)
				assert.Equal(t, "ada", body.Username)
			} else {
				var body ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.NotEmpty(t, body.RequestID)
			}
		})
	}
}

func TestErrors_RendersAppError(t *testing.T) {
	log := zerolog.Nop()
	r := gin.New()
	r.Use(RequestID(), Errors(log))
	r.GET("/ticket", func(c *gin.Context) {
		_ = c.Error(apperrors.NewInvalidTicketError("duplicate number 3"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ticket", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.ErrCodeInvalidTicket, body.Error.Code)
	assert.Equal(t, "req-42", body.RequestID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestErrors_KeepsWrittenResponse(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Errors(zerolog.Nop()))
	r.GET("/refresh", func(c *gin.Context) {
		_ = c.Error(apperrors.NewBalanceUnavailableError(errors.New("toncenter timeout")))
		c.JSON(http.StatusOK, gin.H{"state": "error"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/refresh", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"error"}`, w.Body.String())
}

func TestRecovery(t *testing.T) {
	log := zerolog.Nop()
	r := gin.New()
	r.Use(RequestID(), Recovery(log))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := map[apperrors.ErrorCode]int{
		apperrors.ErrCodeInvalidTicket:      http.StatusBadRequest,
		apperrors.ErrCodeInvalidAddress:     http.StatusBadRequest,
		apperrors.ErrCodeNotFound:           http.StatusNotFound,
		apperrors.ErrCodeUnauthorized:       http.StatusUnauthorized,
		apperrors.ErrCodeWalletNotBound:     http.StatusConflict,
		apperrors.ErrCodeBalanceUnavailable: http.StatusBadGateway,
		apperrors.ErrCodeCacheError:         http.StatusServiceUnavailable,
		apperrors.ErrCodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(apperrors.New(code, "x")), code)
	}
}
