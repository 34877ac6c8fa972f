package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "lottery-miniapp-backend/internal/common/errors"
)

// Recovery middleware для обработки паник
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := apperrors.New(apperrors.ErrCodeInternal, "Internal server error").
			WithDetail("panic", fmt.Sprintf("%v", recovered))
		sendErrorResponse(c, appErr, log)
		c.Abort()
	})
}

// RequestID middleware для добавления ID запроса
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Errors renders the last error a handler attached with c.Error. When the
// handler already wrote a response the error is only logged.
func Errors(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr, ok := apperrors.AsAppError(err)
		if !ok {
			appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Handler error occurred")
		}
		if c.Writer.Written() {
			annotate(c, appErr)
			logError(appErr, log)
			return
		}
		sendErrorResponse(c, appErr, log)
	}
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Error     *apperrors.AppError `json:"error"`
	Timestamp time.Time           `json:"timestamp"`
	RequestID string              `json:"request_id"`
	Path      string              `json:"path,omitempty"`
	Method    string              `json:"method,omitempty"`
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	_ = c.Error(appErr)
	c.Abort()
}

func annotate(c *gin.Context, appErr *apperrors.AppError) {
	appErr.WithRequestID(getRequestID(c)).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)
	if userID, ok := UserID(c); ok {
		appErr.WithUserID(userID)
	}
}

func sendErrorResponse(c *gin.Context, appErr *apperrors.AppError, log zerolog.Logger) {
	annotate(c, appErr)
	requestID := appErr.RequestID

	logError(appErr, log)

	c.JSON(HTTPStatus(appErr), ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	})
}

// HTTPStatus возвращает HTTP статус код для ошибки
func HTTPStatus(appErr *apperrors.AppError) int {
	switch appErr.Code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest,
		apperrors.ErrCodeInvalidTicket, apperrors.ErrCodeInvalidAddress:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeWalletNotBound:
		return http.StatusConflict
	case apperrors.ErrCodeCacheError:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeBalanceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func logError(appErr *apperrors.AppError, log zerolog.Logger) {
	var evt *zerolog.Event
	switch {
	case appErr.IsInternal():
		evt = log.Error()
	case appErr.IsUnauthorized():
		evt = log.Warn()
	default:
		evt = log.Info()
	}

	evt = evt.
		Str("request_id", appErr.RequestID).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message).
		Interface("context", appErr.Context)
	if appErr.UserID != 0 {
		evt = evt.Int64("user_id", appErr.UserID)
	}
	if len(appErr.Details) > 0 {
		evt = evt.Interface("details", appErr.Details)
	}
	if appErr.Cause != nil {
		evt = evt.Err(appErr.Cause)
	}
	evt.Msg("Request failed")
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
