package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "lottery-miniapp-backend/internal/common/errors"
)

// Context keys set by TelegramInitData.
const (
	UserCtxKey   = "user"
	UserIDCtxKey = "user_id"
)

// TelegramInitData validates Telegram Mini App init-data and stores the user in context.
// Init-data is read from the "X-Telegram-Init-Data" header, then the "init_data" header,
// then the "init_data" query parameter. expIn == 0 disables the expiration check.
func TelegramInitData(botToken string, expIn time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if botToken == "" {
			abortWithError(c, apperrors.New(apperrors.ErrCodeInternal, "init-data validation is not configured"))
			return
		}

		raw := c.GetHeader("X-Telegram-Init-Data")
		if raw == "" {
			raw = c.GetHeader("init_data")
		}
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			abortWithError(c, apperrors.NewUnauthorizedError("Telegram Init Data required"))
			return
		}

		if err := initdata.Validate(raw, botToken, expIn); err != nil {
			abortWithError(c, apperrors.NewUnauthorizedError("invalid init data").WithDetail("cause", err.Error()))
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			abortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Failed to parse init data"))
			return
		}
		if parsed.User.ID == 0 {
			abortWithError(c, apperrors.NewUnauthorizedError("init data carries no user"))
			return
		}

		c.Set(UserCtxKey, parsed.User)
		c.Set(UserIDCtxKey, parsed.User.ID)
		c.Next()
	}
}
