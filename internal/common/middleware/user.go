package middleware

import (
	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// UserID returns the Telegram user id stored by TelegramInitData.
func UserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(UserIDCtxKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id != 0
}

// User returns the Telegram user stored by TelegramInitData.
func User(c *gin.Context) (initdata.User, bool) {
	v, exists := c.Get(UserCtxKey)
	if !exists {
		return initdata.User{}, false
	}
	u, ok := v.(initdata.User)
	return u, ok
}
