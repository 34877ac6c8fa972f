package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lottery-miniapp-backend/internal/common/middleware"
	balancehttp "lottery-miniapp-backend/internal/features/balance/delivery/http"
	balanceService "lottery-miniapp-backend/internal/features/balance/service"
	carthttp "lottery-miniapp-backend/internal/features/cart/delivery/http"
	cartModels "lottery-miniapp-backend/internal/features/cart/models"
	cartService "lottery-miniapp-backend/internal/features/cart/service"
)

const serviceName = "lottery-miniapp-backend"

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Origin      string
	BotToken    string
	InitDataTTL time.Duration
	Format      cartModels.TicketFormat

	Carts    *cartService.Registry
	Trackers *balanceService.Registry

	// Ready reports whether the backing store is reachable; nil means always ready.
	Ready func(ctx context.Context) error

	Log zerolog.Logger
}

// NewRouter builds the gin engine with middleware, health checks and the /api/v1 routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.Errors(cfg.Log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "init_data", "X-Telegram-Init-Data", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Balance-Error"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "store unavailable",
					"details": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	v1 := router.Group("/api/v1", middleware.TelegramInitData(cfg.BotToken, cfg.InitDataTTL))
	carthttp.NewCartHandler(cfg.Carts, cfg.Format, cfg.Trackers).RegisterRoutes(v1)
	balancehttp.NewWalletHandler(cfg.Trackers).RegisterRoutes(v1)

	return router
}
