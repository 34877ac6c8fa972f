package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lottery-miniapp-backend/internal/common/config"
	"lottery-miniapp-backend/internal/common/logger"
	balanceProvider "lottery-miniapp-backend/internal/features/balance/provider"
	balanceService "lottery-miniapp-backend/internal/features/balance/service"
	cartModels "lottery-miniapp-backend/internal/features/cart/models"
	cartService "lottery-miniapp-backend/internal/features/cart/service"
	apphttp "lottery-miniapp-backend/internal/http"
	"lottery-miniapp-backend/internal/platform/kv"
	redisplatform "lottery-miniapp-backend/internal/platform/redis"
	"lottery-miniapp-backend/internal/workers"
)

const keyPrefix = "lottery:"

func main() {
	// Create cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load: %v", err))
	}

	logger.Init("lottery-miniapp-backend", cfg.Debug)
	logger.Info().
		Bool("debug", cfg.Debug).
		Str("store", cfg.StoreDriver).
		Str("balance_provider", cfg.Balance.Provider).
		Msg("Starting Lottery Mini App backend")

	var (
		store kv.Store
		rdb   *redisplatform.Client
		ready func(context.Context) error
	)
	switch cfg.StoreDriver {
	case "redis":
		rdb, err = redisplatform.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		store = kv.NewRedisStore(rdb, keyPrefix)
		ready = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis connection established")
	default:
		store = kv.NewMemoryStore()
		logger.Warn().Msg("Using in-memory store; carts and balance cache are lost on restart")
	}

	var balances balanceProvider.Provider
	switch cfg.Balance.Provider {
	case "lite":
		dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		lite, err := balanceProvider.DialLite(dialCtx, cfg.Balance.LiteConfigURL, cfg.Balance.USDTMaster, cfg.Balance.USDTDecimals)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to TON liteservers")
		}
		balances = lite
	default:
		balances = balanceProvider.NewTonAPI(cfg.Balance.TonAPIBaseURL, cfg.Balance.TonAPIToken, cfg.Balance.USDTMaster, cfg.Balance.USDTDecimals)
	}

	pricing := cartModels.Pricing{
		UnitPrice:         cfg.Lottery.TicketPrice,
		DiscountThreshold: cfg.Lottery.DiscountThreshold,
		DiscountPercent:   cfg.Lottery.DiscountPercent,
	}
	carts := cartService.NewRegistry(store, pricing, logger.Component("cart"))
	trackers := balanceService.NewRegistry(balances, store, balanceService.Options{
		CacheTTL:        cfg.Balance.CacheTTL,
		RefreshInterval: cfg.Balance.RefreshInterval,
	}, logger.Component("balance"))
	defer trackers.Close()

	sweeper := workers.NewIdleSweeper(cfg.Sessions.IdleTimeout, cfg.Sessions.SweepInterval, map[string]workers.Evicter{
		"cart":    carts,
		"balance": trackers,
	}, logger.Component("sessions"))
	go sweeper.Start(ctx)

	if rdb != nil {
		worker := workers.NewWalletEventsWorker(rdb, trackers, cfg.Workers.WalletEventsStream, cfg.Workers.WalletEventsGroup, logger.Component("wallet_events"))
		go worker.Start(ctx)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apphttp.NewRouter(apphttp.RouterConfig{
		Origin:      cfg.Server.Origin,
		BotToken:    cfg.Telegram.BotToken,
		InitDataTTL: cfg.Telegram.InitDataTTL,
		Format: cartModels.TicketFormat{
			NumbersPerTicket: cfg.Lottery.NumbersPerTicket,
			MaxNumber:        cfg.Lottery.MaxNumber,
		},
		Carts:    carts,
		Trackers: trackers,
		Ready:    ready,
		Log:      logger.Component("http"),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
