package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	// StoreDriver selects the durable key-value backend: redis or memory.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"redis"`

	Telegram struct {
		BotToken string `env:"BOT_TOKEN,required,notEmpty"`
		// 0 disables the expiration check on init-data
		InitDataTTL time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	Lottery struct {
		TicketPrice       decimal.Decimal `env:"TICKET_PRICE" envDefault:"1"`
		DiscountThreshold int             `env:"DISCOUNT_THRESHOLD" envDefault:"5"`
		DiscountPercent   decimal.Decimal `env:"DISCOUNT_PERCENT" envDefault:"5"`
		NumbersPerTicket  int             `env:"NUMBERS_PER_TICKET" envDefault:"5"`
		MaxNumber         int             `env:"MAX_NUMBER" envDefault:"36"`
	}

	Balance struct {
		Provider        string        `env:"BALANCE_PROVIDER" envDefault:"tonapi"` // tonapi, lite
		TonAPIBaseURL   string        `env:"TONAPI_BASE_URL" envDefault:"https://tonapi.io"`
		TonAPIToken     string        `env:"TONAPI_TOKEN" envDefault:""`
		LiteConfigURL   string        `env:"TON_LITE_CONFIG_URL" envDefault:"https://ton.org/global-config.json"`
		USDTMaster      string        `env:"USDT_MASTER" envDefault:"EQCxE6mUtQJKFnGfaROTKOt1lZbDiiX1kCixRv7Nw2Id_sDs"`
		USDTDecimals    int32         `env:"USDT_DECIMALS" envDefault:"6"`
		CacheTTL        time.Duration `env:"BALANCE_CACHE_TTL" envDefault:"30s"`
		RefreshInterval time.Duration `env:"BALANCE_REFRESH_INTERVAL" envDefault:"10s"`
	}

	// Sessions bounds how long an unused cart or balance tracker stays in memory.
	Sessions struct {
		IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
		SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	}

	Workers struct {
		WalletEventsStream string `env:"WALLET_EVENTS_STREAM" envDefault:"bot:wallet_events"`
		WalletEventsGroup  string `env:"WALLET_EVENTS_GROUP" envDefault:"lottery_backend_consumers"`
	}
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Lottery.TicketPrice.IsNegative() {
		return fmt.Errorf("invalid TICKET_PRICE: must not be negative")
	}
	if c.Lottery.NumbersPerTicket <= 0 || c.Lottery.NumbersPerTicket > c.Lottery.MaxNumber {
		return fmt.Errorf("invalid NUMBERS_PER_TICKET %d for MAX_NUMBER %d", c.Lottery.NumbersPerTicket, c.Lottery.MaxNumber)
	}
	if c.Balance.RefreshInterval < time.Second {
		return fmt.Errorf("invalid BALANCE_REFRESH_INTERVAL: must be at least 1s")
	}
	if c.Sessions.IdleTimeout <= 0 || c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("invalid SESSION_IDLE_TIMEOUT or SESSION_SWEEP_INTERVAL: must be positive")
	}
	switch c.Balance.Provider {
	case "tonapi", "lite":
	default:
		return fmt.Errorf("invalid BALANCE_PROVIDER %q", c.Balance.Provider)
	}
	switch c.StoreDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
