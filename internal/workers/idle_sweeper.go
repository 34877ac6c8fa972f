package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lottery-miniapp-backend/internal/common/logger"
)

// Evicter drops per-user state unused for longer than idle and reports how much it dropped.
type Evicter interface {
	EvictIdle(idle time.Duration) int
}

// IdleSweeper periodically evicts idle carts and balance trackers so that
// users who left stop holding memory and background refreshes.
type IdleSweeper struct {
	evicters map[string]Evicter
	idle     time.Duration
	interval time.Duration
	log      zerolog.Logger
}

func NewIdleSweeper(idle, interval time.Duration, evicters map[string]Evicter, log zerolog.Logger) *IdleSweeper {
	return &IdleSweeper{
		evicters: evicters,
		idle:     idle,
		interval: interval,
		log:      log,
	}
}

// Sweep runs one eviction pass and returns the number of entries dropped.
func (s *IdleSweeper) Sweep() int {
	total := 0
	for name, e := range s.evicters {
		n := e.EvictIdle(s.idle)
		if n > 0 {
			s.log.Debug().Str("registry", name).Int("evicted", n).Msg("Evicted idle sessions")
		}
		total += n
	}
	return total
}

// Start blocks running Sweep every interval until ctx is cancelled.
func (s *IdleSweeper) Start(ctx context.Context) {
	cl := logger.CronLogger{L: s.log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.Sweep() }))
	c.Start()

	s.log.Info().Dur("idle", s.idle).Dur("interval", s.interval).Msg("Starting idle session sweeper")
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("Stopping idle session sweeper")
}
