package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/recall-api/internal/store"
)

// SweeperConfig holds configuration for the attempt-log sweeper.
type SweeperConfig struct {
	// Interval is how often the sweep runs.
	Interval time.Duration

	// Retention is the horizon past which attempts are deleted. This
	// is independent of the much shorter session suppression window;
	// the sweep must never be tightened to that window or suppression
	// history would survive while display history vanishes mid-day.
	Retention time.Duration
}

// DefaultSweeperConfig returns a SweeperConfig with reasonable defaults.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  time.Hour,
		Retention: 7 * 24 * time.Hour,
	}
}

// Sweeper periodically deletes session attempts older than the
// retention horizon. Each sweep is idempotent and safe to run
// concurrently with attempt writes.
type Sweeper struct {
	attempts   store.AttemptStore
	config     SweeperConfig
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSweeper creates a new Sweeper.
func NewSweeper(attempts store.AttemptStore, config SweeperConfig, logger *slog.Logger) *Sweeper {
	if attempts == nil {
		panic("attempts cannot be nil")
	}
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	if config.Retention <= 0 {
		config.Retention = DefaultSweeperConfig().Retention
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		attempts:   attempts,
		config:     config,
		logger:     logger.With(slog.String("component", "attempt_sweeper")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the sweep loop. An initial sweep runs immediately so
// a long-stopped server catches up without waiting a full interval.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	s.logger.Info("attempt sweeper started",
		slog.Duration("interval", s.config.Interval),
		slog.Duration("retention", s.config.Retention))

	s.SweepOnce(s.ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(s.ctx)
		case <-s.ctx.Done():
			s.logger.Info("attempt sweeper stopped")
			return
		}
	}
}

// SweepOnce performs a single sweep, purging one user at a time so
// each delete stays bounded. Failures are logged and swallowed; the
// next tick retries.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.config.Retention)

	users, err := s.attempts.StaleUsers(ctx, cutoff)
	if err != nil {
		s.logger.Error("attempt sweep failed",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return
	}

	var deleted int64
	for _, userID := range users {
		n, err := s.attempts.Purge(ctx, userID, cutoff)
		if err != nil {
			// One user's failure must not starve the rest of the sweep.
			s.logger.Error("attempt purge failed",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.Time("cutoff", cutoff))
			continue
		}
		deleted += n
	}

	if deleted > 0 {
		s.logger.Info("attempt sweep completed",
			slog.Int64("deleted", deleted),
			slog.Int("users", len(users)),
			slog.Time("cutoff", cutoff))
	}
}

// Stop cancels the sweep loop and waits for the in-flight sweep to
// finish.
func (s *Sweeper) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}
