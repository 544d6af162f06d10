package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default supervision parameters.
const (
	defaultMaxRetries  = 10
	defaultBackoff     = 1 * time.Second
	defaultMaxBackoff  = 30 * time.Second
	defaultHealthySpan = 1 * time.Minute
)

// SupervisorConfig configures a [Supervisor].
type SupervisorConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// MaxRetries is the number of consecutive failed restarts before the
	// supervisor gives up. Defaults to 10 if zero.
	MaxRetries int

	// Backoff is the initial delay between restarts. Doubles each attempt up
	// to MaxBackoff. Defaults to 1s if zero.
	Backoff time.Duration

	// MaxBackoff is the upper limit on the restart delay. Defaults to 30s if
	// zero.
	MaxBackoff time.Duration

	// HealthySpan is how long a run must last for the retry budget and
	// backoff to reset. Defaults to 1m if zero.
	HealthySpan time.Duration
}

func (c SupervisorConfig) withDefaults() SupervisorConfig {
	if c.Name == "" {
		c.Name = "supervisor"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.HealthySpan <= 0 {
		c.HealthySpan = defaultHealthySpan
	}
	return c
}

// Supervisor restarts a long-running function after transient failures with
// exponential backoff. The realtime session drops whenever the network does,
// so the conversation loop runs under supervision instead of taking the whole
// process down.
type Supervisor struct {
	cfg SupervisorConfig
}

// NewSupervisor creates a [Supervisor] with the given configuration.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	return &Supervisor{cfg: cfg.withDefaults()}
}

// Run executes fn and restarts it whenever it returns a non-cancellation
// error. Runs lasting at least HealthySpan reset the retry budget. Run
// returns nil when fn returns nil, ctx.Err() on cancellation, and the last
// failure once MaxRetries consecutive restarts have failed.
func (s *Supervisor) Run(ctx context.Context, fn func(context.Context) error) error {
	backoff := s.cfg.Backoff
	attempt := 0

	for {
		startedAt := time.Now()
		err := fn(ctx)

		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err == nil:
			return nil
		case errors.Is(err, context.Canceled):
			return err
		}

		if time.Since(startedAt) >= s.cfg.HealthySpan {
			attempt = 0
			backoff = s.cfg.Backoff
		}

		attempt++
		if attempt > s.cfg.MaxRetries {
			slog.Error("restart budget exhausted",
				"name", s.cfg.Name,
				"max_retries", s.cfg.MaxRetries,
				"error", err,
			)
			return fmt.Errorf("resilience: %s failed after %d restarts: %w", s.cfg.Name, s.cfg.MaxRetries, err)
		}

		slog.Warn("restarting after failure",
			"name", s.cfg.Name,
			"attempt", attempt,
			"max_retries", s.cfg.MaxRetries,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.cfg.MaxBackoff {
			backoff = s.cfg.MaxBackoff
		}
	}
}
