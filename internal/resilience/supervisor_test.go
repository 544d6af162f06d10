package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastSupervisor(maxRetries int) *Supervisor {
	return NewSupervisor(SupervisorConfig{
		Name:        "test",
		MaxRetries:  maxRetries,
		Backoff:     time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
		HealthySpan: time.Hour,
	})
}

// ─── TestSupervisor ───────────────────────────────────────────────────────────

func TestSupervisor_CleanReturnStops(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastSupervisor(3).Run(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times; want 1", calls)
	}
}

func TestSupervisor_RestartsUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastSupervisor(5).Run(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("session dropped")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times; want 3", calls)
	}
}

func TestSupervisor_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	err := fastSupervisor(2).Run(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run = %v; want wrapped %v", err, boom)
	}
	// Initial run plus MaxRetries restarts.
	if calls != 3 {
		t.Errorf("fn called %d times; want 3", calls)
	}
}

func TestSupervisor_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	err := fastSupervisor(3).Run(ctx, func(context.Context) error {
		cancel()
		return errors.New("session dropped")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v; want context.Canceled", err)
	}
}

func TestSupervisor_HealthyRunResetsBudget(t *testing.T) {
	t.Parallel()

	s := NewSupervisor(SupervisorConfig{
		Name:        "test",
		MaxRetries:  1,
		Backoff:     time.Millisecond,
		MaxBackoff:  time.Millisecond,
		HealthySpan: 10 * time.Millisecond,
	})

	// Every run lasts longer than HealthySpan, so each failure is treated as
	// fresh and the single-retry budget never runs out.
	calls := 0
	err := s.Run(context.Background(), func(context.Context) error {
		calls++
		time.Sleep(15 * time.Millisecond)
		if calls < 4 {
			return errors.New("session dropped")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 4 {
		t.Errorf("fn called %d times; want 4", calls)
	}
}
