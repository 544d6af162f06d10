package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt/mock"
)

func fastBreaker() FallbackConfig {
	return FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  2,
			ResetTimeout: 50 * time.Millisecond,
			HalfOpenMax:  1,
		},
	}
}

// ─── TestTranscriberFallback ──────────────────────────────────────────────────

func TestTranscriberFallback_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &mock.Transcriber{Result: "hello there"}
	backup := &mock.Transcriber{Result: "unused"}

	f := NewTranscriberFallback(primary, "primary", fastBreaker())
	f.AddFallback("backup", backup)

	got, err := f.Transcribe(context.Background(), []byte{1, 2}, 24000)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello there" {
		t.Errorf("text = %q; want %q", got, "hello there")
	}
	if backup.CallCount() != 0 {
		t.Errorf("backup called %d times; want 0", backup.CallCount())
	}
}

func TestTranscriberFallback_FailsOverToBackup(t *testing.T) {
	t.Parallel()

	primary := &mock.Transcriber{Err: errors.New("connection refused")}
	backup := &mock.Transcriber{Result: "from backup"}

	f := NewTranscriberFallback(primary, "primary", fastBreaker())
	f.AddFallback("backup", backup)

	got, err := f.Transcribe(context.Background(), []byte{1, 2}, 24000)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "from backup" {
		t.Errorf("text = %q; want %q", got, "from backup")
	}
}

func TestTranscriberFallback_AllFail(t *testing.T) {
	t.Parallel()

	primary := &mock.Transcriber{Err: errors.New("down")}
	backup := &mock.Transcriber{Err: errors.New("also down")}

	f := NewTranscriberFallback(primary, "primary", fastBreaker())
	f.AddFallback("backup", backup)

	_, err := f.Transcribe(context.Background(), []byte{1, 2}, 24000)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v; want ErrAllFailed", err)
	}
}

func TestTranscriberFallback_OpenBreakerSkipsPrimary(t *testing.T) {
	t.Parallel()

	primary := &mock.Transcriber{Err: errors.New("down")}
	backup := &mock.Transcriber{Result: "ok"}

	f := NewTranscriberFallback(primary, "primary", fastBreaker())
	f.AddFallback("backup", backup)

	// Trip the primary's breaker (MaxFailures = 2).
	for range 2 {
		if _, err := f.Transcribe(context.Background(), []byte{1}, 24000); err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
	}
	callsBefore := primary.CallCount()

	if _, err := f.Transcribe(context.Background(), []byte{1}, 24000); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if primary.CallCount() != callsBefore {
		t.Errorf("primary called with open breaker (%d → %d calls)", callsBefore, primary.CallCount())
	}
}

// ─── TestCircuitBreaker ───────────────────────────────────────────────────────

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 3, ResetTimeout: time.Hour})
	boom := errors.New("boom")

	for range 3 {
		_ = cb.Execute(func() error { return boom })
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v; want open", got)
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute on open breaker = %v; want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 2, ResetTimeout: time.Hour})
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return boom })

	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v; want closed after interleaved success", got)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "test",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  1,
	})

	_ = cb.Execute(func() error { return errors.New("boom") })
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v; want open", got)
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v; want closed after successful probe", got)
	}
}
