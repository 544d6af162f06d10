package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every backend in a [FallbackGroup] either
// failed or had an open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures the circuit breaker created for each backend in
// a [FallbackGroup]. The Name field is overwritten per backend.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// FallbackGroup chains a primary and zero or more backup instances of one
// provider type. Each backend sits behind its own [CircuitBreaker]; calls go
// to the first backend whose breaker admits them, in registration order.
//
// FallbackGroup is safe for concurrent use once registration is done.
type FallbackGroup[T any] struct {
	names    []string
	backends []T
	breakers []*CircuitBreaker
	cfg      FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first
// backend. Backups are registered via [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a backup backend. Backups are tried in the order they
// are added, after the primary. Not safe to call concurrently with Execute.
func (fg *FallbackGroup[T]) AddFallback(name string, backend T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.names = append(fg.names, name)
	fg.backends = append(fg.backends, backend)
	fg.breakers = append(fg.breakers, NewCircuitBreaker(cbCfg))
}

// Execute tries fn against each backend in order until one succeeds. Backends
// with an open breaker are skipped. Returns [ErrAllFailed] wrapping the last
// error when no backend succeeds.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(backend T) (struct{}, error) {
		return struct{}{}, fn(backend)
	})
	return err
}

// ExecuteWithResult tries fn against each backend until one succeeds and
// returns its result. A package-level function because Go does not support
// method-level type parameters.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i, backend := range fg.backends {
		var result R
		err := fg.breakers[i].Execute(func() error {
			var callErr error
			result, callErr = fn(backend)
			return callErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping backend (circuit open)", "backend", fg.names[i])
		} else {
			slog.Warn("backend failed, trying next", "backend", fg.names[i], "error", err)
		}
	}

	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
