// Package mock provides in-memory implementations of the memory interfaces
// for use in unit tests. Search ignores embeddings and returns SearchResult
// verbatim, so tests control exactly which memories are recalled.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
)

// Compile-time interface checks.
var (
	_ memory.Store        = (*Store)(nil)
	_ memory.SummaryStore = (*Store)(nil)
)

// Store is a mock implementation of [memory.Store] and [memory.SummaryStore].
// Set the Result fields before use; inspect the recorded slices after.
type Store struct {
	mu sync.Mutex

	// SearchResult is returned by Search regardless of the query.
	SearchResult []memory.Memory

	// SearchErr is returned by Search.
	SearchErr error

	// RememberErr is returned by Remember.
	RememberErr error

	// LogTurnErr is returned by LogTurn.
	LogTurnErr error

	// PendingDays is returned by DaysPendingSummary.
	PendingDays []time.Time

	// Remembered records the text of every Remember call.
	Remembered []string

	// SearchQueries records the query of every Search call.
	SearchQueries []string

	// Turns records every turn passed to LogTurn.
	Turns []memory.Turn

	// Summaries records every summary passed to SaveSummary.
	Summaries []memory.DailySummary

	// TurnsByDay maps a day (formatted 2006-01-02) to the turns returned by
	// TurnsOn for that day.
	TurnsByDay map[string][]memory.Turn
}

// Remember records text and returns RememberErr.
func (s *Store) Remember(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Remembered = append(s.Remembered, text)
	return s.RememberErr
}

// Search records the query and returns SearchResult truncated to limit.
func (s *Store) Search(_ context.Context, query string, limit int) ([]memory.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchQueries = append(s.SearchQueries, query)
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	result := s.SearchResult
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	if result == nil {
		result = []memory.Memory{}
	}
	return result, nil
}

// LogTurn records the turn and returns LogTurnErr.
func (s *Store) LogTurn(_ context.Context, turn memory.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns = append(s.Turns, turn)
	return s.LogTurnErr
}

// RecentTurns returns the n most recently logged turns, newest first.
func (s *Store) RecentTurns(_ context.Context, n int) ([]memory.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []memory.Turn{}
	for i := len(s.Turns) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.Turns[i])
	}
	return result, nil
}

// DaysPendingSummary returns PendingDays.
func (s *Store) DaysPendingSummary(_ context.Context, _ time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PendingDays, nil
}

// TurnsOn returns the turns registered for day in TurnsByDay.
func (s *Store) TurnsOn(_ context.Context, day time.Time) ([]memory.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.TurnsByDay[day.UTC().Format("2006-01-02")]
	if turns == nil {
		turns = []memory.Turn{}
	}
	return turns, nil
}

// SaveSummary records the summary.
func (s *Store) SaveSummary(_ context.Context, sum memory.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Summaries = append(s.Summaries, sum)
	return nil
}

// RecentSummaries returns the n most recently saved summaries, newest first.
func (s *Store) RecentSummaries(_ context.Context, n int) ([]memory.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []memory.DailySummary{}
	for i := len(s.Summaries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.Summaries[i])
	}
	return result, nil
}

// TurnCount returns how many turns were logged.
func (s *Store) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Turns)
}
