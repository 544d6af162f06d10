// Package memory defines the persistence interfaces for the assistant's
// long-term state.
//
// Two concerns are covered:
//
//   - [Store]: remembered facts with embedding-based recall, plus the
//     turn-by-turn interaction log.
//   - [SummaryStore]: daily conversation summaries written by the
//     summariser and folded back into session instructions.
//
// Interfaces are public so alternative backends can be supplied; the
// canonical implementation lives in the postgres subpackage.
//
// Every implementation must be safe for concurrent use.
package memory

import (
	"context"
	"time"
)

// Store persists remembered facts and the interaction log.
type Store interface {
	// Remember stores text as a fact, embedding it for later recall.
	Remember(ctx context.Context, text string) error

	// Search returns up to limit memories most similar to query, ordered by
	// ascending distance. Returns an empty (non-nil) slice when nothing is
	// stored.
	Search(ctx context.Context, query string, limit int) ([]Memory, error)

	// LogTurn appends a completed exchange to the turn log.
	LogTurn(ctx context.Context, turn Turn) error

	// RecentTurns returns the n most recent turns, newest first.
	// Returns an empty (non-nil) slice when the log is empty.
	RecentTurns(ctx context.Context, n int) ([]Turn, error)
}

// SummaryStore persists daily conversation summaries.
type SummaryStore interface {
	// DaysPendingSummary returns the days (midnight UTC) that have logged
	// turns but no summary yet, excluding before. Typically before is the
	// current day, so that only finished days are summarised.
	DaysPendingSummary(ctx context.Context, before time.Time) ([]time.Time, error)

	// TurnsOn returns all turns logged on the given calendar day (UTC),
	// oldest first.
	TurnsOn(ctx context.Context, day time.Time) ([]Turn, error)

	// SaveSummary upserts a daily summary.
	SaveSummary(ctx context.Context, s DailySummary) error

	// RecentSummaries returns the n most recent summaries, newest first.
	RecentSummaries(ctx context.Context, n int) ([]DailySummary, error)
}
