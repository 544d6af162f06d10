package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
)

// DaysPendingSummary implements [memory.SummaryStore]. It returns the days
// that have logged turns but no summary yet, excluding before and later.
func (s *Store) DaysPendingSummary(ctx context.Context, before time.Time) ([]time.Time, error) {
	const q = `
		SELECT DISTINCT (started_at AT TIME ZONE 'UTC')::date AS day
		FROM   turns
		WHERE  (started_at AT TIME ZONE 'UTC')::date < $1::date
		  AND  (started_at AT TIME ZONE 'UTC')::date NOT IN (SELECT day FROM daily_summaries)
		ORDER  BY day`

	rows, err := s.pool.Query(ctx, q, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("memory store: days pending summary: %w", err)
	}

	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (time.Time, error) {
		var day time.Time
		err := row.Scan(&day)
		return day, err
	})
	if err != nil {
		return nil, fmt.Errorf("memory store: scan rows: %w", err)
	}
	if days == nil {
		days = []time.Time{}
	}
	return days, nil
}

// SaveSummary implements [memory.SummaryStore]. It upserts a daily summary.
func (s *Store) SaveSummary(ctx context.Context, sum memory.DailySummary) error {
	const q = `
		INSERT INTO daily_summaries (day, summary, tags, created_at)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (day) DO UPDATE SET
		    summary    = EXCLUDED.summary,
		    tags       = EXCLUDED.tags,
		    created_at = EXCLUDED.created_at`

	createdAt := sum.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, q, sum.Day.UTC(), sum.Summary, sum.Tags, createdAt)
	if err != nil {
		return fmt.Errorf("memory store: save summary: %w", err)
	}
	return nil
}

// RecentSummaries implements [memory.SummaryStore]. It returns the n most
// recent summaries, newest first.
func (s *Store) RecentSummaries(ctx context.Context, n int) ([]memory.DailySummary, error) {
	const q = `
		SELECT day, summary, tags, created_at
		FROM   daily_summaries
		ORDER  BY day DESC
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("memory store: recent summaries: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (memory.DailySummary, error) {
		var ds memory.DailySummary
		err := row.Scan(&ds.Day, &ds.Summary, &ds.Tags, &ds.CreatedAt)
		return ds, err
	})
	if err != nil {
		return nil, fmt.Errorf("memory store: scan rows: %w", err)
	}
	if summaries == nil {
		summaries = []memory.DailySummary{}
	}
	return summaries, nil
}
