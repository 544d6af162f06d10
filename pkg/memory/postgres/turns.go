package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
)

// LogTurn implements [memory.Store]. It appends turn to the turns table.
func (s *Store) LogTurn(ctx context.Context, turn memory.Turn) error {
	const q = `
		INSERT INTO turns (user_text, assistant_text, source, started_at, latency_ns)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q,
		turn.UserText,
		turn.AssistantText,
		turn.Source,
		turn.StartedAt,
		turn.Latency.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("memory store: log turn: %w", err)
	}
	return nil
}

// RecentTurns implements [memory.Store]. It returns the n most recent turns,
// newest first.
func (s *Store) RecentTurns(ctx context.Context, n int) ([]memory.Turn, error) {
	const q = `
		SELECT id, user_text, assistant_text, source, started_at, latency_ns
		FROM   turns
		ORDER  BY started_at DESC
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("memory store: recent turns: %w", err)
	}
	return collectTurns(rows)
}

// TurnsOn implements [memory.SummaryStore]. It returns all turns logged on
// the given calendar day (UTC), oldest first.
func (s *Store) TurnsOn(ctx context.Context, day time.Time) ([]memory.Turn, error) {
	const q = `
		SELECT id, user_text, assistant_text, source, started_at, latency_ns
		FROM   turns
		WHERE  (started_at AT TIME ZONE 'UTC')::date = $1::date
		ORDER  BY started_at`

	rows, err := s.pool.Query(ctx, q, day.UTC())
	if err != nil {
		return nil, fmt.Errorf("memory store: turns on day: %w", err)
	}
	return collectTurns(rows)
}

// collectTurns scans pgx rows into a slice of Turn values.
func collectTurns(rows pgx.Rows) ([]memory.Turn, error) {
	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (memory.Turn, error) {
		var (
			t         memory.Turn
			latencyNS int64
		)
		if err := row.Scan(
			&t.ID,
			&t.UserText,
			&t.AssistantText,
			&t.Source,
			&t.StartedAt,
			&latencyNS,
		); err != nil {
			return memory.Turn{}, err
		}
		t.Latency = time.Duration(latencyNS)
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("memory store: scan rows: %w", err)
	}
	if turns == nil {
		turns = []memory.Turn{}
	}
	return turns, nil
}
