package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
)

// Remember implements [memory.Store]. It embeds text and inserts it into the
// memories table.
func (s *Store) Remember(ctx context.Context, text string) error {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("memory store: embed: %w", err)
	}

	const q = `
		INSERT INTO memories (text, embedding)
		VALUES ($1, $2)`

	if _, err := s.pool.Exec(ctx, q, text, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("memory store: remember: %w", err)
	}
	return nil
}

// Search implements [memory.Store]. It embeds query and returns the limit
// closest memories by cosine distance, most similar first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]memory.Memory, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory store: embed query: %w", err)
	}

	const q = `
		SELECT id, text, created_at,
		       embedding <=> $1 AS distance
		FROM   memories
		ORDER  BY distance
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("memory store: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (memory.Memory, error) {
		var m memory.Memory
		err := row.Scan(&m.ID, &m.Text, &m.CreatedAt, &m.Distance)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("memory store: scan rows: %w", err)
	}
	if results == nil {
		results = []memory.Memory{}
	}
	return results, nil
}
