// Package postgres provides the PostgreSQL-backed implementation of the
// memory interfaces. Remembered facts live in a pgvector-indexed memories
// table; the interaction log and daily summaries are plain relational tables.
//
// The pgvector extension must be available in the target database; [Migrate]
// installs it via CREATE EXTENSION IF NOT EXISTS.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, embedder)
//	if err != nil { … }
//	defer store.Close()
//
//	_ = store.Remember(ctx, "my front door key is under the blue pot")
//	hits, _ := store.Search(ctx, "where is my key", 3)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlTurns holds the interaction log and summary DDL. These tables carry no
// vectors and need no extension.
const ddlTurns = `
CREATE TABLE IF NOT EXISTS turns (
    id             BIGSERIAL    PRIMARY KEY,
    user_text      TEXT         NOT NULL,
    assistant_text TEXT         NOT NULL DEFAULT '',
    source         TEXT         NOT NULL DEFAULT 'realtime',
    started_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
    latency_ns     BIGINT       NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_turns_started_at
    ON turns (started_at);

CREATE TABLE IF NOT EXISTS daily_summaries (
    day         DATE         PRIMARY KEY,
    summary     TEXT         NOT NULL,
    tags        TEXT[]       NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// ddlMemories returns the memories DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlMemories(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS memories (
    id          BIGSERIAL    PRIMARY KEY,
    text        TEXT         NOT NULL,
    embedding   vector(%d),
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_memories_embedding
    ON memories USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required tables and extensions exist. It is
// idempotent and safe to call on every application start.
//
// embeddingDimensions must match the configured embedding model (1536 for
// OpenAI text-embedding-3-small). Changing it after the first migration
// requires a manual schema update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlMemories(embeddingDimensions),
		ddlTurns,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
