package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Column names mirror the JSON fields. Keyword-like names are quoted and
// index is stored as idx.
const emojiSchema = `
CREATE TABLE IF NOT EXISTS emojis (
    id          BIGINT PRIMARY KEY,
    "character" TEXT NOT NULL,
    name        TEXT NOT NULL,
    hexadecimal TEXT NOT NULL,
    "decimal"   TEXT NOT NULL,
    idx         INTEGER NOT NULL,
    show        BOOLEAN,
    checked     BOOLEAN
);

CREATE INDEX IF NOT EXISTS emojis_idx_id ON emojis (idx, id);
`

const leaderSchema = `
CREATE TABLE IF NOT EXISTS leaders (
    id       BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    "time"   TEXT NOT NULL,
    moves    INTEGER NOT NULL,
    seconds  INTEGER NOT NULL,
    "date"   TEXT NOT NULL
);
`

// EnsureSchema creates the tables the service needs. Safe to run on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for name, ddl := range map[string]string{"emojis": emojiSchema, "leaders": leaderSchema} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create %s schema: %w", name, err)
		}
	}
	log.Info().Msg("Database schema is up to date")
	return nil
}
