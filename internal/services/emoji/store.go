package emoji

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zentra/emojimatch/internal/models"
	"github.com/zentra/emojimatch/pkg/database"
)

// Store persists the emoji catalog
type Store interface {
	List(ctx context.Context) ([]models.Emoji, error)
	Get(ctx context.Context, id int64) (*models.Emoji, error)
	Create(ctx context.Context, e models.Emoji) error
	ReplaceAll(ctx context.Context, emojis []models.Emoji) error
	SetFlags(ctx context.Context, id int64, patch models.EmojiFlagsPatch) (*models.Emoji, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

const emojiColumns = `id, "character", name, hexadecimal, "decimal", idx, show, checked`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Emoji, error) {
	rows, err := s.db.Query(ctx, `SELECT `+emojiColumns+` FROM emojis ORDER BY idx ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emojis: %w", err)
	}
	defer rows.Close()

	emojis := []models.Emoji{}
	for rows.Next() {
		e, err := scanEmoji(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emoji: %w", err)
		}
		emojis = append(emojis, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emojis: %w", err)
	}
	return emojis, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.Emoji, error) {
	return getEmoji(ctx, s.db, id, false)
}

func (s *PostgresStore) Create(ctx context.Context, e models.Emoji) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO emojis (`+emojiColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Character, e.Name, e.Hexadecimal, e.Decimal, e.Index, e.Show, e.Checked,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmojiExists
		}
		return fmt.Errorf("failed to save emoji: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole catalog in one transaction
func (s *PostgresStore) ReplaceAll(ctx context.Context, emojis []models.Emoji) error {
	return database.WithTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM emojis`); err != nil {
			return fmt.Errorf("failed to clear emojis: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"emojis"},
			[]string{"id", "character", "name", "hexadecimal", "decimal", "idx", "show", "checked"},
			pgx.CopyFromSlice(len(emojis), func(i int) ([]any, error) {
				e := emojis[i]
				return []any{e.ID, e.Character, e.Name, e.Hexadecimal, e.Decimal, e.Index, e.Show, e.Checked}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to load emojis: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) SetFlags(ctx context.Context, id int64, patch models.EmojiFlagsPatch) (*models.Emoji, error) {
	var updated *models.Emoji
	err := database.WithTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		current, err := getEmoji(ctx, tx, id, true)
		if err != nil {
			return err
		}

		next := patch.Apply(*current)
		if _, err := tx.Exec(ctx,
			`UPDATE emojis SET show = $1, checked = $2 WHERE id = $3`,
			next.Show, next.Checked, id,
		); err != nil {
			return fmt.Errorf("failed to update emoji: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM emojis`); err != nil {
		return fmt.Errorf("failed to delete emojis: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM emojis`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count emojis: %w", err)
	}
	return count, nil
}

// --- internal helpers ---

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEmoji(ctx context.Context, q querier, id int64, forUpdate bool) (*models.Emoji, error) {
	sql := `SELECT ` + emojiColumns + ` FROM emojis WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	e, err := scanEmoji(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmojiNotFound
		}
		return nil, fmt.Errorf("failed to fetch emoji: %w", err)
	}
	return e, nil
}

func scanEmoji(row pgx.Row) (*models.Emoji, error) {
	var e models.Emoji
	if err := row.Scan(&e.ID, &e.Character, &e.Name, &e.Hexadecimal, &e.Decimal, &e.Index, &e.Show, &e.Checked); err != nil {
		return nil, err
	}
	return &e, nil
}
