package leader

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zentra/emojimatch/internal/models"
)

// Store persists leaderboard entries
type Store interface {
	List(ctx context.Context, limit, offset int) ([]models.Leader, error)
	All(ctx context.Context) ([]models.Leader, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*models.Leader, error)
	Insert(ctx context.Context, sub models.LeaderSubmission) (*models.Leader, error)
	Delete(ctx context.Context, id int64) error
}

const leaderColumns = `id, username, "time", moves, seconds, "date"`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// List returns entries in insertion (id) order
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]models.Leader, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+leaderColumns+` FROM leaders ORDER BY id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaders: %w", err)
	}
	return collectLeaders(rows)
}

func (s *PostgresStore) All(ctx context.Context) ([]models.Leader, error) {
	rows, err := s.db.Query(ctx, `SELECT `+leaderColumns+` FROM leaders ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaders: %w", err)
	}
	return collectLeaders(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM leaders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leaders: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.Leader, error) {
	var l models.Leader
	err := s.db.QueryRow(ctx,
		`SELECT `+leaderColumns+` FROM leaders WHERE id = $1`, id,
	).Scan(&l.ID, &l.Username, &l.Time, &l.Moves, &l.Seconds, &l.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeaderNotFound
		}
		return nil, fmt.Errorf("failed to fetch leader: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) Insert(ctx context.Context, sub models.LeaderSubmission) (*models.Leader, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO leaders (username, "time", moves, seconds, "date")
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		*sub.Username, *sub.Time, *sub.Moves, *sub.Seconds, *sub.Date,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to save leader: %w", err)
	}

	l := sub.WithID(id)
	return &l, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM leaders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leader: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaderNotFound
	}
	return nil
}

func collectLeaders(rows pgx.Rows) ([]models.Leader, error) {
	leaders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Leader, error) {
		var l models.Leader
		err := row.Scan(&l.ID, &l.Username, &l.Time, &l.Moves, &l.Seconds, &l.Date)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan leaders: %w", err)
	}
	if leaders == nil {
		leaders = []models.Leader{}
	}
	return leaders, nil
}
