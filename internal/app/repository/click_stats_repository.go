package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sifan077/PowerLink/internal/app/model"
)

// Querier is the subset of *pgxpool.Pool the stats repository reads through.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ClickStatsRepository reads aggregated click counts.
type ClickStatsRepository interface {
	CountByUser(ctx context.Context, username string) ([]model.LinkClicks, error)
}

type clickStatsRepository struct {
	db Querier
}

// NewClickStatsRepository returns a pgx-backed ClickStatsRepository.
func NewClickStatsRepository(db Querier) ClickStatsRepository {
	return &clickStatsRepository{db: db}
}

const countByUserSQL = `
SELECT link_id, COUNT(*) AS clicks, MAX(timestamp) AS last_at
FROM click_events
WHERE username = $1
GROUP BY link_id
ORDER BY link_id`

func (r *clickStatsRepository) CountByUser(ctx context.Context, username string) ([]model.LinkClicks, error) {
	rows, err := r.db.Query(ctx, countByUserSQL, username)
	if err != nil {
		return nil, fmt.Errorf("click stats: query: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LinkClicks, error) {
		var s model.LinkClicks
		err := row.Scan(&s.LinkID, &s.Clicks, &s.LastAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("click stats: scan: %w", err)
	}
	return stats, nil
}
