package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kozzy/chamados/internal/domain"
)

type areaRepository struct {
	pool *pgxpool.Pool
}

// NewAreaRepository builds the repository.
func NewAreaRepository(pool *pgxpool.Pool) AreaRepository {
	return &areaRepository{pool: pool}
}

func (r *areaRepository) ListForUser(ctx context.Context, userID string) ([]domain.Area, error) {
	const query = `SELECT area FROM area_assignments WHERE user_id=$1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Area
	for rows.Next() {
		var area domain.Area
		if err := rows.Scan(&area); err != nil {
			return nil, err
		}
		result = append(result, area)
	}
	return result, rows.Err()
}

// ReplaceForUser swaps the whole assignment in one transaction.
func (r *areaRepository) ReplaceForUser(ctx context.Context, userID string, areas []domain.Area) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM area_assignments WHERE user_id=$1`, userID); err != nil {
			return err
		}
		for _, area := range areas {
			if _, err := tx.Exec(ctx,
				`INSERT INTO area_assignments (user_id, area) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
				userID, area); err != nil {
				return err
			}
		}
		return nil
	})
}
