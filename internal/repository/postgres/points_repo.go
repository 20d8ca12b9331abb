package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
)

type pointsRepo struct{ pool *pgxpool.Pool }

func (r *pointsRepo) GetOrCreate(ctx context.Context, userID string) (models.PointsBalance, error) {
	// ON CONFLICT DO NOTHING keeps concurrent first accesses from creating
	// duplicate rows; the unique key on user_id is the arbiter.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO points(user_id, balance) VALUES($1, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return models.PointsBalance{}, err
	}
	return r.Get(ctx, userID)
}

func (r *pointsRepo) Get(ctx context.Context, userID string) (models.PointsBalance, error) {
	var b models.PointsBalance
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, balance, created_at, updated_at FROM points WHERE user_id=$1`,
		userID,
	).Scan(&b.UserID, &b.Balance, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PointsBalance{}, repo.ErrNotFound
	}
	return b, err
}

func (r *pointsRepo) Set(ctx context.Context, userID string, balance int64) (models.PointsBalance, error) {
	var b models.PointsBalance
	err := r.pool.QueryRow(ctx,
		`INSERT INTO points(user_id, balance) VALUES($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance=EXCLUDED.balance, updated_at=now()
		 RETURNING user_id, balance, created_at, updated_at`,
		userID, balance,
	).Scan(&b.UserID, &b.Balance, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
