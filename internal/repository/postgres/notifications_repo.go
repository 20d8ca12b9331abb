package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
)

type notificationsRepo struct{ pool *pgxpool.Pool }

func (r *notificationsRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications(id, user_id, type, message, read)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, user_id, type, message, read, created_at, updated_at`,
		n.ID, n.UserID, n.Type, n.Message, n.Read,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *notificationsRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, message, read, created_at, updated_at
		   FROM notifications
		  WHERE user_id=$1
		  ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationsRepo) MarkRead(ctx context.Context, id, userID string, read bool) (models.Notification, error) {
	var n models.Notification
	err := r.pool.QueryRow(ctx,
		`UPDATE notifications SET read=$3, updated_at=now()
		  WHERE id=$1 AND user_id=$2
		  RETURNING id, user_id, type, message, read, created_at, updated_at`,
		id, userID, read,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Notification{}, repo.ErrNotFound
	}
	return n, err
}
