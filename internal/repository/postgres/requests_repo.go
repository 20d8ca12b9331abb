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

type requestsRepo struct{ pool *pgxpool.Pool }

const requestColumns = `
	r.id, r.requester_id, r.donor_id, r.location, r.points_requested,
	r.message, r.status, r.created_at, r.updated_at,
	req.id, req.name, req.email,
	don.id, don.name, don.email`

const requestJoins = `
	FROM requests r
	JOIN users req ON req.id = r.requester_id
	LEFT JOIN users don ON don.id = r.donor_id`

func scanRequest(row pgx.Row) (models.Request, error) {
	var rq models.Request
	var requester models.UserRef
	var donorID, donorName, donorEmail *string
	err := row.Scan(
		&rq.ID, &rq.RequesterID, &rq.DonorID, &rq.Location, &rq.PointsRequested,
		&rq.Message, &rq.Status, &rq.CreatedAt, &rq.UpdatedAt,
		&requester.ID, &requester.Name, &requester.Email,
		&donorID, &donorName, &donorEmail,
	)
	if err != nil {
		return models.Request{}, err
	}
	rq.Requester = &requester
	if donorID != nil {
		rq.Donor = &models.UserRef{ID: *donorID, Name: *donorName, Email: *donorEmail}
	}
	return rq, nil
}

func (r *requestsRepo) Create(ctx context.Context, req models.Request) (models.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO requests(id, requester_id, location, points_requested, message, status)
		 VALUES($1,$2,$3,$4,$5,$6)`,
		req.ID, req.RequesterID, req.Location, req.PointsRequested, req.Message, req.Status,
	)
	if err != nil {
		return models.Request{}, err
	}
	return r.GetByID(ctx, req.ID)
}

func (r *requestsRepo) GetByID(ctx context.Context, id string) (models.Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+requestColumns+requestJoins+` WHERE r.id=$1`, id)
	rq, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Request{}, repo.ErrNotFound
	}
	return rq, err
}

func (r *requestsRepo) List(ctx context.Context) ([]models.Request, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+requestColumns+requestJoins+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Request{}
	for rows.Next() {
		rq, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rq)
	}
	return out, rows.Err()
}

// Delete only removes a request that is still pending. A resolved request is
// terminal and stays on the ledger even if a stale delete arrives after a
// racing accept committed.
func (r *requestsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM requests WHERE id=$1 AND status='pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.pendingError(ctx, id)
	}
	return nil
}

func (r *requestsRepo) Resolve(ctx context.Context, id, donorID string, status models.RequestStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE requests SET status=$3, donor_id=$2, updated_at=now()
		  WHERE id=$1 AND status='pending'`,
		id, donorID, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.pendingError(ctx, id)
	}
	return nil
}

// Accept runs the transfer and status flip as one transaction. The status
// flip is conditioned on the request still being pending and the debit on the
// donor balance covering the amount, so two racing accepts can never both
// commit and the donor balance can never go negative. At read committed the
// loser of a race blocks on the row lock, re-evaluates the predicate after
// the winner commits, and matches zero rows, landing in the same pendingError
// branch a late accept hits; serializable would abort it with a
// serialization failure instead.
func (r *requestsRepo) Accept(ctx context.Context, id, donorID string) (models.Request, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return models.Request{}, err
	}
	defer tx.Rollback(ctx)

	var requesterID string
	var amount int64
	err = tx.QueryRow(ctx,
		`UPDATE requests SET status='accepted', donor_id=$2, updated_at=now()
		  WHERE id=$1 AND status='pending'
		  RETURNING requester_id, points_requested`,
		id, donorID,
	).Scan(&requesterID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Request{}, r.pendingError(ctx, id)
	}
	if err != nil {
		return models.Request{}, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE points SET balance = balance - $2, updated_at=now()
		  WHERE user_id=$1 AND balance >= $2`,
		donorID, amount,
	)
	if err != nil {
		return models.Request{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Request{}, repo.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO points(user_id, balance) VALUES($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET balance = points.balance + EXCLUDED.balance, updated_at=now()`,
		requesterID, amount,
	)
	if err != nil {
		return models.Request{}, err
	}

	// Read the joined row inside the transaction. Once the commit succeeds
	// the result is already in hand, so a read hiccup after the transfer is
	// durable cannot misreport it as failed.
	rq, err := scanRequest(tx.QueryRow(ctx, `SELECT`+requestColumns+requestJoins+` WHERE r.id=$1`, id))
	if err != nil {
		return models.Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Request{}, err
	}
	return rq, nil
}

// pendingError distinguishes a missing request from one already resolved
// after a conditional update matched no row.
func (r *requestsRepo) pendingError(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM requests WHERE id=$1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repo.ErrNotFound
	}
	return repo.ErrNotPending
}
