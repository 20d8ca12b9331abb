package repository

import (
	"context"
	"errors"

	"github.com/slugpoints/slugpoints-backend/internal/models"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrNotPending          = errors.New("request is not pending")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Users interface {
	Create(ctx context.Context, email, name, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Requests interface {
	Create(ctx context.Context, req models.Request) (models.Request, error)
	// GetByID returns the request with requester and donor identity attached.
	GetByID(ctx context.Context, id string) (models.Request, error)
	// List returns all requests, newest first, with identities attached.
	List(ctx context.Context) ([]models.Request, error)
	Delete(ctx context.Context, id string) error

	// Resolve flips a pending request to the given terminal status and
	// records the donor. Returns ErrNotPending if the request has already
	// left pending, ErrNotFound if it no longer exists.
	Resolve(ctx context.Context, id, donorID string, status models.RequestStatus) error

	// Accept atomically flips the request to accepted, debits the donor and
	// credits the requester by the requested points. The status flip is
	// conditioned on status still being pending and the debit on the donor
	// balance covering the amount; either guard failing aborts the whole
	// transaction (ErrNotPending / ErrInsufficientBalance).
	Accept(ctx context.Context, id, donorID string) (models.Request, error)
}

type Points interface {
	// GetOrCreate returns the user's balance row, creating it at 0 if
	// absent. Safe under concurrent calls for the same user.
	GetOrCreate(ctx context.Context, userID string) (models.PointsBalance, error)
	Get(ctx context.Context, userID string) (models.PointsBalance, error)
	// Set overwrites the balance, creating the row if absent.
	Set(ctx context.Context, userID string, balance int64) (models.PointsBalance, error)
}

type Notifications interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	// MarkRead updates the read flag of the recipient's own notification.
	MarkRead(ctx context.Context, id, userID string, read bool) (models.Notification, error)
}
