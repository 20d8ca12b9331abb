package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/slugpoints/slugpoints-backend/internal/metrics"
	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/slugpoints/slugpoints-backend/internal/validation"
)

// RequestService owns the request lifecycle: pending on create, resolved to
// accepted (with the point transfer) or declined by a donor, or deleted by
// the requester while still pending.
type RequestService struct {
	requests repo.Requests
	points   repo.Points
	users    repo.Users
	notifier *NotificationService
}

func NewRequestService(r repo.Requests, p repo.Points, u repo.Users, n *NotificationService) *RequestService {
	return &RequestService{requests: r, points: p, users: u, notifier: n}
}

// load returns nil for a missing request so validation can produce the
// not-found result itself.
func (s *RequestService) load(ctx context.Context, id string) (*models.Request, error) {
	rq, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rq, nil
}

// Create validates the raw inputs and persists a new pending request.
// location and pointsRequested arrive untyped from the JSON body; nothing
// reaches the store without passing ParseCreateRequest.
func (s *RequestService) Create(ctx context.Context, requesterID string, location, pointsRequested, message any) (models.Request, error) {
	in, res := validation.ParseCreateRequest(location, pointsRequested, message)
	if !res.Valid {
		return models.Request{}, fromResult(res)
	}

	created, err := s.requests.Create(ctx, models.Request{
		RequesterID:     requesterID,
		Location:        in.Location,
		PointsRequested: in.PointsRequested,
		Message:         in.Message,
		Status:          models.RequestPending,
	})
	if err != nil {
		return models.Request{}, err
	}
	metrics.RequestsCreated.Inc()
	return created, nil
}

func (s *RequestService) List(ctx context.Context) ([]models.Request, error) {
	return s.requests.List(ctx)
}

// Delete removes the acting user's own pending request. No ledger effect:
// points never moved for a pending request.
func (s *RequestService) Delete(ctx context.Context, id, actingUserID string) error {
	rq, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if res := validation.ValidateDeleteRequest(rq, actingUserID); !res.Valid {
		return fromResult(res)
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		// A racing accept or decline can resolve the request between the
		// check above and the delete; the store refuses and the caller sees
		// the same rejection validation would have produced.
		if errors.Is(err, repo.ErrNotPending) {
			return opError(http.StatusBadRequest, "invalid_state", "You can only delete pending requests")
		}
		return fromRepoError(err)
	}
	return nil
}

// Accept resolves a pending request as the acting user and transfers the
// points. Validation runs against the current donor balance (created at 0 if
// absent); the repository re-checks both the pending status and the balance
// inside the transfer transaction, so a lost race surfaces as the same
// rejection a failed validation would have produced.
func (s *RequestService) Accept(ctx context.Context, id, actingUserID string) (models.Request, error) {
	rq, err := s.load(ctx, id)
	if err != nil {
		return models.Request{}, err
	}

	var donorBalance int64
	if rq != nil {
		b, err := s.points.GetOrCreate(ctx, actingUserID)
		if err != nil {
			return models.Request{}, err
		}
		donorBalance = b.Balance
	}

	if res := validation.ValidateAcceptRequest(rq, actingUserID, donorBalance); !res.Valid {
		return models.Request{}, fromResult(res)
	}

	accepted, err := s.requests.Accept(ctx, id, actingUserID)
	if err != nil {
		return models.Request{}, fromRepoError(err)
	}

	metrics.RequestsResolved.WithLabelValues("accepted").Inc()
	metrics.PointsTransferred.Add(float64(accepted.PointsRequested))
	s.notifyResolved(ctx, accepted, actingUserID, models.NotificationRequestAccepted)
	return accepted, nil
}

// Decline resolves a pending request without touching balances.
func (s *RequestService) Decline(ctx context.Context, id, actingUserID string) error {
	rq, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if res := validation.ValidateDeclineRequest(rq, actingUserID); !res.Valid {
		return fromResult(res)
	}
	if err := s.requests.Resolve(ctx, id, actingUserID, models.RequestDeclined); err != nil {
		return fromRepoError(err)
	}

	metrics.RequestsResolved.WithLabelValues("declined").Inc()
	rq.Status = models.RequestDeclined
	s.notifyResolved(ctx, *rq, actingUserID, models.NotificationRequestDeclined)
	return nil
}

func (s *RequestService) notifyResolved(ctx context.Context, rq models.Request, donorID string, typ models.NotificationType) {
	donorName := "Someone"
	if u, err := s.users.GetByID(ctx, donorID); err == nil {
		donorName = u.Name
	}

	verb := "accepted"
	if typ == models.NotificationRequestDeclined {
		verb = "declined"
	}
	msg := fmt.Sprintf("%s %s your request for %d points at %s.", donorName, verb, rq.PointsRequested, rq.Location)
	s.notifier.Notify(rq.RequesterID, typ, msg)
}
