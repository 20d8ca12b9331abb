package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/slugpoints/slugpoints-backend/internal/worker"
)

// NotificationService is the write-only sink the lifecycle emits into, plus
// the recipient-facing list/mark-read surface.
type NotificationService struct {
	r  repo.Notifications
	wp *worker.Pool
}

func NewNotificationService(r repo.Notifications, wp *worker.Pool) *NotificationService {
	return &NotificationService{r: r, wp: wp}
}

// Notify writes the notification off the request path. A failed write is
// logged and dropped; it must never affect the committed transition.
func (s *NotificationService) Notify(userID string, typ models.NotificationType, message string) {
	s.wp.Submit(func() {
		_, err := s.r.Create(context.Background(), models.Notification{
			UserID:  userID,
			Type:    typ,
			Message: message,
		})
		if err != nil {
			slog.Error("notification write failed", "user_id", userID, "type", typ, "err", err)
		}
	})
}

func (s *NotificationService) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.r.ListByUser(ctx, userID)
}

// MarkRead flips the read flag on the recipient's own notification.
// notificationID arrives untyped from the JSON body.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationID any, read bool) (models.Notification, error) {
	id, isString := notificationID.(string)
	if !isString || id == "" {
		return models.Notification{}, opError(http.StatusBadRequest, "invalid_input", "Notification ID is required")
	}

	n, err := s.r.MarkRead(ctx, id, userID, read)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Notification{}, opError(http.StatusNotFound, "not_found", "Notification not found")
	}
	return n, err
}
