package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slugpoints/slugpoints-backend/internal/api/httpx"
	"github.com/slugpoints/slugpoints-backend/internal/middleware"
	"github.com/slugpoints/slugpoints-backend/internal/models"
	"github.com/slugpoints/slugpoints-backend/internal/services"
)

type Handlers struct {
	Users         *services.UserService
	Requests      *services.RequestService
	Points        *services.PointsService
	Notifications *services.NotificationService
}

// writeFailure translates a service error: OpErrors carry their own status
// and message, anything else is an internal fault surfaced generically.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var oe *services.OpError
	if errors.As(err, &oe) {
		httpx.WriteError(w, oe.Status, oe.Code, oe.Message)
		return
	}
	slog.Error("request failed", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
	httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return false
	}
	return true
}

// actingUser returns the authenticated user id. The auth middleware rejects
// unauthenticated requests before handlers run; the guard here covers
// misrouted handlers.
func actingUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.UserID(r.Context())
	if !ok || uid == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return "", false
	}
	return uid, true
}

// ---------- auth ----------

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	pair, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &req) {
		return
	}
	pair, err := h.Users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// ---------- requests ----------

func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := actingUser(w, r); !ok {
		return
	}
	out, err := h.Requests.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	// Fields stay untyped here; the lifecycle validates before anything is
	// persisted.
	var req struct {
		Location        any `json:"location"`
		PointsRequested any `json:"points_requested"`
		Message         any `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	created, err := h.Requests.Create(r.Context(), uid, req.Location, req.PointsRequested, req.Message)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handlers) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := h.Requests.Delete(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	if _, err := h.Requests.Accept(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := h.Requests.Decline(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ---------- points ----------

func (h *Handlers) GetPoints(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	b, err := h.Points.Current(r.Context(), uid)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"balance": b.Balance})
}

func (h *Handlers) SetPoints(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Balance any `json:"balance"`
	}
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Points.Set(r.Context(), uid, req.Balance)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"balance": b.Balance})
}

// ---------- notifications ----------

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	out, err := h.Notifications.ListByUser(r.Context(), uid)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req struct {
		NotificationID any  `json:"notification_id"`
		Read           bool `json:"read"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Notifications.MarkRead(r.Context(), uid, req.NotificationID, req.Read)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, n)
}

// ---------- locations ----------

func (h *Handlers) ListLocations(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, models.DiningLocations)
}
