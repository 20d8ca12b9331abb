package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/slugpoints/slugpoints-backend/internal/config"
	"github.com/slugpoints/slugpoints-backend/internal/metrics"
	"github.com/slugpoints/slugpoints-backend/internal/middleware"
)

func NewRouter(cfg config.Config, h *Handlers, am *middleware.AuthMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Get("/locations", h.ListLocations)

		r.Group(func(r chi.Router) {
			r.Use(am.Auth)

			r.Get("/requests", h.ListRequests)
			r.Post("/requests", h.CreateRequest)
			r.Delete("/requests/{id}", h.DeleteRequest)
			r.Post("/requests/{id}/accept", h.AcceptRequest)
			r.Post("/requests/{id}/decline", h.DeclineRequest)

			r.Get("/points", h.GetPoints)
			r.Post("/points", h.SetPoints)

			r.Get("/notifications", h.ListNotifications)
			r.Patch("/notifications", h.MarkNotificationRead)
		})
	})

	return r
}
