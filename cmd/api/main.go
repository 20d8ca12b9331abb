package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slugpoints/slugpoints-backend/internal/api"
	"github.com/slugpoints/slugpoints-backend/internal/auth"
	"github.com/slugpoints/slugpoints-backend/internal/config"
	"github.com/slugpoints/slugpoints-backend/internal/db"
	"github.com/slugpoints/slugpoints-backend/internal/logger"
	"github.com/slugpoints/slugpoints-backend/internal/metrics"
	"github.com/slugpoints/slugpoints-backend/internal/middleware"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/slugpoints/slugpoints-backend/internal/repository/memory"
	"github.com/slugpoints/slugpoints-backend/internal/repository/postgres"
	"github.com/slugpoints/slugpoints-backend/internal/services"
	"github.com/slugpoints/slugpoints-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		users         repo.Users
		requests      repo.Requests
		points        repo.Points
		notifications repo.Notifications
		pool          *pgxpool.Pool
	)

	if cfg.Store == "memory" {
		log.Warn("using in-memory store; state is lost on restart")
		repos := memory.NewRepositories(memory.NewStore())
		users, requests, points, notifications = repos.Users, repos.Requests, repos.Points, repos.Notifications
	} else {
		var err error
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				log.Error("migrations", "err", err)
				os.Exit(1)
			}
		}
		repos := postgres.NewRepositories(pool)
		users, requests, points, notifications = repos.Users, repos.Requests, repos.Points, repos.Notifications
	}

	metrics.Init()
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	notificationSvc := services.NewNotificationService(notifications, wp)
	h := &api.Handlers{
		Users:         services.NewUserService(users, tm),
		Requests:      services.NewRequestService(requests, points, users, notificationSvc),
		Points:        services.NewPointsService(points),
		Notifications: notificationSvc,
	}

	r := api.NewRouter(cfg, h, middleware.NewAuthMiddleware(tm, cfg.Env))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
