package postgres

import (
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Users         repo.Users
	Requests      repo.Requests
	Points        repo.Points
	Notifications repo.Notifications
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:         &usersRepo{pool},
		Requests:      &requestsRepo{pool},
		Points:        &pointsRepo{pool},
		Notifications: &notificationsRepo{pool},
	}
}
