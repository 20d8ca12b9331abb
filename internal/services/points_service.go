package services

import (
	"context"

	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/slugpoints/slugpoints-backend/internal/validation"
)

type PointsService struct{ r repo.Points }

func NewPointsService(r repo.Points) *PointsService { return &PointsService{r: r} }

// Current returns the user's balance, creating the row at 0 on first access.
func (s *PointsService) Current(ctx context.Context, userID string) (models.PointsBalance, error) {
	return s.r.GetOrCreate(ctx, userID)
}

// Set overwrites the user's balance. balance arrives untyped from the JSON
// body and must be a non-negative integral number.
func (s *PointsService) Set(ctx context.Context, userID string, balance any) (models.PointsBalance, error) {
	n, res := validation.ValidateSetBalance(balance)
	if !res.Valid {
		return models.PointsBalance{}, fromResult(res)
	}
	return s.r.Set(ctx, userID, n)
}
