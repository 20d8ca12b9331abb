package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slugpoints/slugpoints-backend/internal/auth"
	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
)

type UserService struct {
	r  repo.Users
	tm *auth.TokenManager
}

func NewUserService(r repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{r: r, tm: tm}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime, seconds
}

// Register creates an account. A missing name defaults to the email local
// part.
func (s *UserService) Register(ctx context.Context, email, name, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	u := models.User{Email: email, Name: name}
	if err := u.Validate(); err != nil {
		return models.User{}, opError(http.StatusBadRequest, "invalid_input", err.Error())
	}
	if password == "" {
		return models.User{}, opError(http.StatusBadRequest, "invalid_input", "Password is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	created, err := s.r.Create(ctx, u.Email, u.Name, hash)
	if errors.Is(err, repo.ErrDuplicateEmail) {
		return models.User{}, opError(http.StatusBadRequest, "invalid_input", "User with this email already exists")
	}
	return created, err
}

func (s *UserService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.r.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return TokenPair{}, opError(http.StatusUnauthorized, "unauthorized", "Invalid email or password")
	}
	if err != nil {
		return TokenPair{}, err
	}
	if auth.VerifyPassword(password, u.PasswordHash) != nil {
		return TokenPair{}, opError(http.StatusUnauthorized, "unauthorized", "Invalid email or password")
	}
	return s.tokenPair(u.ID)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *UserService) Refresh(_ context.Context, refreshToken string) (TokenPair, error) {
	claims, isRefresh, err := s.tm.ParseAny(refreshToken)
	if err != nil || !isRefresh {
		return TokenPair{}, opError(http.StatusUnauthorized, "unauthorized", "Invalid refresh token")
	}
	return s.tokenPair(claims.UserID)
}

func (s *UserService) GetByID(ctx context.Context, id string) (models.User, error) {
	u, err := s.r.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, opError(http.StatusNotFound, "not_found", "User not found")
	}
	return u, err
}

func (s *UserService) tokenPair(userID string) (TokenPair, error) {
	access, refresh, exp, err := s.tm.GeneratePair(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}
