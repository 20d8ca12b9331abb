package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slugpoints/slugpoints-backend/internal/auth"
	"github.com/slugpoints/slugpoints-backend/internal/repository/memory"
)

func newUserService() *UserService {
	repos := memory.NewRepositories(memory.NewStore())
	tm := auth.NewTokenManager("access-secret", "refresh-secret", "slugpoints-test", 15*time.Minute, time.Hour)
	return NewUserService(repos.Users, tm)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "sammy@ucsc.edu", "Sammy Slug", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "sammy@ucsc.edu", u.Email)
	require.Equal(t, "Sammy Slug", u.Name)
	require.NotEmpty(t, u.ID)

	pair, err := svc.Login(ctx, "sammy@ucsc.edu", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Greater(t, pair.ExpiresIn, int64(0))

	_, err = svc.Login(ctx, "sammy@ucsc.edu", "wrong")
	requireOpError(t, err, 401, "Invalid email or password")

	_, err = svc.Login(ctx, "nobody@ucsc.edu", "hunter22")
	requireOpError(t, err, 401, "Invalid email or password")
}

func TestRegisterDefaultsNameFromEmail(t *testing.T) {
	svc := newUserService()

	u, err := svc.Register(context.Background(), "sammy@ucsc.edu", "", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "sammy", u.Name)
}

func TestRegisterRejections(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "Sammy", "hunter22")
	requireOpError(t, err, 400, "invalid email")

	_, err = svc.Register(ctx, "sammy@ucsc.edu", "Sammy", "")
	requireOpError(t, err, 400, "Password is required")

	_, err = svc.Register(ctx, "sammy@ucsc.edu", "Sammy", "hunter22")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "sammy@ucsc.edu", "Sammy Again", "hunter22")
	requireOpError(t, err, 400, "User with this email already exists")
}

func TestRefresh(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "sammy@ucsc.edu", "Sammy", "hunter22")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "sammy@ucsc.edu", "hunter22")
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, fresh.AccessToken)

	// an access token is not a refresh token
	_, err = svc.Refresh(ctx, pair.AccessToken)
	requireOpError(t, err, 401, "Invalid refresh token")

	_, err = svc.Refresh(ctx, "garbage")
	requireOpError(t, err, 401, "Invalid refresh token")
}
