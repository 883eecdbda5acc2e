package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/pkg/apierror"
)

func newAuthFixture(t *testing.T) (*AuthService, repository.Directory) {
	t.Helper()

	dir := repository.NewMemoryDirectory()
	auth := NewAuthService(dir.Users, NewSessionManager(dir.Users, testTokens))
	auth.bcryptCost = bcrypt.MinCost
	return auth, dir
}

func validRegistration() model.RegisterRequest {
	return model.RegisterRequest{
		Fullname:        " Ada Lovelace ",
		Email:           "ada@example.com",
		Password:        "analytical",
		ConfirmPassword: "analytical",
	}
}

func TestAuthRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates the user and opens a session", func(t *testing.T) {
		auth, dir := newAuthFixture(t)

		session, err := auth.Register(ctx, validRegistration())
		require.NoError(t, err)
		require.Equal(t, "Ada Lovelace", session.User.Fullname)
		require.NotEmpty(t, session.Tokens.AccessToken)
		require.NotEmpty(t, session.Tokens.RefreshToken)

		stored, err := dir.Users.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.NotEqual(t, "analytical", stored.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("analytical")))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		auth, _ := newAuthFixture(t)

		_, err := auth.Register(ctx, validRegistration())
		require.NoError(t, err)

		_, err = auth.Register(ctx, validRegistration())
		require.True(t, errors.Is(err, apierror.ErrConflict))
	})

	tcases := []struct {
		name   string
		mutate func(*model.RegisterRequest)
	}{
		{name: "missing fullname", mutate: func(r *model.RegisterRequest) { r.Fullname = "  " }},
		{name: "invalid email", mutate: func(r *model.RegisterRequest) { r.Email = "ada" }},
		{name: "display-name email", mutate: func(r *model.RegisterRequest) { r.Email = "Ada <ada@example.com>" }},
		{name: "short password", mutate: func(r *model.RegisterRequest) { r.Password, r.ConfirmPassword = "short", "short" }},
		{name: "mismatched confirmation", mutate: func(r *model.RegisterRequest) { r.ConfirmPassword = "different" }},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			auth, _ := newAuthFixture(t)
			req := validRegistration()
			tc.mutate(&req)

			_, err := auth.Register(ctx, req)
			require.True(t, errors.Is(err, apierror.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestAuthLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth, _ := newAuthFixture(t)
	registered, err := auth.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		session, err := auth.Login(ctx, model.LoginRequest{Email: "ADA@example.com", Password: "analytical"})
		require.NoError(t, err)
		require.Equal(t, registered.User.ID, session.User.ID)
	})

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		_, unknownErr := auth.Login(ctx, model.LoginRequest{Email: "bob@example.com", Password: "analytical"})
		_, wrongErr := auth.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})

		require.True(t, errors.Is(unknownErr, apierror.ErrUnauthenticated))
		require.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("me", func(t *testing.T) {
		me, err := auth.Me(ctx, registered.User.ID)
		require.NoError(t, err)
		require.Equal(t, "ada@example.com", me.Email)
	})
}

func TestAuthLoginDirectoryFailure(t *testing.T) {
	t.Parallel()

	users := &repository.MockUserStore{}
	defer users.AssertExpectations(t)
	users.On("FindByEmail", mock.Anything, "ada@example.com").Return(model.User{}, errors.New("connection reset")).Once()

	auth := NewAuthService(users, NewSessionManager(users, testTokens))
	_, err := auth.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "x"})
	require.Error(t, err)
	require.False(t, errors.Is(err, apierror.ErrUnauthenticated))
}

func TestAuthRefreshUsesStoredUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth, _ := newAuthFixture(t)
	session, err := auth.Register(ctx, validRegistration())
	require.NoError(t, err)

	access, err := auth.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	require.True(t, access.ExpiresAt.After(time.Now()))
}
