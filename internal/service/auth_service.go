package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/pkg/apierror"
)

const (
	defaultBcryptCost = 12
	minPasswordLength = 8
)

type AuthService struct {
	users      repository.UserStore
	sessions   *SessionManager
	bcryptCost int
}

func NewAuthService(users repository.UserStore, sessions *SessionManager) *AuthService {
	return &AuthService{users: users, sessions: sessions, bcryptCost: defaultBcryptCost}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.Session, error) {
	fullname := strings.TrimSpace(req.Fullname)
	email := strings.TrimSpace(req.Email)

	if fullname == "" {
		return model.Session{}, apierror.InvalidInput("fullname is required", "")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return model.Session{}, apierror.InvalidInput("email is invalid", email)
	}
	if len(req.Password) < minPasswordLength {
		return model.Session{}, apierror.InvalidInput("password is too short", "minimum 8 characters")
	}
	if req.Password != req.ConfirmPassword {
		return model.Session{}, apierror.InvalidInput("password and confirm password are not the same", "")
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return model.Session{}, apierror.Conflict("user already exists", email)
	}
	if !errors.Is(err, apierror.ErrNotFound) {
		return model.Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.Session{}, err
	}

	user, err := s.users.Create(ctx, model.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return model.Session{}, err
	}

	return s.open(user)
}

// Login fails with the same error whether the email is unknown or the
// password is wrong.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, apierror.ErrNotFound) {
		return model.Session{}, apierror.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return model.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.Session{}, apierror.Unauthenticated("invalid credentials")
	}

	return s.open(user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.AccessToken, error) {
	return s.sessions.Refresh(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, userID int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Auth(), nil
}

func (s *AuthService) open(user model.User) (model.Session, error) {
	tokens, err := s.sessions.Issue(user)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{User: user.Auth(), Tokens: tokens}, nil
}
