package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-live-chatroom/internal/config"
	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/repository"
	"go-live-chatroom/pkg/apierror"
)

type tokenKind string

const (
	accessToken  tokenKind = "access"
	refreshToken tokenKind = "refresh"
)

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies stateless access/refresh token pairs.
// It keeps no session table: a token is valid while its signature verifies
// and it has not expired.
type SessionManager struct {
	users         repository.UserStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type SessionOption func(*SessionManager)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

func NewSessionManager(users repository.UserStore, cfg config.TokenConfig, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		users:         users,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) Issue(user model.User) (model.TokenPair, error) {
	now := m.now().UTC()

	access, accessExp, err := m.sign(accessToken, user, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, refreshExp, err := m.sign(refreshToken, user, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *SessionManager) VerifyAccess(token string) (*model.AuthClaims, error) {
	return m.verify(accessToken, token)
}

// Refresh mints a new access token for the subject of a valid refresh token.
// The refresh token itself is not rotated and stays valid until it expires.
func (m *SessionManager) Refresh(ctx context.Context, token string) (model.AccessToken, error) {
	claims, err := m.verify(refreshToken, token)
	if err != nil {
		return model.AccessToken{}, err
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, apierror.ErrNotFound) {
		return model.AccessToken{}, m.reject(refreshToken, model.ErrUserVanished, "user_id", claims.UserID)
	}
	if err != nil {
		return model.AccessToken{}, err
	}

	signed, exp, err := m.sign(accessToken, user, m.now().UTC())
	if err != nil {
		return model.AccessToken{}, err
	}

	return model.AccessToken{Token: signed, ExpiresAt: exp}, nil
}

func (m *SessionManager) sign(kind tokenKind, user model.User, now time.Time) (string, time.Time, error) {
	secret, ttl := m.accessSecret, m.accessTTL
	if kind == refreshToken {
		secret, ttl = m.refreshSecret, m.refreshTTL
	}

	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Username: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *SessionManager) verify(kind tokenKind, raw string) (*model.AuthClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, m.reject(kind, model.ErrTokenMissing)
	}

	secret := m.accessSecret
	if kind == refreshToken {
		secret = m.refreshSecret
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, m.reject(kind, model.ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, m.reject(kind, model.ErrTokenSignature)
	case err != nil:
		return nil, m.reject(kind, model.ErrTokenMalformed, "error", err.Error())
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, m.reject(kind, model.ErrTokenMalformed, "subject", claims.Subject)
	}

	return &model.AuthClaims{
		UserID:    userID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// reject logs the specific reason and returns the one error callers see.
func (m *SessionManager) reject(kind tokenKind, reason error, attrs ...any) error {
	slog.Warn("token rejected", append([]any{"token", string(kind), "reason", reason.Error()}, attrs...)...)
	return apierror.Unauthenticated("invalid or expired token")
}
