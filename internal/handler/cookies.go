package handler

import (
	"net/http"
	"time"

	"go-live-chatroom/internal/middleware"
	"go-live-chatroom/internal/model"
)

// cookieWriter issues the HttpOnly session cookies. Secure is only set when
// the server sits behind TLS.
type cookieWriter struct {
	secure bool
}

func (c cookieWriter) session(w http.ResponseWriter, tokens model.TokenPair) {
	c.set(w, middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt)
	c.set(w, middleware.RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt)
}

func (c cookieWriter) access(w http.ResponseWriter, token model.AccessToken) {
	c.set(w, middleware.AccessTokenCookie, token.Token, token.ExpiresAt)
}

func (c cookieWriter) clear(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c cookieWriter) set(w http.ResponseWriter, name string, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
