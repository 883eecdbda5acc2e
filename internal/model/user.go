package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Fullname     string    `json:"fullname"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatar_url"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the projection carried in presence and typing payloads.
type PublicUser struct {
	ID        int64  `json:"id"`
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar_url"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Fullname: u.Fullname, AvatarURL: u.AvatarURL}
}

type AuthUser struct {
	ID        int64  `json:"id"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (u User) Auth() AuthUser {
	return AuthUser{ID: u.ID, Fullname: u.Fullname, Email: u.Email, AvatarURL: u.AvatarURL}
}

type AuthClaims struct {
	UserID    int64     `json:"sub"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"exp"`
}

type TokenPair struct {
	AccessToken      string    `json:"-"`
	RefreshToken     string    `json:"-"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type AccessToken struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Session struct {
	User   AuthUser  `json:"user"`
	Tokens TokenPair `json:"-"`
}
