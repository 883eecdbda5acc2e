package model

import "errors"

var (
	// Session related errors. Callers only ever see Unauthenticated; these
	// name the reason in logs.
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrUserVanished   = errors.New("token subject no longer exists")

	// Attachment related errors
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)
