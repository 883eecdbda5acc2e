package util

import (
	"strings"
	"unicode"

	"go-live-chatroom/pkg/apierror"
)

const (
	MaxChatroomNameRunes = 64
	MaxFullnameRunes     = 100
	MaxMessageRunes      = 4000
)

// SanitizeName cleans a single-line display value such as a chatroom name or
// a user's full name: control and invisible characters are dropped, runs of
// whitespace collapse to one space, and the result is truncated to maxRunes.
func SanitizeName(field string, value string, maxRunes int) (string, error) {
	builder := strings.Builder{}
	builder.Grow(len(value))

	for _, char := range value {
		if (unicode.IsControl(char) && !unicode.IsSpace(char)) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.Join(strings.Fields(builder.String()), " ")
	if cleaned == "" {
		return "", apierror.InvalidInput(field+" cannot be empty", "")
	}

	return truncateRunes(cleaned, maxRunes), nil
}

// SanitizeMessage keeps line breaks and tabs but removes every other control
// or invisible character. An empty result is allowed; callers decide whether
// an attachment makes up for missing text.
func SanitizeMessage(content string) (string, error) {
	builder := strings.Builder{}
	builder.Grow(len(content))

	for _, char := range content {
		if char == '\n' || char == '\t' {
			builder.WriteRune(char)
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())
	if len([]rune(cleaned)) > MaxMessageRunes {
		return "", apierror.InvalidInput("message is too long", "maximum 4000 characters")
	}

	return cleaned, nil
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF': // BOM
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
