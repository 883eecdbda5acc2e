package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go-live-chatroom/pkg/apierror"
)

// PathValidator maps a client-supplied object name onto a path inside the
// storage root.
type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

// ResolveName only accepts a single path segment; images never live in
// subdirectories.
func (v *PathValidator) ResolveName(name string) (string, error) {
	normalized := strings.TrimSpace(name)
	if normalized == "" || normalized == "." || normalized == ".." {
		return "", apierror.InvalidInput("object name is invalid", name)
	}

	if strings.ContainsAny(normalized, `/\`) {
		return "", apierror.InvalidInput("object name must not contain separators", name)
	}

	if hasControlCharacters(normalized) {
		return "", apierror.InvalidInput("object name contains invalid characters", name)
	}

	resolved, err := filepath.Abs(filepath.Join(v.rootAbs, normalized))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if !isWithinRoot(v.rootAbs, resolved) {
		return "", apierror.InvalidInput("resolved path is outside storage root", name)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	rootWithSeparator := rootAbs + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}
