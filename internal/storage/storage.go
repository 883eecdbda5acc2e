package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage is a flat directory of uploaded blobs (avatars and message
// attachments), served read-only under /images.
type Storage struct {
	validator *PathValidator
}

func New(root string) (*Storage, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Storage{validator: validator}, nil
}

func (s *Storage) RootAbs() string {
	return s.validator.RootAbs()
}

// WriteFile writes through a temporary file and renames it into place so a
// reader never observes a partial image.
func (s *Storage) WriteFile(name string, data []byte) error {
	resolved, err := s.validator.ResolveName(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.validator.RootAbs(), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %q: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("rename into %q: %w", name, err)
	}

	return nil
}

// Remove deletes the named blob. A missing blob is not an error.
func (s *Storage) Remove(name string) error {
	resolved, err := s.validator.ResolveName(name)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", name, err)
	}

	return nil
}

func (s *Storage) Stat(name string) (fs.FileInfo, error) {
	resolved, err := s.validator.ResolveName(name)
	if err != nil {
		return nil, err
	}

	return os.Stat(resolved)
}

// FileSystem exposes the root for http.FileServer.
func (s *Storage) FileSystem() fs.FS {
	return os.DirFS(filepath.Clean(s.validator.RootAbs()))
}
