// Package blob keeps attachment payloads on disk, one file per random UUID.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

type Storage struct {
	dir string
}

func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the stream under a fresh UUID and returns it. A failed write
// leaves no partial file behind.
func (s *Storage) Save(r io.Reader) (uuid.UUID, error) {
	id := uuid.New()
	path := s.path(id)
	f, err := os.Create(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return uuid.Nil, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return uuid.Nil, fmt.Errorf("close blob: %w", err)
	}
	return id, nil
}

func (s *Storage) Open(id uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *Storage) Remove(id uuid.UUID) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *Storage) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String())
}
