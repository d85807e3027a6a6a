// Package storage writes uploaded media to disk under a configurable root.
// File names are derived from a random identifier so the caller-supplied
// name never reaches the filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

const uploadPrefix = "uploads/smartphone"

// NewID generates the random part of upload paths. Swapped out in tests to
// make paths deterministic.
var NewID = uuid.NewString

// UploadPath derives the storage-relative path for an uploaded file. The
// base name is discarded; only the extension (everything from the last dot,
// or nothing) survives next to a fresh identifier. No uniqueness check is
// performed, the 128-bit identifier space carries that burden.
func UploadPath(filename string) string {
	ext := path.Ext(filename)
	return path.Join(uploadPrefix, NewID()+ext)
}

type Store struct {
	root string
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Save streams src to a derived path and returns the storage-relative path.
func (s *Store) Save(filename string, src io.Reader) (string, error) {
	rel := UploadPath(filename)
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return rel, nil
}

// Remove deletes a previously saved file; a missing file is not an error.
func (s *Store) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
