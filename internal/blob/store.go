// Package blob stores uploaded files and rendered page images under a
// configured media root. It is deliberately thin: the pipeline only needs
// "give me a readable path for this document" and "write these bytes".
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the media root. Rendered page images live under
// {root}/images.
func (s *Store) Root() string {
	return s.root
}

// SaveUpload writes an uploaded file under docs/ with a unique stored
// name and returns its path. The original name only contributes its
// extension; a UUID suffix prevents collisions between users uploading
// files with the same name.
func (s *Store) SaveUpload(r io.Reader, originalName string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	if stem == "" || stem == "." {
		stem = "upload"
	}
	name := fmt.Sprintf("%s-%s%s", stem, uuid.NewString(), filepath.Ext(originalName))
	path := filepath.Join(s.root, "docs", name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
