package imagestore

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
)

// Store writes uploaded entity images under a public base directory.
// Files are named <id>.png inside a per-kind subdirectory
// (product-images, staff-images), the convention existing asset URLs
// rely on; the relative path is returned so callers persist it on the
// entity record instead of re-deriving it from the id.
type Store struct {
	BaseDir string
}

func New(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

func (s *Store) path(kind string, id uint) string {
	return filepath.Join(s.BaseDir, kind, strconv.FormatUint(uint64(id), 10)+".png")
}

// Save streams the uploaded file into place and returns the stored
// path relative to BaseDir.
func (s *Store) Save(kind string, id uint, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("imagestore: open upload: %w", err)
	}
	defer src.Close()

	dstPath := s.path(kind, id)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", fmt.Errorf("imagestore: mkdir: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("imagestore: create: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("imagestore: write: %w", err)
	}

	rel, err := filepath.Rel(s.BaseDir, dstPath)
	if err != nil {
		return dstPath, nil
	}
	return rel, nil
}

// Remove deletes the stored image. A missing file is a no-op success so
// entity deletion never fails over an image that was never uploaded.
func (s *Store) Remove(kind string, id uint) error {
	err := os.Remove(s.path(kind, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("imagestore: remove: %w", err)
	}
	return nil
}
