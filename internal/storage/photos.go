// Package storage keeps ticket photo attachments on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotImage rejects uploads that are not supported image types.
	ErrNotImage = errors.New("storage: only jpeg, png, gif and webp images are accepted")
	// ErrTooLarge rejects uploads above the size limit.
	ErrTooLarge = errors.New("storage: file exceeds size limit")
	// ErrInvalidName rejects names that do not address a stored photo.
	ErrInvalidName = errors.New("storage: invalid file name")
	// ErrNotFound is returned when deleting a missing photo.
	ErrNotFound = errors.New("storage: file not found")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoStore writes uploads under dir and exposes them below publicPrefix.
type PhotoStore struct {
	dir          string
	publicPrefix string
	maxBytes     int64
}

// NewPhotoStore prepares dir for writing.
func NewPhotoStore(dir, publicPrefix string, maxBytes int) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &PhotoStore{
		dir:          dir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		maxBytes:     int64(maxBytes),
	}, nil
}

// Dir is the directory photos are written to.
func (s *PhotoStore) Dir() string { return s.dir }

// Save stores r under a generated name and returns its public path.
func (s *PhotoStore) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))]
	if !ok {
		return "", ErrNotImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}

	limit := s.maxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("write photo: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("close photo: %w", closeErr)
	case n > limit:
		_ = os.Remove(path)
		return "", ErrTooLarge
	}
	return s.publicPrefix + "/" + name, nil
}

// Delete removes a stored photo by file name.
func (s *PhotoStore) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validName(filename) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// FilenameFromURL extracts the stored file name from a public photo path.
// Paths outside the store yield false.
func (s *PhotoStore) FilenameFromURL(url string) (string, bool) {
	idx := strings.Index(url, s.publicPrefix+"/")
	if idx < 0 {
		return "", false
	}
	name := url[idx+len(s.publicPrefix)+1:]
	if !validName(name) {
		return "", false
	}
	return name, true
}

func validName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	for _, allowed := range imageExt {
		if ext == allowed {
			return true
		}
	}
	return false
}
