package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultMaxImageBytes = 5 << 20

// ErrImageTooLarge indicates the upload exceeded the configured limit.
var ErrImageTooLarge = errors.New("inventory: image exceeds size limit")

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ImageStore writes disc images to a local directory and serves them under
// the /uploads URL path. It stands in for the hosted blob service the
// original deployment used.
type ImageStore struct {
	dir      string
	maxBytes int64
}

// NewImageStore constructs an image store rooted at dir.
func NewImageStore(dir string) (*ImageStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("inventory: uploads directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inventory: create uploads directory: %w", err)
	}
	return &ImageStore{dir: dir, maxBytes: defaultMaxImageBytes}, nil
}

// Dir returns the directory backing the store.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes the image and returns its public URL path. The stored name is
// a fresh UUID so uploads never collide or overwrite.
func (s *ImageStore) Save(reader io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return "", fmt.Errorf("inventory: unsupported image extension %q", ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("inventory: create image file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, io.LimitReader(reader, s.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("inventory: write image: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(path)
		return "", ErrImageTooLarge
	}
	return "/uploads/" + name, nil
}
