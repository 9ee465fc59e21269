// Package media stores uploaded attachments and returns durable URLs. The
// Store interface is the boundary; DiskStore is the bundled implementation.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrBadDataURL = errors.New("malformed data url")

// Store uploads client-supplied data URLs and deletes stored objects by the
// URL previously returned.
type Store interface {
	Upload(ctx context.Context, dataURL string) (string, error)
	Delete(ctx context.Context, url string) error
}

// DiskStore writes objects under dir and serves them under baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the backing directory, for static file serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Upload decodes a base64 data URL, sniffs the real content type, and stores
// the object under a fresh name. The declared media type in the URL is not
// trusted.
func (s *DiskStore) Upload(ctx context.Context, dataURL string) (string, error) {
	payload, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	ext := mimetype.Detect(payload).Extension()
	if ext == "" {
		ext = ".bin"
	}
	name := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, name), payload, 0o644); err != nil {
		return "", fmt.Errorf("store object: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes the object a URL points at. A missing object is not an
// error; deletes may repeat.
func (s *DiskStore) Delete(ctx context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" || strings.Contains(name, "..") {
		return ErrBadDataURL
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// decodeDataURL strips the "data:<type>;base64," prefix and decodes the rest.
func decodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, ErrBadDataURL
	}
	idx := strings.Index(dataURL, ",")
	if idx < 0 || !strings.HasSuffix(dataURL[:idx], ";base64") {
		return nil, ErrBadDataURL
	}
	payload, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		return nil, ErrBadDataURL
	}
	if len(payload) == 0 {
		return nil, ErrBadDataURL
	}
	return payload, nil
}
