package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/isdelr/blog-be/internal/storage"
	"github.com/rs/zerolog/log"
)

// UploadURLPrefix is the public path uploaded files are served under.
const UploadURLPrefix = "/uploads/"

// UploadServiceProvider defines the interface for upload services.
type UploadServiceProvider interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// UploadService stores uploaded images under their original file name.
// Uploading a name twice replaces the earlier file.
type UploadService struct {
	storage *storage.Storage
}

// NewUploadService creates a new UploadService.
func NewUploadService(storage *storage.Storage) *UploadService {
	return &UploadService{storage: storage}
}

// Save stores the file and returns the public URL it is served at.
func (s *UploadService) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	if err := s.storage.Put(ctx, name, r, size, contentType); err != nil {
		if derr := s.storage.Delete(ctx, name); derr != nil && !errors.Is(derr, storage.ErrObjectNotFound) {
			log.Warn().Err(derr).Str("name", name).Msg("UploadService: Failed to remove partial upload")
		}
		return "", fmt.Errorf("store upload %s: %w", name, err)
	}
	return UploadURLPrefix + url.PathEscape(name), nil
}

// Open returns the contents of a previously uploaded file.
func (s *UploadService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, err := objectName(name)
	if err != nil {
		return nil, ErrNotFound
	}
	rc, err := s.storage.Get(ctx, name)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	return rc, err
}

// objectName reduces a client supplied file name to its base name.
func objectName(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: invalid file name %q", ErrValidation, filename)
	}
	return name, nil
}
