package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/isdelr/blog-be/internal/config"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// uploadCacheControl is short since re-uploading a name replaces the image.
const uploadCacheControl = "public, max-age=300"

// GCSStorage keeps uploaded images in a Google Cloud Storage bucket.
type GCSStorage struct {
	client    *storage.Client
	images    *storage.BucketHandle
	name      string
	projectID string
}

// NewGCSStorage connects to the bucket named in cfg. Credentials come from
// cfg.CredentialsFile or, when empty, the ambient Google credentials.
func NewGCSStorage(ctx context.Context, cfg config.GCSConfig) (*GCSStorage, error) {
	name := strings.TrimSpace(cfg.Bucket)
	if name == "" {
		return nil, errors.New("gcs: upload bucket is required")
	}

	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}

	return &GCSStorage{
		client:    client,
		images:    client.Bucket(name),
		name:      name,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket creates the upload bucket when it does not exist yet.
// Creating a bucket needs a project id.
func (g *GCSStorage) EnsureBucket(ctx context.Context) error {
	_, err := g.images.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("gcs: inspect bucket %s: %w", g.name, err)
	case strings.TrimSpace(g.projectID) == "":
		return fmt.Errorf("gcs: bucket %s is missing and no project id is set to create it", g.name)
	}
	if err := g.images.Create(ctx, g.projectID, nil); err != nil {
		return fmt.Errorf("gcs: create bucket %s: %w", g.name, err)
	}
	return nil
}

// Put writes an uploaded image. An image with the same name is replaced.
func (g *GCSStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := g.images.Object(key).NewWriter(ctx)
	w.ContentType = imageContentType(key, contentType)
	w.CacheControl = uploadCacheControl
	if size > 0 && size < googleapi.DefaultUploadChunkSize {
		// Small images go up in a single request.
		w.ChunkSize = 0
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("gcs: upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: upload %s: %w", key, err)
	}
	return nil
}

// Get streams an uploaded image.
func (g *GCSStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := g.images.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", key, err)
	}
	return rc, nil
}

// Delete removes an uploaded image.
func (g *GCSStorage) Delete(ctx context.Context, key string) error {
	err := g.images.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("gcs: delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the upload bucket name.
func (g *GCSStorage) Bucket() string {
	return g.name
}
