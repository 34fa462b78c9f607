package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStorage keeps objects as plain files in one directory. Writing an
// existing key overwrites the file.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates a DiskStorage rooted at dir.
func NewDiskStorage(dir string) *DiskStorage {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	return &DiskStorage{dir: dir}
}

// EnsureBucket creates the directory if it is missing.
func (d *DiskStorage) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(d.dir, 0755)
}

// Put writes r to a file named key, creating the directory on first use.
func (d *DiskStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := d.EnsureBucket(ctx); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Get opens the file stored under key.
func (d *DiskStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		f.Close()
		if err != nil {
			return nil, err
		}
		return nil, ErrObjectNotFound
	}
	return f, nil
}

// Delete removes the file stored under key.
func (d *DiskStorage) Delete(ctx context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Bucket returns the directory name.
func (d *DiskStorage) Bucket() string {
	return d.dir
}

// Dir returns the directory objects are written to.
func (d *DiskStorage) Dir() string {
	return d.dir
}

// path keeps keys inside the directory.
func (d *DiskStorage) path(key string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + key))
	if name == "/" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.dir, name), nil
}
