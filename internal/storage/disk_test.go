package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isdelr/blog-be/internal/config"
)

func TestDiskStorageCreatesDirectoryOnFirstPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	disk := NewDiskStorage(dir)
	ctx := context.Background()

	if err := disk.Put(ctx, "cat.png", strings.NewReader("meow"), 4, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "cat.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "meow" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestDiskStorageOverwritesAndDeletes(t *testing.T) {
	disk := NewDiskStorage(t.TempDir())
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		if err := disk.Put(ctx, "a.txt", strings.NewReader(body), int64(len(body)), ""); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	rc, err := disk.Get(ctx, "a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}

	if err := disk.Delete(ctx, "a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := disk.Get(ctx, "a.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestDiskStorageHidesDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "drafts"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := NewDiskStorage(dir).Get(context.Background(), "drafts"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound for a directory, got %v", err)
	}
}

func TestDiskStorageKeepsKeysInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	disk := NewDiskStorage(dir)

	if err := disk.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); !os.IsNotExist(err) {
		t.Fatal("key escaped the upload directory")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Fatalf("expected file inside upload dir: %v", err)
	}
	if err := disk.Put(context.Background(), "..", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "up")
	s, err := New(context.Background(), config.UploadConfig{Backend: "disk", Dir: dir})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got, ok := s.LocalDir(); !ok || got != dir {
		t.Fatalf("expected local dir %q, got %q (%v)", dir, got, ok)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}

	if _, err := New(context.Background(), config.UploadConfig{Backend: "ftp"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := New(context.Background(), config.UploadConfig{Backend: "minio"}); err == nil {
		t.Fatal("expected error for minio without endpoint")
	}
}

func TestImageContentType(t *testing.T) {
	tests := []struct {
		key, given, want string
	}{
		{"cat.png", "image/webp", "image/webp"},
		{"cat.png", "", "image/png"},
		{"cat", " ", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := imageContentType(tt.key, tt.given); got != tt.want {
			t.Fatalf("imageContentType(%q, %q) = %q, want %q", tt.key, tt.given, got, tt.want)
		}
	}
}
