package persistent_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/repo/persistent"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/google/uuid"
)

func newFSRepo(t *testing.T) (*persistent.ArtifactFSRepo, string) {
	t.Helper()

	dir := t.TempDir()

	repo, err := persistent.NewArtifactFSRepo(dir)
	if err != nil {
		t.Fatalf("NewArtifactFSRepo: %v", err)
	}
	return repo, dir
}

func TestFSLayoutCreated(t *testing.T) {
	_, dir := newFSRepo(t)

	for _, sub := range []string{"originals", "thumbnails"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil {
			t.Fatalf("stat %s: %v", sub, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", sub)
		}
	}
}

func TestFSUploadDownload(t *testing.T) {
	repo, dir := newFSRepo(t)
	ctx := context.Background()

	key := entity.OriginalKey(uuid.New())
	payload := []byte("png-bytes")

	if err := repo.Upload(ctx, key, bytes.NewReader(payload), "image/png", int64(len(payload))); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// the key maps straight onto the directory layout
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key))); err != nil {
		t.Fatalf("stat uploaded file: %v", err)
	}

	body, err := repo.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("io.ReadAll: %v", err)
	}
	if !bytes.Equal(b, payload) {
		t.Fatalf("downloaded %q, want %q", b, payload)
	}
}

func TestFSUploadBytesRoundTrip(t *testing.T) {
	repo, _ := newFSRepo(t)
	ctx := context.Background()

	key := entity.ThumbnailKey(uuid.New())

	if err := repo.UploadBytes(ctx, key, []byte("thumb"), "image/png"); err != nil {
		t.Fatalf("UploadBytes: %v", err)
	}

	b, err := repo.DownloadBytes(ctx, key)
	if err != nil {
		t.Fatalf("DownloadBytes: %v", err)
	}
	if string(b) != "thumb" {
		t.Fatalf("DownloadBytes = %q, want %q", b, "thumb")
	}
}

func TestFSMissingKey(t *testing.T) {
	repo, _ := newFSRepo(t)
	ctx := context.Background()

	key := entity.ThumbnailKey(uuid.New())

	if _, err := repo.Download(ctx, key); !errors.Is(err, errs.ErrArtifactMissing) {
		t.Fatalf("Download = %v, want ErrArtifactMissing", err)
	}
	if _, err := repo.DownloadBytes(ctx, key); !errors.Is(err, errs.ErrArtifactMissing) {
		t.Fatalf("DownloadBytes = %v, want ErrArtifactMissing", err)
	}
}

func TestFSDelete(t *testing.T) {
	repo, _ := newFSRepo(t)
	ctx := context.Background()

	key := entity.OriginalKey(uuid.New())

	if err := repo.UploadBytes(ctx, key, []byte("png-bytes"), "image/png"); err != nil {
		t.Fatalf("UploadBytes: %v", err)
	}
	if err := repo.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.DownloadBytes(ctx, key); !errors.Is(err, errs.ErrArtifactMissing) {
		t.Fatalf("DownloadBytes after Delete = %v, want ErrArtifactMissing", err)
	}

	// deleting a missing key is not an error
	if err := repo.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}
