package persistent

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
)

const (
	originalsDir  = "originals"
	thumbnailsDir = "thumbnails"

	artifactFileMode = 0o644
)

// ArtifactFSRepo stores artifacts as plain files under dataDir, one
// directory for originals and one for thumbnails, each file named by
// its storage key.
type ArtifactFSRepo struct {
	dataDir string
}

func NewArtifactFSRepo(dataDir string) (*ArtifactFSRepo, error) {
	for _, dir := range []string{originalsDir, thumbnailsDir} {
		if err := os.MkdirAll(filepath.Join(dataDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("ArtifactFSRepo - New - os.MkdirAll: %w", err)
		}
	}

	return &ArtifactFSRepo{dataDir: dataDir}, nil
}

func (r *ArtifactFSRepo) path(key string) string {
	return filepath.Join(r.dataDir, filepath.FromSlash(key))
}

func (r *ArtifactFSRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	f, err := os.OpenFile(r.path(key), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return fmt.Errorf("ArtifactFSRepo - Upload - os.OpenFile: %w", err)
	}

	_, err = io.Copy(f, data)
	if err != nil {
		f.Close()

		return fmt.Errorf("ArtifactFSRepo - Upload - io.Copy: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("ArtifactFSRepo - Upload - f.Close: %w", err)
	}

	return nil
}

func (r *ArtifactFSRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	err := os.WriteFile(r.path(key), data, artifactFileMode)
	if err != nil {
		return fmt.Errorf("ArtifactFSRepo - UploadBytes - os.WriteFile: %w", err)
	}

	return nil
}

func (r *ArtifactFSRepo) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(r.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("ArtifactFSRepo - Download: %w", errs.ErrArtifactMissing)
		}
		return nil, fmt.Errorf("ArtifactFSRepo - Download - os.Open: %w", err)
	}

	return f, nil
}

func (r *ArtifactFSRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(r.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("ArtifactFSRepo - DownloadBytes: %w", errs.ErrArtifactMissing)
		}
		return nil, fmt.Errorf("ArtifactFSRepo - DownloadBytes - os.ReadFile: %w", err)
	}

	return b, nil
}

func (r *ArtifactFSRepo) Delete(ctx context.Context, key string) error {
	err := os.Remove(r.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ArtifactFSRepo - Delete - os.Remove: %w", err)
	}

	return nil
}
