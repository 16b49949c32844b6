package repo

import (
	"context"
	"io"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/google/uuid"
)

type (
	// JobStore is the status store: one record per job plus a global
	// index of all known job ids.
	JobStore interface {
		// Create inserts a new record and registers the id in the global
		// index. Returns errs.ErrJobAlreadyExists if the id is present.
		Create(ctx context.Context, job *entity.Job) error

		// GetByID returns the full record or errs.ErrJobNotFound.
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)

		// List returns a snapshot of every known job; ordering is
		// unspecified.
		List(ctx context.Context) ([]*entity.Job, error)

		// UpdateIfStatus writes job's fields only if the stored status
		// equals expected. Returns errs.ErrJobNotFound for unknown ids and
		// errs.ErrInvalidTransition when the stored status differs.
		UpdateIfStatus(ctx context.Context, job *entity.Job, expected entity.Status) error

		// Delete removes the record and its index entry. Used only to
		// compensate a failed submission.
		Delete(ctx context.Context, id uuid.UUID) error

		// Dump returns the raw stored representation of the record,
		// field name to value, for diagnostics.
		Dump(ctx context.Context, id uuid.UUID) (map[string]string, error)
	}

	// ArtifactRepo stores originals and thumbnails under storage-relative
	// keys derived from job ids.
	ArtifactRepo interface {
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		Download(ctx context.Context, key string) (io.ReadCloser, error)
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
	}
)
