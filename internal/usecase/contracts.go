package usecase

import (
	"context"
	"io"
	"time"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/google/uuid"
)

type (
	// JobUseCase owns the job lifecycle: it creates records, transitions
	// them through states and answers queries about current state.
	JobUseCase interface {
		// Submit persists the original, creates the record (queued) and
		// enqueues processing. Fire-and-forget: it never waits for the
		// worker.
		Submit(ctx context.Context, data io.Reader, contentType string, size int64) (*entity.Job, error)

		// MarkProcessing transitions queued -> processing. A record in any
		// other state yields errs.ErrInvalidTransition.
		MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error
		// MarkSucceeded transitions processing -> succeeded and records
		// the processing time.
		MarkSucceeded(ctx context.Context, id uuid.UUID, finishedAt time.Time) error
		// MarkFailed transitions processing -> failed and records the
		// diagnostic text.
		MarkFailed(ctx context.Context, id uuid.UUID, finishedAt time.Time, errText string) error

		Get(ctx context.Context, id uuid.UUID) (*entity.Job, error)
		List(ctx context.Context) ([]*entity.Job, error)
		Debug(ctx context.Context, id uuid.UUID) (map[string]string, error)

		// Thumbnail streams the generated artifact of a succeeded job.
		// errs.ErrThumbnailNotReady for non-terminal/failed jobs,
		// errs.ErrArtifactMissing when succeeded but the file is gone.
		Thumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

		// OriginalBytes and SaveThumbnail are the worker's side of the
		// artifact store.
		OriginalBytes(ctx context.Context, key string) ([]byte, error)
		SaveThumbnail(ctx context.Context, id uuid.UUID, data []byte) error
	}

	// ThumbnailerUseCase wraps the image processor.
	ThumbnailerUseCase interface {
		Thumbnail(ctx context.Context, data []byte) ([]byte, error)
	}
)
