package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type (
	// JobProducer schedules a job for asynchronous processing.
	JobProducer interface {
		SendJob(ctx context.Context, jobID uuid.UUID, originalKey, contentType string) error
		Close() error
	}

	// ImageProcessor produces a bounded-dimension PNG rendition.
	ImageProcessor interface {
		Thumbnail(ctx context.Context, data []byte) ([]byte, error)
	}
)
