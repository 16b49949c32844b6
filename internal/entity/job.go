package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job is one request to produce a thumbnail for one uploaded image,
// tracked by a unique id through its lifecycle.
type Job struct {
	ID     uuid.UUID `json:"job_id"`
	Status Status    `json:"status"`

	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	ProcessingTimeMS *int64     `json:"processing_time_ms,omitempty"`

	Error string `json:"error,omitempty"`
}

// OriginalKey is the storage-relative key of the uploaded image.
// Keys are derived from the id, never stored.
func (j *Job) OriginalKey() string {
	return OriginalKey(j.ID)
}

// ThumbnailKey is the storage-relative key of the generated thumbnail.
func (j *Job) ThumbnailKey() string {
	return ThumbnailKey(j.ID)
}

func OriginalKey(id uuid.UUID) string {
	return fmt.Sprintf("originals/%s.png", id)
}

func ThumbnailKey(id uuid.UUID) string {
	return fmt.Sprintf("thumbnails/%s.png", id)
}
