package kafka

import "github.com/google/uuid"

// JobPayload is the wire format of one queued thumbnail job.
type JobPayload struct {
	JobID       uuid.UUID `json:"job_id"`
	OriginalKey string    `json:"original_key"`
	ContentType string    `json:"content_type"`
}
