package job

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/metrics"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/repo"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/google/uuid"
)

type JobUseCase struct {
	store     repo.JobStore
	artifacts repo.ArtifactRepo
	producer  infrastructure.JobProducer

	logger logger.Interface
}

func New(
	store repo.JobStore,
	artifacts repo.ArtifactRepo,
	producer infrastructure.JobProducer,
	l logger.Interface,
) *JobUseCase {
	return &JobUseCase{
		store:     store,
		artifacts: artifacts,
		producer:  producer,
		logger:    l,
	}
}

func (uc *JobUseCase) Submit(ctx context.Context, data io.Reader, contentType string, size int64) (*entity.Job, error) {
	job := &entity.Job{
		ID:        uuid.New(),
		Status:    entity.Queued,
		CreatedAt: time.Now(),
	}

	// 1. persist the original
	err := uc.artifacts.Upload(ctx, job.OriginalKey(), data, contentType, size)
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - Submit - uc.artifacts.Upload: %w", err)
	}

	// 2. create the record
	err = uc.store.Create(ctx, job)
	if err != nil {
		uc.compensate(ctx, job, false)

		return nil, fmt.Errorf("JobUseCase - Submit - uc.store.Create: %w", err)
	}

	// 3. enqueue; on failure roll everything back so no partial state
	// survives
	err = uc.producer.SendJob(ctx, job.ID, job.OriginalKey(), contentType)
	if err != nil {
		uc.compensate(ctx, job, true)

		return nil, fmt.Errorf("JobUseCase - Submit - uc.producer.SendJob: %w", err)
	}

	metrics.JobsSubmittedTotal.Inc()
	uc.logger.Info("job submitted, job_id=%s content_type=%s size=%d", job.ID, contentType, size)

	return job, nil
}

func (uc *JobUseCase) compensate(ctx context.Context, job *entity.Job, deleteRecord bool) {
	if deleteRecord {
		if err := uc.store.Delete(ctx, job.ID); err != nil {
			uc.logger.Error(err, "JobUseCase - compensate - uc.store.Delete")
		}
	}

	if err := uc.artifacts.Delete(ctx, job.OriginalKey()); err != nil {
		uc.logger.Error(err, "JobUseCase - compensate - uc.artifacts.Delete")
	}
}

// MarkProcessing is a conditional write: only the caller that observes
// the queued state wins. A redelivered job finds the record already
// processing (or terminal) and gets ErrInvalidTransition.
func (uc *JobUseCase) MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	job, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("JobUseCase - MarkProcessing - uc.store.GetByID: %w", err)
	}

	job.Status = entity.Processing
	job.StartedAt = &startedAt

	err = uc.store.UpdateIfStatus(ctx, job, entity.Queued)
	if err != nil {
		return fmt.Errorf("JobUseCase - MarkProcessing - uc.store.UpdateIfStatus: %w", err)
	}

	return nil
}

func (uc *JobUseCase) MarkSucceeded(ctx context.Context, id uuid.UUID, finishedAt time.Time) error {
	job, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("JobUseCase - MarkSucceeded - uc.store.GetByID: %w", err)
	}

	if job.Status != entity.Processing || job.StartedAt == nil {
		return fmt.Errorf("JobUseCase - MarkSucceeded: %w", errs.ErrInvalidTransition)
	}

	processingTime := finishedAt.Sub(*job.StartedAt).Milliseconds()

	job.Status = entity.Succeeded
	job.FinishedAt = &finishedAt
	job.ProcessingTimeMS = &processingTime

	err = uc.store.UpdateIfStatus(ctx, job, entity.Processing)
	if err != nil {
		return fmt.Errorf("JobUseCase - MarkSucceeded - uc.store.UpdateIfStatus: %w", err)
	}

	metrics.JobsSucceededTotal.Inc()
	metrics.JobProcessingDuration.Observe(finishedAt.Sub(*job.StartedAt).Seconds())

	return nil
}

func (uc *JobUseCase) MarkFailed(ctx context.Context, id uuid.UUID, finishedAt time.Time, errText string) error {
	job, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("JobUseCase - MarkFailed - uc.store.GetByID: %w", err)
	}

	if job.Status != entity.Processing {
		return fmt.Errorf("JobUseCase - MarkFailed: %w", errs.ErrInvalidTransition)
	}

	job.Status = entity.Failed
	job.FinishedAt = &finishedAt
	job.Error = errText

	err = uc.store.UpdateIfStatus(ctx, job, entity.Processing)
	if err != nil {
		return fmt.Errorf("JobUseCase - MarkFailed - uc.store.UpdateIfStatus: %w", err)
	}

	metrics.JobsFailedTotal.Inc()

	return nil
}

func (uc *JobUseCase) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	job, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - Get - uc.store.GetByID: %w", err)
	}

	return job, nil
}

func (uc *JobUseCase) List(ctx context.Context) ([]*entity.Job, error) {
	jobs, err := uc.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - List - uc.store.List: %w", err)
	}

	return jobs, nil
}

func (uc *JobUseCase) Debug(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	fields, err := uc.store.Dump(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - Debug - uc.store.Dump: %w", err)
	}

	return fields, nil
}

func (uc *JobUseCase) Thumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	job, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - Thumbnail - uc.store.GetByID: %w", err)
	}

	if job.Status != entity.Succeeded {
		return nil, fmt.Errorf("JobUseCase - Thumbnail: %w", errs.ErrThumbnailNotReady)
	}

	// succeeded implies the artifact exists; its absence is a
	// consistency fault, not a normal not-found
	body, err := uc.artifacts.Download(ctx, job.ThumbnailKey())
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - Thumbnail - uc.artifacts.Download: %w", err)
	}

	return body, nil
}

func (uc *JobUseCase) OriginalBytes(ctx context.Context, key string) ([]byte, error) {
	b, err := uc.artifacts.DownloadBytes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("JobUseCase - OriginalBytes - uc.artifacts.DownloadBytes: %w", err)
	}

	return b, nil
}

func (uc *JobUseCase) SaveThumbnail(ctx context.Context, id uuid.UUID, data []byte) error {
	err := uc.artifacts.UploadBytes(ctx, entity.ThumbnailKey(id), data, "image/png")
	if err != nil {
		return fmt.Errorf("JobUseCase - SaveThumbnail - uc.artifacts.UploadBytes: %w", err)
	}

	return nil
}
