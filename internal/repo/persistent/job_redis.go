package persistent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/redisclient"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Keys
	jobsSetKey   = "jobs"
	jobKeyPrefix = "job:"

	// Hash fields
	statusField           = "status"
	createdAtField        = "created_at"
	startedAtField        = "started_at"
	finishedAtField       = "finished_at"
	processingTimeMSField = "processing_time_ms"
	errorField            = "error"
)

// JobRedisRepo keeps one hash per job under "job:<id>" plus a global
// "jobs" set of all known ids.
type JobRedisRepo struct {
	*redisclient.RedisClient
}

func NewJobRedisRepo(rc *redisclient.RedisClient) *JobRedisRepo {
	return &JobRedisRepo{rc}
}

func jobKey(id uuid.UUID) string {
	return jobKeyPrefix + id.String()
}

func (r *JobRedisRepo) Create(ctx context.Context, job *entity.Job) error {
	added, err := r.Client.SAdd(ctx, jobsSetKey, job.ID.String()).Result()
	if err != nil {
		return fmt.Errorf("JobRedisRepo - Create - r.Client.SAdd: %w", err)
	}

	if added == 0 {
		return fmt.Errorf("JobRedisRepo - Create: %w", errs.ErrJobAlreadyExists)
	}

	err = r.Client.HSet(ctx, jobKey(job.ID), marshalJob(job)).Err()
	if err != nil {
		return fmt.Errorf("JobRedisRepo - Create - r.Client.HSet: %w", err)
	}

	return nil
}

func (r *JobRedisRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	fields, err := r.Client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("JobRedisRepo - GetByID - r.Client.HGetAll: %w", err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("JobRedisRepo - GetByID: %w", errs.ErrJobNotFound)
	}

	job, err := unmarshalJob(id, fields)
	if err != nil {
		return nil, fmt.Errorf("JobRedisRepo - GetByID: %w", err)
	}

	return job, nil
}

func (r *JobRedisRepo) List(ctx context.Context) ([]*entity.Job, error) {
	ids, err := r.Client.SMembers(ctx, jobsSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("JobRedisRepo - List - r.Client.SMembers: %w", err)
	}

	jobs := make([]*entity.Job, 0, len(ids))

	cmds := make([]*redis.StringCmd, len(ids))
	_, err = r.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGet(ctx, jobKeyPrefix+id, statusField)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("JobRedisRepo - List - r.Client.Pipelined: %w", err)
	}

	for i, id := range ids {
		jobID, err := uuid.Parse(id)
		if err != nil {
			// Foreign entry in the index set; skip it.
			continue
		}

		status, err := cmds[i].Result()
		if errors.Is(err, redis.Nil) {
			// Index entry without a record; racing Delete.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("JobRedisRepo - List - cmds[i].Result: %w", err)
		}

		jobs = append(jobs, &entity.Job{ID: jobID, Status: entity.Status(status)})
	}

	return jobs, nil
}

// UpdateIfStatus is a compare-and-swap on the status field: the write
// applies only if the stored status still equals expected. A concurrent
// writer aborts the transaction and surfaces as ErrInvalidTransition.
func (r *JobRedisRepo) UpdateIfStatus(ctx context.Context, job *entity.Job, expected entity.Status) error {
	key := jobKey(job.ID)

	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, statusField).Result()
		if errors.Is(err, redis.Nil) {
			return errs.ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("tx.HGet: %w", err)
		}

		if entity.Status(current) != expected {
			return errs.ErrInvalidTransition
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, marshalJob(job))
			return nil
		})

		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// Lost the race; the other writer owns the transition now.
		return fmt.Errorf("JobRedisRepo - UpdateIfStatus: %w", errs.ErrInvalidTransition)
	}
	if err != nil {
		return fmt.Errorf("JobRedisRepo - UpdateIfStatus: %w", err)
	}

	return nil
}

func (r *JobRedisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, jobsSetKey, id.String())
		pipe.Del(ctx, jobKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("JobRedisRepo - Delete - r.Client.Pipelined: %w", err)
	}

	return nil
}

func (r *JobRedisRepo) Dump(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	fields, err := r.Client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("JobRedisRepo - Dump - r.Client.HGetAll: %w", err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("JobRedisRepo - Dump: %w", errs.ErrJobNotFound)
	}

	return fields, nil
}

// marshalJob flattens the typed record into the hash representation.
// Absent optional fields are written as empty strings so that every
// transition is a single atomic multi-field HSET.
func marshalJob(job *entity.Job) map[string]string {
	fields := map[string]string{
		statusField:           string(job.Status),
		createdAtField:        job.CreatedAt.UTC().Format(time.RFC3339Nano),
		startedAtField:        "",
		finishedAtField:       "",
		processingTimeMSField: "",
		errorField:            job.Error,
	}

	if job.StartedAt != nil {
		fields[startedAtField] = job.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if job.FinishedAt != nil {
		fields[finishedAtField] = job.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	if job.ProcessingTimeMS != nil {
		fields[processingTimeMSField] = strconv.FormatInt(*job.ProcessingTimeMS, 10)
	}

	return fields
}

func unmarshalJob(id uuid.UUID, fields map[string]string) (*entity.Job, error) {
	job := &entity.Job{
		ID:     id,
		Status: entity.Status(fields[statusField]),
		Error:  fields[errorField],
	}

	var err error

	job.CreatedAt, err = time.Parse(time.RFC3339Nano, fields[createdAtField])
	if err != nil {
		return nil, fmt.Errorf("unmarshalJob - time.Parse(%s): %w", createdAtField, err)
	}

	if v := fields[startedAtField]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("unmarshalJob - time.Parse(%s): %w", startedAtField, err)
		}
		job.StartedAt = &t
	}

	if v := fields[finishedAtField]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("unmarshalJob - time.Parse(%s): %w", finishedAtField, err)
		}
		job.FinishedAt = &t
	}

	if v := fields[processingTimeMSField]; v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unmarshalJob - strconv.ParseInt(%s): %w", processingTimeMSField, err)
		}
		job.ProcessingTimeMS = &ms
	}

	return job, nil
}
