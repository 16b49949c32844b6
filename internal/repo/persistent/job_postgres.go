package persistent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/postgres"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// Table
	jobsTable = "jobs"

	// Columns
	idColumn               = "id"
	statusColumn           = "status"
	createdAtColumn        = "created_at"
	startedAtColumn        = "started_at"
	finishedAtColumn       = "finished_at"
	processingTimeMSColumn = "processing_time_ms"
	errorColumn            = "error"

	uniqueViolationCode = "23505"
)

// JobPostgresRepo is the alternate status store: same contract as the
// Redis repo over a single jobs table.
type JobPostgresRepo struct {
	*postgres.Postgres
}

func NewJobPostgresRepo(pg *postgres.Postgres) *JobPostgresRepo {
	return &JobPostgresRepo{pg}
}

func (r *JobPostgresRepo) Create(ctx context.Context, job *entity.Job) error {
	sql, args, err := r.Builder.
		Insert(jobsTable).
		Columns(
			idColumn,
			statusColumn,
			createdAtColumn,
			errorColumn,
		).
		Values(
			job.ID,
			job.Status,
			job.CreatedAt,
			job.Error,
		).ToSql()
	if err != nil {
		return fmt.Errorf("JobPostgresRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("JobPostgresRepo - Create: %w", errs.ErrJobAlreadyExists)
		}
		return fmt.Errorf("JobPostgresRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *JobPostgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	sql, args, err := r.Builder.
		Select(
			idColumn,
			statusColumn,
			createdAtColumn,
			startedAtColumn,
			finishedAtColumn,
			processingTimeMSColumn,
			errorColumn,
		).
		From(jobsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("JobPostgresRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var job entity.Job
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&job.ID,
		&job.Status,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
		&job.ProcessingTimeMS,
		&job.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("JobPostgresRepo - GetByID: %w", errs.ErrJobNotFound)
		}
		return nil, fmt.Errorf("JobPostgresRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &job, nil
}

func (r *JobPostgresRepo) List(ctx context.Context) ([]*entity.Job, error) {
	sql, args, err := r.Builder.
		Select(idColumn, statusColumn).
		From(jobsTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("JobPostgresRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("JobPostgresRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.Job

	for rows.Next() {
		var job entity.Job
		if err := rows.Scan(&job.ID, &job.Status); err != nil {
			return nil, fmt.Errorf("JobPostgresRepo - List - rows.Scan: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("JobPostgresRepo - List - rows.Err: %w", err)
	}

	return jobs, nil
}

// UpdateIfStatus locks the row, verifies the stored status and applies
// the update inside one transaction, so a duplicate worker cannot slip
// between the check and the write.
func (r *JobPostgresRepo) UpdateIfStatus(ctx context.Context, job *entity.Job, expected entity.Status) error {
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		executor := r.GetExecutor(ctx)

		sql, args, err := r.Builder.
			Select(statusColumn).
			From(jobsTable).
			Where(squirrel.Eq{idColumn: job.ID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("r.Builder.ToSql: %w", err)
		}

		var current entity.Status
		err = executor.QueryRow(ctx, sql, args...).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrJobNotFound
			}
			return fmt.Errorf("executor.QueryRow: %w", err)
		}

		if current != expected {
			return errs.ErrInvalidTransition
		}

		sql, args, err = r.Builder.
			Update(jobsTable).
			Set(statusColumn, job.Status).
			Set(startedAtColumn, job.StartedAt).
			Set(finishedAtColumn, job.FinishedAt).
			Set(processingTimeMSColumn, job.ProcessingTimeMS).
			Set(errorColumn, job.Error).
			Where(squirrel.Eq{idColumn: job.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("r.Builder.ToSql: %w", err)
		}

		_, err = executor.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("executor.Exec: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("JobPostgresRepo - UpdateIfStatus: %w", err)
	}

	return nil
}

func (r *JobPostgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(jobsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobPostgresRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobPostgresRepo - Delete - executor.Exec: %w", err)
	}

	return nil
}

// Dump renders the row with the same field names the Redis store uses,
// so the debug endpoint is backend-agnostic.
func (r *JobPostgresRepo) Dump(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("JobPostgresRepo - Dump: %w", err)
	}

	fields := map[string]string{
		statusColumn:           string(job.Status),
		createdAtColumn:        job.CreatedAt.UTC().Format(time.RFC3339Nano),
		startedAtColumn:        "",
		finishedAtColumn:       "",
		processingTimeMSColumn: "",
		errorColumn:            job.Error,
	}

	if job.StartedAt != nil {
		fields[startedAtColumn] = job.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if job.FinishedAt != nil {
		fields[finishedAtColumn] = job.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	if job.ProcessingTimeMS != nil {
		fields[processingTimeMSColumn] = strconv.FormatInt(*job.ProcessingTimeMS, 10)
	}

	return fields, nil
}
