package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	infrakafka "github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure/kafka"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/usecase"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/segmentio/kafka-go"
)

// WorkerController consumes queued thumbnail jobs and drives each one
// through processing -> succeeded|failed.
type WorkerController struct {
	jobs      usecase.JobUseCase
	processor usecase.ThumbnailerUseCase
	jc        *infrakafka.JobConsumer
	logger    logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	cpuTimeout     time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	jobs usecase.JobUseCase,
	processor usecase.ThumbnailerUseCase,
	jc *infrakafka.JobConsumer,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	cpuTimeout time.Duration,
	workers int,
) *WorkerController {
	return &WorkerController{
		jobs:           jobs,
		processor:      processor,
		jc:             jc,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		cpuTimeout:     cpuTimeout,
		workers:        workers,
	}
}

func (c *WorkerController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("WorkerController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.jc.ReadJob(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "WorkerController - Start - c.jc.ReadJob")
					}
					continue
				}

				select {
				case tasks <- msg:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *WorkerController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "WorkerController - worker - panic")
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			commit := c.handle(processCtx, msg)
			processCancel()

			if !commit {
				// leave the offset uncommitted so the queue redelivers
				return
			}

			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err := c.jc.CommitJob(commitCtx, msg)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "WorkerController - worker - c.jc.CommitJob")
			}
		}()
	}
}

// handle runs one delivery end to end and reports whether the message
// may be committed. Outcomes recorded in the status store (succeeded,
// failed, duplicate delivery) commit; only store-unreachable errors
// leave the message for redelivery.
func (c *WorkerController) handle(ctx context.Context, msg kafka.Message) bool {
	var payload infrakafka.JobPayload
	err := json.Unmarshal(msg.Value, &payload)
	if err != nil {
		// malformed message, nothing to record and retrying cannot help
		c.logger.Error(err, "WorkerController - handle - json.Unmarshal")

		return true
	}

	err = c.jobs.MarkProcessing(ctx, payload.JobID, time.Now())
	if err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			// duplicate delivery: another worker owns this job
			c.logger.Warn("duplicate delivery skipped, job_id=%s", payload.JobID)

			return true
		}
		if errors.Is(err, errs.ErrJobNotFound) {
			c.logger.Warn("job record missing, job_id=%s", payload.JobID)

			return true
		}
		c.logger.Error(err, "WorkerController - handle - c.jobs.MarkProcessing")

		return false
	}

	c.logger.Info("processing started, job_id=%s", payload.JobID)

	err = c.process(ctx, payload)

	// Outcomes are recorded on a context independent of the process
	// budget: when the failure IS the expired budget, writing the
	// terminal state on the same context could never succeed and the
	// job would strand in processing.
	markCtx, markCancel := context.WithTimeout(context.WithoutCancel(ctx), c.commitTimeout)
	defer markCancel()

	if err != nil {
		c.logger.Error(err, "WorkerController - handle - c.process")

		markErr := c.jobs.MarkFailed(markCtx, payload.JobID, time.Now(), err.Error())
		if markErr != nil {
			c.logger.Error(markErr, "WorkerController - handle - c.jobs.MarkFailed")

			return false
		}

		// failed is terminal: the outcome is recorded, commit
		return true
	}

	err = c.jobs.MarkSucceeded(markCtx, payload.JobID, time.Now())
	if err != nil {
		c.logger.Error(err, "WorkerController - handle - c.jobs.MarkSucceeded")

		return false
	}

	c.logger.Info("processing finished, job_id=%s", payload.JobID)

	return true
}

func (c *WorkerController) process(ctx context.Context, payload infrakafka.JobPayload) error {
	originalKey := payload.OriginalKey
	if originalKey == "" {
		originalKey = entity.OriginalKey(payload.JobID)
	}

	// 1. download the original
	data, err := c.jobs.OriginalBytes(ctx, originalKey)
	if err != nil {
		return fmt.Errorf("WorkerController - process - c.jobs.OriginalBytes: %w", err)
	}

	// 2. resize, bounded separately from the IO budget
	cpuCtx, cpuCancel := context.WithTimeout(ctx, c.cpuTimeout)
	defer cpuCancel()
	thumb, err := c.processor.Thumbnail(cpuCtx, data)
	if err != nil {
		return fmt.Errorf("WorkerController - process - c.processor.Thumbnail: %w", err)
	}

	// 3. persist the thumbnail
	err = c.jobs.SaveThumbnail(ctx, payload.JobID, thumb)
	if err != nil {
		return fmt.Errorf("WorkerController - process - c.jobs.SaveThumbnail: %w", err)
	}

	return nil
}

func (c *WorkerController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.jc.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
