package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/VaibhavChidrawar/thumbnail-api/config"
	workerctrl "github.com/VaibhavChidrawar/thumbnail-api/internal/controller/kafka"
	infrakafka "github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure/kafka"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure/processor"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/usecase/job"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/usecase/thumbnailer"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/kafka/consumer"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
)

// RunWorker starts the worker process: it consumes queued jobs and
// produces thumbnails until interrupted.
func RunWorker(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository
	store, closeStore, err := newJobStore(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - newJobStore: %w", err))
	}
	defer closeStore()

	artifacts, err := newArtifactRepo(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - newArtifactRepo: %w", err))
	}

	// Use-Case
	// the worker never enqueues, so it carries no producer
	jobUseCase := job.New(store, artifacts, nil, l)
	thumbnailerUseCase := thumbnailer.New(processor.New())

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - consumer.New: %w", err))
	}

	workers := cfg.Worker.Count
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workerController := workerctrl.New(
		jobUseCase,
		thumbnailerUseCase,
		infrakafka.NewJobConsumer(kafkaConsumer),
		l,
		cfg.Worker.CommitTimeout,
		cfg.Worker.ProcessTimeout,
		cfg.Worker.CPUTimeout,
		workers,
	)

	err = workerController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWorker - workerController.Start: %w", err))
	}

	l.Info("worker started, workers=%d topic=%s", workers, cfg.Kafka.Topic)

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	s := <-interrupt
	l.Info("app - RunWorker - signal: %s", s.String())

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	err = workerController.Shutdown(shutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunWorker - workerController.Shutdown: %w", err))
	}
}
