package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/VaibhavChidrawar/thumbnail-api/config"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/controller/restapi"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/controller/restapi/validate"
	infrakafka "github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure/kafka"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/usecase/job"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/httpserver"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/kafka/producer"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
)

// Run starts the API process: HTTP surface plus the queue producer.
func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository
	store, closeStore, err := newJobStore(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - newJobStore: %w", err))
	}
	defer closeStore()

	artifacts, err := newArtifactRepo(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - newArtifactRepo: %w", err))
	}

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	jobProducer := infrakafka.NewJobProducer(kafkaProducer, cfg.Kafka.Topic)

	// Use-Case
	jobUseCase := job.New(store, artifacts, jobProducer, l)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		// headroom over the upload cap so the handler, not the body
		// parser, owns the 413
		httpserver.BodyLimit(int(validate.MaxFileSize)+1024*1024),
	)
	restapi.NewRouter(httpServer.App, cfg, jobUseCase, l)

	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	err = jobProducer.Close()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - jobProducer.Close: %w", err))
	}
}
