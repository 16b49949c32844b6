package app

import (
	"context"
	"fmt"

	"github.com/VaibhavChidrawar/thumbnail-api/config"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/repo"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/repo/persistent"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/postgres"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/redisclient"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/s3client"
)

// newJobStore builds the configured status store backend; the returned
// func releases the underlying client.
func newJobStore(ctx context.Context, cfg *config.Config) (repo.JobStore, func(), error) {
	switch cfg.App.StoreBackend {
	case "redis":
		rc, err := redisclient.New(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("app - newJobStore - redisclient.New: %w", err)
		}

		return persistent.NewJobRedisRepo(rc), func() { _ = rc.Close() }, nil
	case "postgres":
		pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
		if err != nil {
			return nil, nil, fmt.Errorf("app - newJobStore - postgres.New: %w", err)
		}

		return persistent.NewJobPostgresRepo(pg), pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("app - newJobStore - unknown store backend %q", cfg.App.StoreBackend)
	}
}

// newArtifactRepo builds the configured artifact storage backend.
func newArtifactRepo(ctx context.Context, cfg *config.Config) (repo.ArtifactRepo, error) {
	switch cfg.Storage.Backend {
	case "fs":
		artifacts, err := persistent.NewArtifactFSRepo(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("app - newArtifactRepo - persistent.NewArtifactFSRepo: %w", err)
		}

		return artifacts, nil
	case "s3":
		s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
		defer s3Cancel()

		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("app - newArtifactRepo - s3client.New: %w", err)
		}

		return persistent.NewArtifactS3Repo(s3c, cfg.S3.Bucket), nil
	default:
		return nil, fmt.Errorf("app - newArtifactRepo - unknown storage backend %q", cfg.Storage.Backend)
	}
}
