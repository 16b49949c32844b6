package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		App     App
		HTTP    HTTP
		Log     Log
		Redis   Redis
		PG      PG
		Storage Storage
		S3      S3
		Kafka   Kafka
		Worker  Worker
		Swagger Swagger
	}

	App struct {
		// StoreBackend selects the job status store: "redis" or "postgres".
		StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT" envDefault:"8080"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Redis struct {
		URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX" envDefault:"4"`
		URL     string `env:"PG_URL"`
	}

	Storage struct {
		// Backend selects artifact storage: "fs" or "s3".
		Backend string `env:"STORAGE_BACKEND" envDefault:"fs"`
		DataDir string `env:"DATA_DIR" envDefault:"./storage"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		Bucket         string        `env:"S3_BUCKET"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
		GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"thumbnail-workers"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"thumbnails"`
	}

	Worker struct {
		Count           int           `env:"WORKER_COUNT" envDefault:"0"` // 0 -> NumCPU
		CommitTimeout   time.Duration `env:"WORKER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"WORKER_PROCESS_TIMEOUT" envDefault:"15s"`
		CPUTimeout      time.Duration `env:"WORKER_CPU_TIMEOUT" envDefault:"8s"`
		ShutdownTimeout time.Duration `env:"WORKER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
