package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"edusight-backend/cmd"
	"edusight-backend/internal/core"
	"edusight-backend/internal/database"
	"edusight-backend/internal/messaging"
	"edusight-backend/internal/storage"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`

	// School directory API; when unset the worker resolves regions from its
	// own schools table.
	DirectoryURL string `env:"DIRECTORY_URL" envDefault:""`

	LookupTablesPath string `env:"LOOKUP_TABLES_PATH" envDefault:""`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL" envDefault:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	S3Region          string `env:"AWS_REGION" envDefault:""`
	ArchiveBucket     string `env:"ARCHIVE_BUCKET" envDefault:""`
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	cmd.InitializeModelMetrics(db)

	var resolver core.SchoolResolver
	if cfg.DirectoryURL != "" {
		resolver = core.NewDirectoryClient(cfg.DirectoryURL)
	} else {
		resolver = core.NewDirectoryResolver(db)
	}

	var archive storage.ObjectStore
	if cfg.ArchiveBucket != "" {
		archive, err = storage.NewS3ObjectStore(storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to create object store: %v", err)
		}
		if err := archive.CreateBucket(context.Background(), cfg.ArchiveBucket); err != nil {
			log.Fatalf("Failed to create archive bucket: %v", err)
		}
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	engine := core.NewRollupEngine(database.NewAggregateStore(db), resolver, cmd.LoadLookups(cfg.LookupTablesPath))
	notifier := core.NewModelMetricsUpdater(db, nil)
	jobs := core.NewJobManager(db, engine, notifier, archive, cfg.ArchiveBucket)

	processor := core.NewRollupProcessor(jobs, receiver)
	go processor.Start()

	log.Println("Worker started. Waiting for tasks. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, stopping worker...")
	processor.Stop()

	log.Println("Worker process stopped.")
}
