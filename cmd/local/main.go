package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"edusight-backend/cmd"
	"edusight-backend/internal/api"
	"edusight-backend/internal/core"
	"edusight-backend/internal/database"
	"edusight-backend/internal/messaging"
	"edusight-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

type Config struct {
	Root             string `env:"ROOT" envDefault:"./edusight"`
	Port             int    `env:"PORT" envDefault:"3001"`
	LookupTablesPath string `env:"LOOKUP_TABLES_PATH" envDefault:""`
}

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "edusight.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := database.NewDatabase("sqlite://" + path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// createQueue requeues jobs that were pending when the process last stopped.
func createQueue(db *gorm.DB) *messaging.InMemoryQueue {
	var pending []database.ProcessingJob
	if err := db.Where("status = ?", database.JobPending).Find(&pending).Error; err != nil {
		log.Fatalf("Failed to fetch pending jobs from database: %v", err)
	}

	queue := messaging.NewInMemoryQueue()

	for _, job := range pending {
		if err := queue.PublishReportAnalysisTask(context.Background(), messaging.ReportAnalysisPayload{
			JobId: job.Id,
		}); err != nil {
			log.Fatalf("Failed to requeue pending job %s: %v", job.Id, err)
		}
	}
	if len(pending) > 0 {
		slog.Info("requeued pending jobs", "count", len(pending))
	}

	return queue
}

func createServer(db *gorm.DB, jobs *core.JobManager, queue messaging.Publisher, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	apiHandler := api.NewBackendService(db, database.NewAggregateStore(db), jobs, queue)

	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	const archiveBucket = "report-archive"

	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating root directory: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port)

	db := createDatabase(cfg.Root)

	cmd.InitializeModelMetrics(db)

	archive, err := storage.NewLocalObjectStore(filepath.Join(cfg.Root, "storage"))
	if err != nil {
		log.Fatalf("Failed to create local object store: %v", err)
	}
	if err := archive.CreateBucket(context.Background(), archiveBucket); err != nil {
		log.Fatalf("Failed to create archive bucket: %v", err)
	}

	queue := createQueue(db)

	engine := core.NewRollupEngine(database.NewAggregateStore(db), core.NewDirectoryResolver(db), cmd.LoadLookups(cfg.LookupTablesPath))
	notifier := core.NewModelMetricsUpdater(db, nil)
	jobs := core.NewJobManager(db, engine, notifier, archive, archiveBucket)

	processor := core.NewRollupProcessor(jobs, queue)
	go processor.Start()

	server := createServer(db, jobs, queue, cfg.Port)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Backend listening on port %d", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
