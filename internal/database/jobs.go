package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func CreateJob(ctx context.Context, db *gorm.DB, job *ProcessingJob) error {
	if err := db.WithContext(ctx).Create(job).Error; err != nil {
		slog.Error("error creating processing job", "job_id", job.Id, "error", err)
		return fmt.Errorf("error creating processing job: %w", err)
	}
	return nil
}

func GetJob(ctx context.Context, db *gorm.DB, jobId uuid.UUID) (ProcessingJob, error) {
	var job ProcessingJob
	if err := db.WithContext(ctx).First(&job, "id = ?", jobId).Error; err != nil {
		return ProcessingJob{}, fmt.Errorf("error getting job %s: %w", jobId, err)
	}
	return job, nil
}

func ListJobs(ctx context.Context, db *gorm.DB, status string, limit, offset int) ([]ProcessingJob, error) {
	query := db.WithContext(ctx).Order("creation_time DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var jobs []ProcessingJob
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("error listing jobs: %w", err)
	}
	return jobs, nil
}

func MarkJobRunning(ctx context.Context, db *gorm.DB, jobId uuid.UUID) error {
	updates := map[string]any{
		"status":     JobRunning,
		"started_at": time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Model(&ProcessingJob{Id: jobId}).Updates(updates).Error; err != nil {
		slog.Error("error marking job as running", "job_id", jobId, "error", err)
		return fmt.Errorf("error marking job %s as running: %w", jobId, err)
	}
	return nil
}

// markJobTerminal sets the terminal status together with CompletedAt and
// ProcessingTimeMs so the terminal invariant holds in a single update.
func markJobTerminal(ctx context.Context, db *gorm.DB, jobId uuid.UUID, status string, errorDetails string, output datatypes.JSON) error {
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var job ProcessingJob
		if err := txn.First(&job, "id = ?", jobId).Error; err != nil {
			return fmt.Errorf("error getting job %s: %w", jobId, err)
		}

		now := time.Now().UTC()
		started := job.CreationTime
		if job.StartedAt.Valid {
			started = job.StartedAt.Time
		}
		elapsed := now.Sub(started).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}

		updates := map[string]any{
			"status":             status,
			"completed_at":       now,
			"processing_time_ms": elapsed,
		}
		if errorDetails != "" {
			updates["error_details"] = sql.NullString{String: errorDetails, Valid: true}
		}
		if output != nil {
			updates["output_data"] = output
		}

		if err := txn.Model(&ProcessingJob{Id: jobId}).Updates(updates).Error; err != nil {
			return fmt.Errorf("error updating job %s status to %s: %w", jobId, status, err)
		}
		return nil
	})
}

func MarkJobCompleted(ctx context.Context, db *gorm.DB, jobId uuid.UUID, output datatypes.JSON) error {
	if err := markJobTerminal(ctx, db, jobId, JobCompleted, "", output); err != nil {
		slog.Error("error marking job as completed", "job_id", jobId, "error", err)
		return err
	}
	return nil
}

func MarkJobFailed(ctx context.Context, db *gorm.DB, jobId uuid.UUID, errorDetails string, output datatypes.JSON) error {
	if err := markJobTerminal(ctx, db, jobId, JobFailed, errorDetails, output); err != nil {
		slog.Error("error marking job as failed", "job_id", jobId, "error", err)
		return err
	}
	return nil
}
