package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"edusight-backend/internal/database"
	"edusight-backend/internal/storage"
	"edusight-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidReport marks validation failures that must be rejected before a
// job record is created.
type ErrInvalidReport struct {
	Reason string
}

func (e *ErrInvalidReport) Error() string {
	return fmt.Sprintf("invalid report: %s", e.Reason)
}

// ValidateReport checks the fields a rollup cannot proceed without. Missing
// optional assessments are fine; missing identity is not.
func ValidateReport(report api.ReportData) error {
	if report.StudentId == "" {
		return &ErrInvalidReport{Reason: "student_id is required"}
	}
	if report.DocumentId == uuid.Nil {
		return &ErrInvalidReport{Reason: "document_id is required"}
	}
	return nil
}

// JobManager owns the processing job lifecycle: create, run, and settle into
// a terminal state exactly once per execution.
type JobManager struct {
	db       *gorm.DB
	engine   *RollupEngine
	notifier MetricsNotifier

	// archive is optional; when nil submitted payloads are not archived.
	archive       storage.ObjectStore
	archiveBucket string
}

func NewJobManager(db *gorm.DB, engine *RollupEngine, notifier MetricsNotifier, archive storage.ObjectStore, archiveBucket string) *JobManager {
	return &JobManager{
		db:            db,
		engine:        engine,
		notifier:      notifier,
		archive:       archive,
		archiveBucket: archiveBucket,
	}
}

// CreateReportJob validates the report and persists a pending job holding the
// full payload. Invalid reports never get a job row.
func (m *JobManager) CreateReportJob(ctx context.Context, report api.ReportData) (uuid.UUID, error) {
	if err := ValidateReport(report); err != nil {
		return uuid.Nil, err
	}

	input, err := json.Marshal(report)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error serializing report: %w", err)
	}

	job := &database.ProcessingJob{
		Id:           uuid.New(),
		JobType:      database.JobTypeReportAnalysis,
		Status:       database.JobPending,
		InputData:    datatypes.JSON(input),
		CreationTime: time.Now().UTC(),
	}
	if err := database.CreateJob(ctx, m.db, job); err != nil {
		return uuid.Nil, err
	}

	return job.Id, nil
}

// RunJob executes a pending report-analysis job to a terminal state. The
// returned error reports the job outcome; the terminal status is already
// persisted by the time it returns.
func (m *JobManager) RunJob(ctx context.Context, jobId uuid.UUID) error {
	job, err := database.GetJob(ctx, m.db, jobId)
	if err != nil {
		return err
	}
	if job.Status == database.JobCompleted || job.Status == database.JobFailed {
		slog.Info("skipping job already in terminal state", "job_id", jobId, "status", job.Status)
		return nil
	}

	var report api.ReportData
	if err := json.Unmarshal(job.InputData, &report); err != nil {
		failErr := fmt.Errorf("error parsing stored report for job %s: %w", jobId, err)
		if markErr := database.MarkJobFailed(ctx, m.db, jobId, failErr.Error(), nil); markErr != nil {
			return markErr
		}
		return failErr
	}

	if err := database.MarkJobRunning(ctx, m.db, jobId); err != nil {
		return err
	}

	slog.Info("starting report rollup", "job_id", jobId, "student_id", report.StudentId, "school_id", report.SchoolId)

	m.archiveReport(ctx, jobId, job.InputData)

	summary, rollupErr := m.engine.Apply(ctx, report)

	output, err := json.Marshal(summary)
	if err != nil {
		slog.Error("error serializing rollup summary", "job_id", jobId, "error", err)
		output = nil
	}

	if rollupErr != nil {
		if markErr := database.MarkJobFailed(ctx, m.db, jobId, rollupErr.Error(), output); markErr != nil {
			return markErr
		}
		return fmt.Errorf("job %s failed: %w", jobId, rollupErr)
	}

	if err := database.MarkJobCompleted(ctx, m.db, jobId, output); err != nil {
		return err
	}

	if m.notifier != nil {
		if err := m.notifier.RecordRollup(ctx); err != nil {
			// Metrics bookkeeping never changes a completed job's outcome.
			slog.Error("error recording model metrics after rollup", "job_id", jobId, "error", err)
		}
	}

	slog.Info("report rollup completed", "job_id", jobId, "keys_touched", summary.KeysTouched)

	return nil
}

// archiveReport writes the submitted payload to the audit bucket.
// Best-effort: archive failures are logged and the job continues.
func (m *JobManager) archiveReport(ctx context.Context, jobId uuid.UUID, payload []byte) {
	if m.archive == nil {
		return
	}

	key := fmt.Sprintf("reports/%s.json", jobId)
	if err := m.archive.PutObject(ctx, m.archiveBucket, key, bytes.NewReader(payload)); err != nil {
		slog.Error("error archiving report payload", "job_id", jobId, "key", key, "error", err)
	}
}
