package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"edusight-backend/internal/core"
	"edusight-backend/internal/database"
	"edusight-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct{}

func (failingNotifier) RecordRollup(ctx context.Context) error {
	return errors.New("metrics backend down")
}

func TestValidateReport(t *testing.T) {
	valid := reportFixture()
	assert.NoError(t, core.ValidateReport(valid))

	noStudent := reportFixture()
	noStudent.StudentId = ""
	assert.Error(t, core.ValidateReport(noStudent))

	noDocument := reportFixture()
	noDocument.DocumentId = uuid.Nil
	assert.Error(t, core.ValidateReport(noDocument))
}

func TestCreateReportJob(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), nil, nil, "")
	ctx := context.Background()

	jobId, err := manager.CreateReportJob(ctx, reportFixture())
	require.NoError(t, err)

	job, err := database.GetJob(ctx, db, jobId)
	require.NoError(t, err)
	assert.Equal(t, database.JobPending, job.Status)
	assert.Equal(t, database.JobTypeReportAnalysis, job.JobType)
	assert.False(t, job.StartedAt.Valid, "pending job has not started")
	assert.False(t, job.CompletedAt.Valid, "pending job has no completion time")
	assert.False(t, job.ProcessingTimeMs.Valid, "pending job has no duration")

	var stored api.ReportData
	require.NoError(t, json.Unmarshal(job.InputData, &stored))
	assert.Equal(t, "STU-1", stored.StudentId)
}

func TestCreateReportJob_InvalidReportLeavesNoRow(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), nil, nil, "")

	report := reportFixture()
	report.StudentId = ""

	_, err := manager.CreateReportJob(context.Background(), report)

	var invalidErr *core.ErrInvalidReport
	require.ErrorAs(t, err, &invalidErr)

	jobs, err := database.ListJobs(context.Background(), db, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRunJob_Completes(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), core.NewModelMetricsUpdater(db, nil), nil, "")
	ctx := context.Background()

	report := reportFixture()
	report.SchoolId = ""
	jobId, err := manager.CreateReportJob(ctx, report)
	require.NoError(t, err)

	require.NoError(t, manager.RunJob(ctx, jobId))

	job, err := database.GetJob(ctx, db, jobId)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, job.Status)
	assert.True(t, job.StartedAt.Valid)
	assert.True(t, job.CompletedAt.Valid)
	assert.True(t, job.ProcessingTimeMs.Valid)
	assert.GreaterOrEqual(t, job.ProcessingTimeMs.Int64, int64(0))

	var summary core.RollupSummary
	require.NoError(t, json.Unmarshal(job.OutputData, &summary))
	assert.Equal(t, "ok", summary.Dimensions["subject"])

	// The completed rollup bumps every tracked model's training count.
	var metrics database.ModelMetrics
	require.NoError(t, db.First(&metrics, "model_name = ?", "performance_predictor").Error)
	assert.Equal(t, int64(1), metrics.TrainingDataCount)
	assert.Greater(t, metrics.Accuracy, 0.0)
}

func TestRunJob_NotifierFailureDoesNotFailJob(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), failingNotifier{}, nil, "")
	ctx := context.Background()

	report := reportFixture()
	report.SchoolId = ""
	jobId, err := manager.CreateReportJob(ctx, report)
	require.NoError(t, err)

	require.NoError(t, manager.RunJob(ctx, jobId))

	job, err := database.GetJob(ctx, db, jobId)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, job.Status)
}

func TestRunJob_CorruptInputFails(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), nil, nil, "")
	ctx := context.Background()

	job := &database.ProcessingJob{
		Id:        uuid.New(),
		JobType:   database.JobTypeReportAnalysis,
		Status:    database.JobPending,
		InputData: []byte("not json"),
	}
	require.NoError(t, database.CreateJob(ctx, db, job))

	assert.Error(t, manager.RunJob(ctx, job.Id))

	stored, err := database.GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobFailed, stored.Status)
	assert.True(t, stored.ErrorDetails.Valid)
	assert.True(t, stored.CompletedAt.Valid)
}

func TestRunJob_TerminalJobNotRerun(t *testing.T) {
	db := createDB(t)
	store := database.NewAggregateStore(db)
	manager := core.NewJobManager(db, newEngine(db), nil, nil, "")
	ctx := context.Background()

	report := reportFixture()
	report.SchoolId = ""
	jobId, err := manager.CreateReportJob(ctx, report)
	require.NoError(t, err)

	require.NoError(t, manager.RunJob(ctx, jobId))
	require.NoError(t, manager.RunJob(ctx, jobId)) // redelivery is a no-op

	subject, err := store.GetSubject(ctx, "Mathematics", "CBSE")
	require.NoError(t, err)
	assert.Equal(t, int64(1), subject.SampleCount)
}
