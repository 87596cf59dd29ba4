package database_test

import (
	"context"
	"testing"
	"time"

	"edusight-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func newJob(status string, age time.Duration) *database.ProcessingJob {
	return &database.ProcessingJob{
		Id:           uuid.New(),
		JobType:      database.JobTypeReportAnalysis,
		Status:       status,
		CreationTime: time.Now().UTC().Add(-age),
	}
}

func TestListJobs_FilterAndPagination(t *testing.T) {
	db := createDB(t,
		newJob(database.JobCompleted, 3*time.Hour),
		newJob(database.JobPending, 2*time.Hour),
		newJob(database.JobPending, 1*time.Hour),
		newJob(database.JobFailed, 4*time.Hour),
	)
	ctx := context.Background()

	pending, err := database.ListJobs(ctx, db, database.JobPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.True(t, pending[0].CreationTime.After(pending[1].CreationTime), "newest first")

	all, err := database.ListJobs(ctx, db, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	page, err := database.ListJobs(ctx, db, "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestJobLifecycle(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	job := newJob(database.JobPending, 0)
	require.NoError(t, database.CreateJob(ctx, db, job))

	require.NoError(t, database.MarkJobRunning(ctx, db, job.Id))
	running, err := database.GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobRunning, running.Status)
	assert.True(t, running.StartedAt.Valid)
	assert.False(t, running.CompletedAt.Valid)
	assert.False(t, running.ProcessingTimeMs.Valid)

	require.NoError(t, database.MarkJobCompleted(ctx, db, job.Id, []byte(`{"keys_touched":4}`)))
	completed, err := database.GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, completed.Status)
	assert.True(t, completed.CompletedAt.Valid)
	assert.True(t, completed.ProcessingTimeMs.Valid)
	assert.JSONEq(t, `{"keys_touched":4}`, string(completed.OutputData))
}

func TestMarkJobFailed_RecordsError(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	job := newJob(database.JobRunning, 0)
	job.StartedAt.Time = time.Now().UTC()
	job.StartedAt.Valid = true
	require.NoError(t, database.CreateJob(ctx, db, job))

	require.NoError(t, database.MarkJobFailed(ctx, db, job.Id, "rollup failed for 1 of 4 dimensions", []byte(`{"dimensions":{"school":"ok"}}`)))

	failed, err := database.GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobFailed, failed.Status)
	assert.Equal(t, "rollup failed for 1 of 4 dimensions", failed.ErrorDetails.String)
	assert.NotEmpty(t, failed.OutputData, "partial summary survives the failure")
}
