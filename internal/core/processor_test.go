package core_test

import (
	"context"
	"testing"

	"edusight-backend/internal/core"
	"edusight-backend/internal/database"
	"edusight-backend/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollupProcessor_ProcessTask(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), nil, nil, "")
	ctx := context.Background()

	report := reportFixture()
	report.SchoolId = ""
	jobId, err := manager.CreateReportJob(ctx, report)
	require.NoError(t, err)

	queue := messaging.NewInMemoryQueue()
	require.NoError(t, queue.PublishReportAnalysisTask(ctx, messaging.ReportAnalysisPayload{JobId: jobId}))

	processor := core.NewRollupProcessor(manager, queue)
	processor.ProcessTask(<-queue.Tasks())

	job, err := database.GetJob(ctx, db, jobId)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, job.Status)
}

func TestRollupProcessor_MalformedPayload(t *testing.T) {
	db := createDB(t)
	manager := core.NewJobManager(db, newEngine(db), nil, nil, "")

	queue := messaging.NewInMemoryQueue()
	processor := core.NewRollupProcessor(manager, queue)

	// A payload referencing a job that does not exist is nacked, not retried
	// into a crash loop.
	require.NoError(t, queue.PublishReportAnalysisTask(context.Background(), messaging.ReportAnalysisPayload{}))
	task := <-queue.Tasks()
	processor.ProcessTask(task)

	jobs, err := database.ListJobs(context.Background(), db, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs, "a payload referencing a missing job creates nothing")
}
