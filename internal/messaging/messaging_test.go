package messaging_test

import (
	"context"
	"encoding/json"
	"testing"

	"edusight-backend/internal/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_PublishAndReceive(t *testing.T) {
	queue := messaging.NewInMemoryQueue()

	jobId := uuid.New()
	require.NoError(t, queue.PublishReportAnalysisTask(context.Background(), messaging.ReportAnalysisPayload{JobId: jobId}))

	task := <-queue.Tasks()
	assert.Equal(t, messaging.ReportAnalysisQueue, task.Type())

	var payload messaging.ReportAnalysisPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, jobId, payload.JobId)

	assert.NoError(t, task.Ack())
}

func TestInMemoryQueue_CloseEndsTasks(t *testing.T) {
	queue := messaging.NewInMemoryQueue()

	require.NoError(t, queue.PublishReportAnalysisTask(context.Background(), messaging.ReportAnalysisPayload{JobId: uuid.New()}))
	tasks := queue.Tasks()
	queue.Close()

	_, ok := <-tasks
	assert.True(t, ok, "buffered task is still delivered")
	_, ok = <-tasks
	assert.False(t, ok, "channel is closed after draining")
}
