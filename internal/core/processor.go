package core

import (
	"context"
	"encoding/json"
	"log/slog"

	"edusight-backend/internal/messaging"
)

// RollupProcessor drains report-analysis tasks from the queue and drives each
// referenced job through the JobManager.
type RollupProcessor struct {
	jobs     *JobManager
	receiver messaging.Receiver
}

func NewRollupProcessor(jobs *JobManager, receiver messaging.Receiver) *RollupProcessor {
	return &RollupProcessor{
		jobs:     jobs,
		receiver: receiver,
	}
}

func (proc *RollupProcessor) Start() {
	slog.Info("starting rollup processor")

	for task := range proc.receiver.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *RollupProcessor) Stop() {
	slog.Info("stopping rollup processor")

	proc.receiver.Close()
}

func (proc *RollupProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var err error
	switch task.Type() {

	case messaging.ReportAnalysisQueue:
		var payload messaging.ReportAnalysisPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling report analysis task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.jobs.RunJob(ctx, payload.JobId)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil { // reject unknown message type
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		// The job row is already terminal; dropping the message avoids a
		// redelivery loop on a payload that will fail again.
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}
