package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ReportAnalysisQueue = "report_analysis_queue"
	RetryDelay          = 5 * time.Second
	MaxConnectRetry     = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// ReportAnalysisPayload references a pending job; the report itself lives in
// the job's input data so the broker never carries student records.
type ReportAnalysisPayload struct {
	JobId uuid.UUID
}

type Publisher interface {
	PublishReportAnalysisTask(ctx context.Context, payload ReportAnalysisPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
