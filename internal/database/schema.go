package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobPending   string = "PENDING"
	JobRunning   string = "RUNNING"
	JobCompleted string = "COMPLETED"
	JobFailed    string = "FAILED"
)

const JobTypeReportAnalysis = "report_analysis"

// ProcessingJob tracks one rollup invocation for a single report. InputData
// holds the serialized report for audit/replay. CompletedAt and
// ProcessingTimeMs are set iff the status is terminal.
type ProcessingJob struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobType string    `gorm:"size:40;not null"`
	Status  string    `gorm:"size:20;not null"`

	InputData    datatypes.JSON `gorm:"type:jsonb"`
	OutputData   datatypes.JSON `gorm:"type:jsonb"`
	ErrorDetails sql.NullString

	CreationTime     time.Time
	StartedAt        sql.NullTime
	CompletedAt      sql.NullTime
	ProcessingTimeMs sql.NullInt64
}

// SchoolAnalytics is the per-school aggregate. The per-domain averages are
// true incremental means over their own sample counts; StudentCount is the
// total number of reports rolled into this row.
type SchoolAnalytics struct {
	SchoolId string `gorm:"primaryKey;size:64"`

	StudentCount         int64 `gorm:"default:0"`
	AcademicSamples      int64 `gorm:"default:0"`
	PhysicalSamples      int64 `gorm:"default:0"`
	PsychologicalSamples int64 `gorm:"default:0"`

	AvgAcademicScore      float64
	AvgPhysicalScore      float64
	AvgPsychologicalScore float64
	AvgOverallScore       float64

	AtRiskCount       int64  `gorm:"default:0"`
	TopPerformerCount int64  `gorm:"default:0"`
	PerformanceTrend  string `gorm:"size:20"`

	UpdatedAt time.Time
}

type RegionAnalytics struct {
	RegionName string `gorm:"primaryKey;size:128"`
	RegionType string `gorm:"primaryKey;size:32"`

	StudentCount      int64 `gorm:"default:0"`
	AvgPerformance    float64
	AtRiskCount       int64  `gorm:"default:0"`
	TopPerformerCount int64  `gorm:"default:0"`
	PerformanceTrend  string `gorm:"size:20"`

	UpdatedAt time.Time
}

type SubjectAnalytics struct {
	SubjectName string `gorm:"primaryKey;size:128"`
	Framework   string `gorm:"primaryKey;size:40"`

	SampleCount     int64 `gorm:"default:0"`
	AvgScore        float64
	PassCount       int64 `gorm:"default:0"`
	ExcellenceCount int64 `gorm:"default:0"`
	PassRate        float64
	ExcellenceRate  float64
	DifficultyLevel string `gorm:"size:20"`
	Trend           string `gorm:"size:20"`

	UpdatedAt time.Time
}

type SkillMetrics struct {
	SkillName string `gorm:"primaryKey;size:64"`

	SampleCount     int64 `gorm:"default:0"`
	AvgLevel        float64
	DevelopmentRate float64
	Trend           string `gorm:"size:20"`
	ImportanceLevel string `gorm:"size:20"`

	UpdatedAt time.Time
}

type DomainInsights struct {
	DomainName string `gorm:"primaryKey;size:64"`

	SampleCount    int64 `gorm:"default:0"`
	AvgPerformance float64

	CoreSkills          datatypes.JSON `gorm:"type:jsonb"`
	EmergingSkills      datatypes.JSON `gorm:"type:jsonb"`
	CareerPaths         datatypes.JSON `gorm:"type:jsonb"`
	SalaryRange         string         `gorm:"size:64"`
	RecommendedSubjects datatypes.JSON `gorm:"type:jsonb"`

	UpdatedAt time.Time
}

// MasterAnalytics is the generic cross-cutting aggregate keyed by
// (dataType, entityId). Version increments on every successful update.
type MasterAnalytics struct {
	DataType string `gorm:"primaryKey;size:32"`
	EntityId string `gorm:"primaryKey;size:128"`

	Metrics     datatypes.JSON `gorm:"type:jsonb"`
	Predictions datatypes.JSON `gorm:"type:jsonb"`
	Trends      datatypes.JSON `gorm:"type:jsonb"`

	Version   int64 `gorm:"default:0"`
	UpdatedAt time.Time
}

// School is the directory row backing the school -> region resolver.
type School struct {
	Id    string `gorm:"primaryKey;size:64"`
	Name  string `gorm:"not null"`
	City  string `gorm:"size:128"`
	State string `gorm:"size:128"`

	CreationTime time.Time
}

// ModelMetrics is the bookkeeping row for one named downstream model. The
// performance snapshot is synthetic; only TrainingDataCount and LastUpdated
// carry real signal.
type ModelMetrics struct {
	ModelName string `gorm:"primaryKey;size:64"`

	TrainingDataCount int64 `gorm:"default:0"`
	Accuracy          float64
	Precision         float64
	Recall            float64
	F1Score           float64

	LastUpdated time.Time
}
