package versions

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// The structs below are frozen copies of the schema at migration 0. They must
// not be changed; later schema changes get their own migration.

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

type MasterAnalytics struct {
	DataType string `gorm:"primaryKey;size:32"`
	EntityId string `gorm:"primaryKey;size:128"`

	Metrics     datatypes.JSON `gorm:"type:jsonb"`
	Predictions datatypes.JSON `gorm:"type:jsonb"`
	Trends      datatypes.JSON `gorm:"type:jsonb"`

	Version   int64 `gorm:"default:0"`
	UpdatedAt time.Time
}

type School struct {
	Id    string `gorm:"primaryKey;size:64"`
	Name  string `gorm:"not null"`
	City  string `gorm:"size:128"`
	State string `gorm:"size:128"`

	CreationTime time.Time
}

type ModelMetrics struct {
	ModelName string `gorm:"primaryKey;size:64"`

	TrainingDataCount int64 `gorm:"default:0"`
	Accuracy          float64
	Precision         float64
	Recall            float64
	F1Score           float64

	LastUpdated time.Time
}

func Migration0(txn *gorm.DB) error {
	return txn.AutoMigrate(
		&ProcessingJob{}, &SchoolAnalytics{}, &RegionAnalytics{}, &SubjectAnalytics{},
		&SkillMetrics{}, &DomainInsights{}, &MasterAnalytics{}, &School{}, &ModelMetrics{},
	)
}
