package api

import (
	"time"

	"github.com/google/uuid"
)

// AcademicData carries the per-subject scores extracted from a finished
// assessment report, plus the derived strength/weakness lists.
type AcademicData struct {
	SubjectScores map[string]float64 `json:"subject_scores"`
	Strengths     []string           `json:"strengths,omitempty"`
	Weaknesses    []string           `json:"weaknesses,omitempty"`
}

// SkillsAssessment holds the seven tracked skill levels (0-100). A nil field
// means the skill was not assessed in this cycle.
type SkillsAssessment struct {
	Cognitive        *float64 `json:"cognitive,omitempty"`
	Practical        *float64 `json:"practical,omitempty"`
	Social           *float64 `json:"social,omitempty"`
	CriticalThinking *float64 `json:"critical_thinking,omitempty"`
	Creativity       *float64 `json:"creativity,omitempty"`
	Communication    *float64 `json:"communication,omitempty"`
	ProblemSolving   *float64 `json:"problem_solving,omitempty"`
}

type PsychologicalAssessment struct {
	EmotionalStability *float64 `json:"emotional_stability,omitempty"`
	Motivation         *float64 `json:"motivation,omitempty"`
	SocialAdaptability *float64 `json:"social_adaptability,omitempty"`
	StressManagement   *float64 `json:"stress_management,omitempty"`
}

type PhysicalAssessment struct {
	FitnessScore  *float64 `json:"fitness_score,omitempty"`
	Endurance     *float64 `json:"endurance,omitempty"`
	Strength      *float64 `json:"strength,omitempty"`
	OverallHealth *float64 `json:"overall_health,omitempty"`
}

// ReportData is the unit of input to the rollup pipeline: one finished
// assessment report. It is consumed exactly once and never mutated.
type ReportData struct {
	DocumentId uuid.UUID `json:"document_id"`
	StudentId  string    `json:"student_id"`
	SchoolId   string    `json:"school_id,omitempty"`
	Framework  string    `json:"framework"`

	AcademicData            AcademicData             `json:"academic_data"`
	SkillsAssessment        SkillsAssessment         `json:"skills_assessment"`
	PsychologicalAssessment *PsychologicalAssessment `json:"psychological_assessment,omitempty"`
	PhysicalAssessment      *PhysicalAssessment      `json:"physical_assessment,omitempty"`

	EduSightScore float64        `json:"edusight_score"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type SubmitReportResponse struct {
	JobId  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

type Job struct {
	Id               uuid.UUID  `json:"id"`
	JobType          string     `json:"job_type"`
	Status           string     `json:"status"`
	ErrorDetails     string     `json:"error_details,omitempty"`
	Output           any        `json:"output,omitempty"`
	CreationTime     time.Time  `json:"creation_time"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ProcessingTimeMs *int64     `json:"processing_time_ms,omitempty"`
}

type ListJobsRequest struct {
	Status string `schema:"status"`
	Limit  int    `schema:"limit"`
	Offset int    `schema:"offset"`
}

type SchoolAnalytics struct {
	SchoolId              string    `json:"school_id"`
	StudentCount          int64     `json:"student_count"`
	AvgAcademicScore      float64   `json:"avg_academic_score"`
	AvgPhysicalScore      float64   `json:"avg_physical_score"`
	AvgPsychologicalScore float64   `json:"avg_psychological_score"`
	AvgOverallScore       float64   `json:"avg_overall_score"`
	AtRiskCount           int64     `json:"at_risk_count"`
	TopPerformerCount     int64     `json:"top_performer_count"`
	PerformanceTrend      string    `json:"performance_trend"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type RegionAnalytics struct {
	RegionName        string    `json:"region_name"`
	RegionType        string    `json:"region_type"`
	StudentCount      int64     `json:"student_count"`
	AvgPerformance    float64   `json:"avg_performance"`
	AtRiskCount       int64     `json:"at_risk_count"`
	TopPerformerCount int64     `json:"top_performer_count"`
	PerformanceTrend  string    `json:"performance_trend"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SubjectAnalytics struct {
	SubjectName     string    `json:"subject_name"`
	Framework       string    `json:"framework"`
	SampleCount     int64     `json:"sample_count"`
	AvgScore        float64   `json:"avg_score"`
	PassRate        float64   `json:"pass_rate"`
	ExcellenceRate  float64   `json:"excellence_rate"`
	DifficultyLevel string    `json:"difficulty_level"`
	Trend           string    `json:"trend"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SkillMetrics struct {
	SkillName       string    `json:"skill_name"`
	SampleCount     int64     `json:"sample_count"`
	AvgLevel        float64   `json:"avg_level"`
	DevelopmentRate float64   `json:"development_rate"`
	Trend           string    `json:"trend"`
	ImportanceLevel string    `json:"importance_level"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type DomainInsights struct {
	DomainName          string    `json:"domain_name"`
	SampleCount         int64     `json:"sample_count"`
	AvgPerformance      float64   `json:"avg_performance"`
	CoreSkills          []string  `json:"core_skills"`
	EmergingSkills      []string  `json:"emerging_skills"`
	CareerPaths         []string  `json:"career_paths"`
	SalaryRange         string    `json:"salary_range"`
	RecommendedSubjects []string  `json:"recommended_subjects"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type MasterAnalytics struct {
	DataType    string    `json:"data_type"`
	EntityId    string    `json:"entity_id"`
	Metrics     any       `json:"metrics,omitempty"`
	Predictions any       `json:"predictions,omitempty"`
	Trends      any       `json:"trends,omitempty"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RegionQuery struct {
	Name string `schema:"name"`
	Type string `schema:"type"`
}

type SubjectQuery struct {
	Name      string `schema:"name"`
	Framework string `schema:"framework"`
}

type School struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

type RegisterSchoolRequest struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

type ModelMetrics struct {
	ModelName         string    `json:"model_name"`
	TrainingDataCount int64     `json:"training_data_count"`
	Accuracy          float64   `json:"accuracy"`
	Precision         float64   `json:"precision"`
	Recall            float64   `json:"recall"`
	F1Score           float64   `json:"f1_score"`
	LastUpdated       time.Time `json:"last_updated"`
}
