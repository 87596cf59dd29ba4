package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	backend "edusight-backend/internal/api"
	"edusight-backend/internal/core"
	"edusight-backend/internal/database"
	"edusight-backend/internal/messaging"
	"edusight-backend/pkg/api"

	"github.com/go-chi/chi/v5"
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

func createRouter(db *gorm.DB, queue messaging.Publisher) chi.Router {
	engine := core.NewRollupEngine(database.NewAggregateStore(db), core.NewDirectoryResolver(db), core.DefaultLookupTables())
	jobs := core.NewJobManager(db, engine, nil, nil, "")

	service := backend.NewBackendService(db, database.NewAggregateStore(db), jobs, queue)
	router := chi.NewRouter()
	service.AddRoutes(router)
	return router
}

func ptr(v float64) *float64 {
	return &v
}

func TestSubmitReport(t *testing.T) {
	db := createDB(t)
	queue := messaging.NewInMemoryQueue()
	router := createRouter(db, queue)

	report := api.ReportData{
		DocumentId: uuid.New(),
		StudentId:  "STU-1",
		SchoolId:   "SCH-1",
		Framework:  "CBSE",
		AcademicData: api.AcademicData{
			SubjectScores: map[string]float64{"Mathematics": 90},
		},
		SkillsAssessment: api.SkillsAssessment{CriticalThinking: ptr(80)},
	}

	body, err := json.Marshal(report)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response api.SubmitReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEqual(t, uuid.Nil, response.JobId)
	assert.Equal(t, database.JobPending, response.Status)

	// The job row exists and the task is on the queue.
	job, err := database.GetJob(context.Background(), db, response.JobId)
	require.NoError(t, err)
	assert.Equal(t, database.JobPending, job.Status)

	task := <-queue.Tasks()
	var payload messaging.ReportAnalysisPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, response.JobId, payload.JobId)
}

func TestSubmitReport_MissingStudentId(t *testing.T) {
	db := createDB(t)
	router := createRouter(db, messaging.NewInMemoryQueue())

	report := api.ReportData{DocumentId: uuid.New()}
	body, err := json.Marshal(report)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	jobs, err := database.ListJobs(context.Background(), db, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestListAndGetJobs(t *testing.T) {
	jobId := uuid.New()
	db := createDB(t,
		&database.ProcessingJob{Id: jobId, JobType: database.JobTypeReportAnalysis, Status: database.JobCompleted, CreationTime: time.Now()},
		&database.ProcessingJob{Id: uuid.New(), JobType: database.JobTypeReportAnalysis, Status: database.JobPending, CreationTime: time.Now()},
	)
	router := createRouter(db, messaging.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodGet, "/jobs?status=COMPLETED", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []api.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, jobId, jobs[0].Id)

	req = httptest.NewRequest(http.MethodGet, "/jobs/"+jobId.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var job api.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, database.JobCompleted, job.Status)
}

func TestGetJob_NotFound(t *testing.T) {
	router := createRouter(createDB(t), messaging.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	db := createDB(t,
		&database.SchoolAnalytics{SchoolId: "SCH-1", StudentCount: 5, AvgOverallScore: 82, PerformanceTrend: core.TrendUpward, UpdatedAt: time.Now()},
		&database.RegionAnalytics{RegionName: "Springfield", RegionType: "city", StudentCount: 12, AvgPerformance: 74, UpdatedAt: time.Now()},
		&database.SubjectAnalytics{SubjectName: "Mathematics", Framework: "CBSE", SampleCount: 7, AvgScore: 68, PassRate: 85, UpdatedAt: time.Now()},
		&database.SkillMetrics{SkillName: "Critical Thinking", SampleCount: 7, AvgLevel: 64, ImportanceLevel: core.ImportanceCritical, UpdatedAt: time.Now()},
	)
	router := createRouter(db, messaging.NewInMemoryQueue())

	t.Run("school", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/schools/SCH-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out api.SchoolAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, int64(5), out.StudentCount)
		assert.Equal(t, core.TrendUpward, out.PerformanceTrend)
	})

	t.Run("region defaulting type to city", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/regions?name=Springfield", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out api.RegionAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, int64(12), out.StudentCount)
	})

	t.Run("region requires name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/regions", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/subjects?name=Mathematics&framework=CBSE", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out api.SubjectAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.InDelta(t, 68, out.AvgScore, 1e-9)
	})

	t.Run("skill", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/skills/Critical%20Thinking", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out api.SkillMetrics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, core.ImportanceCritical, out.ImportanceLevel)
	})

	t.Run("missing rows are 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/schools/SCH-404", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMasterAnalyticsEndpoint(t *testing.T) {
	db := createDB(t, &database.MasterAnalytics{
		DataType: "student",
		EntityId: "STU-1",
		Metrics:  []byte(`{"edusight_score":94}`),
		Version:  2,
	})
	router := createRouter(db, messaging.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodGet, "/analytics/master/student/STU-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out api.MasterAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(2), out.Version)
	require.NotNil(t, out.Metrics)
}

func TestSchoolDirectory(t *testing.T) {
	db := createDB(t)
	router := createRouter(db, messaging.NewInMemoryQueue())

	body, err := json.Marshal(api.RegisterSchoolRequest{Id: "SCH-1", Name: "Springfield High", City: "Springfield", State: "IL"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/schools", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/schools/SCH-1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var school api.School
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &school))
	assert.Equal(t, "Springfield", school.City)

	req = httptest.NewRequest(http.MethodGet, "/schools", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var schools []api.School
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schools))
	assert.Len(t, schools, 1)
}

func TestRegisterSchool_MissingFields(t *testing.T) {
	router := createRouter(createDB(t), messaging.NewInMemoryQueue())

	body, err := json.Marshal(api.RegisterSchoolRequest{City: "Springfield"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/schools", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListModelMetrics(t *testing.T) {
	db := createDB(t,
		&database.ModelMetrics{ModelName: "performance_predictor", TrainingDataCount: 42, Accuracy: 0.8, LastUpdated: time.Now()},
		&database.ModelMetrics{ModelName: "risk_assessor", TrainingDataCount: 42, Accuracy: 0.75, LastUpdated: time.Now()},
	)
	router := createRouter(db, messaging.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []api.ModelMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "performance_predictor", out[0].ModelName)
	assert.Equal(t, int64(42), out[0].TrainingDataCount)
}

func TestHealth(t *testing.T) {
	router := createRouter(createDB(t), messaging.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
