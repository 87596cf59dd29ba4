package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"edusight-backend/internal/core"
	"edusight-backend/internal/database"
	"edusight-backend/internal/messaging"
	"edusight-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type BackendService struct {
	db        *gorm.DB
	store     *database.AggregateStore
	jobs      *core.JobManager
	publisher messaging.Publisher
}

func NewBackendService(db *gorm.DB, store *database.AggregateStore, jobs *core.JobManager, publisher messaging.Publisher) *BackendService {
	return &BackendService{db: db, store: store, jobs: jobs, publisher: publisher}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Post("/reports", RestHandler(s.SubmitReport))

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListJobs))
		r.Get("/{job_id}", RestHandler(s.GetJob))
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/schools/{school_id}", RestHandler(s.GetSchoolAnalytics))
		r.Get("/regions", RestHandler(s.GetRegionAnalytics))
		r.Get("/subjects", RestHandler(s.GetSubjectAnalytics))
		r.Get("/skills/{skill_name}", RestHandler(s.GetSkillMetrics))
		r.Get("/domains/{domain_name}", RestHandler(s.GetDomainInsights))
		r.Get("/master/{data_type}/{entity_id}", RestHandler(s.GetMasterAnalytics))
	})

	r.Route("/schools", func(r chi.Router) {
		r.Post("/", RestHandler(s.RegisterSchool))
		r.Get("/", RestHandler(s.ListSchools))
		r.Get("/{school_id}", RestHandler(s.GetSchool))
	})

	r.Get("/models", RestHandler(s.ListModelMetrics))
}

// SubmitReport validates the report, persists a pending job, and enqueues it
// for the rollup worker. The response is a handle, not a result.
func (s *BackendService) SubmitReport(r *http.Request) (any, error) {
	report, err := ParseRequest[api.ReportData](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	jobId, err := s.jobs.CreateReportJob(ctx, report)
	if err != nil {
		var invalidErr *core.ErrInvalidReport
		if errors.As(err, &invalidErr) {
			return nil, CodedErrorf(http.StatusUnprocessableEntity, "%s", invalidErr.Reason)
		}
		slog.Error("error creating report job", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create report job")
	}

	if err := s.publisher.PublishReportAnalysisTask(ctx, messaging.ReportAnalysisPayload{JobId: jobId}); err != nil {
		slog.Error("error publishing report analysis task", "job_id", jobId, "error", err)
		if markErr := database.MarkJobFailed(ctx, s.db, jobId, "failed to enqueue job", nil); markErr != nil {
			slog.Error("error marking unpublishable job as failed", "job_id", jobId, "error", markErr)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue report analysis task")
	}

	slog.Info("submitted report analysis job", "job_id", jobId, "student_id", report.StudentId)
	return api.SubmitReportResponse{JobId: jobId, Status: database.JobPending}, nil
}

func (s *BackendService) ListJobs(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListJobsRequest](r)
	if err != nil {
		return nil, err
	}

	jobs, err := database.ListJobs(r.Context(), s.db, params.Status, params.Limit, params.Offset)
	if err != nil {
		slog.Error("error listing jobs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing jobs")
	}

	return convertJobs(jobs), nil
}

func (s *BackendService) GetJob(r *http.Request) (any, error) {
	jobId, err := URLParamUUID(r, "job_id")
	if err != nil {
		return nil, err
	}

	job, err := database.GetJob(r.Context(), s.db, jobId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "job not found")
		}
		slog.Error("error getting job", "job_id", jobId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving job record")
	}

	return convertJob(job), nil
}

func (s *BackendService) GetSchoolAnalytics(r *http.Request) (any, error) {
	schoolId, err := URLParamString(r, "school_id")
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetSchool(r.Context(), schoolId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no analytics for school %s", schoolId)
		}
		slog.Error("error getting school analytics", "school_id", schoolId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving school analytics")
	}

	return convertSchoolAnalytics(rec), nil
}

func (s *BackendService) GetRegionAnalytics(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.RegionQuery](r)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "missing required query param 'name'")
	}
	if params.Type == "" {
		params.Type = core.RegionTypeCity
	}

	rec, err := s.store.GetRegion(r.Context(), params.Name, params.Type)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no analytics for region %s/%s", params.Type, params.Name)
		}
		slog.Error("error getting region analytics", "region", params.Name, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving region analytics")
	}

	return convertRegionAnalytics(rec), nil
}

func (s *BackendService) GetSubjectAnalytics(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.SubjectQuery](r)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "missing required query param 'name'")
	}

	rec, err := s.store.GetSubject(r.Context(), params.Name, params.Framework)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no analytics for subject %s", params.Name)
		}
		slog.Error("error getting subject analytics", "subject", params.Name, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving subject analytics")
	}

	return convertSubjectAnalytics(rec), nil
}

func (s *BackendService) GetSkillMetrics(r *http.Request) (any, error) {
	skillName, err := URLParamString(r, "skill_name")
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetSkill(r.Context(), skillName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no metrics for skill %s", skillName)
		}
		slog.Error("error getting skill metrics", "skill", skillName, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving skill metrics")
	}

	return convertSkillMetrics(rec), nil
}

func (s *BackendService) GetDomainInsights(r *http.Request) (any, error) {
	domainName, err := URLParamString(r, "domain_name")
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetDomain(r.Context(), domainName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no insights for domain %s", domainName)
		}
		slog.Error("error getting domain insights", "domain", domainName, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving domain insights")
	}

	return convertDomainInsights(rec), nil
}

func (s *BackendService) GetMasterAnalytics(r *http.Request) (any, error) {
	dataType, err := URLParamString(r, "data_type")
	if err != nil {
		return nil, err
	}
	entityId, err := URLParamString(r, "entity_id")
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetMaster(r.Context(), dataType, entityId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no analytics for %s/%s", dataType, entityId)
		}
		slog.Error("error getting master analytics", "data_type", dataType, "entity_id", entityId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving master analytics")
	}

	return convertMasterAnalytics(rec), nil
}

func (s *BackendService) RegisterSchool(r *http.Request) (any, error) {
	req, err := ParseRequest[api.RegisterSchoolRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Id == "" || req.Name == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "missing required fields: id, name")
	}

	school := database.School{
		Id:           req.Id,
		Name:         req.Name,
		City:         req.City,
		State:        req.State,
		CreationTime: time.Now().UTC(),
	}
	if err := s.db.WithContext(r.Context()).Save(&school).Error; err != nil {
		slog.Error("error registering school", "school_id", req.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to register school")
	}

	slog.Info("registered school", "school_id", school.Id, "city", school.City)
	return convertSchool(school), nil
}

func (s *BackendService) ListSchools(r *http.Request) (any, error) {
	var schools []database.School
	if err := s.db.WithContext(r.Context()).Order("name").Find(&schools).Error; err != nil {
		slog.Error("error listing schools", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing schools")
	}

	out := make([]api.School, 0, len(schools))
	for _, school := range schools {
		out = append(out, convertSchool(school))
	}
	return out, nil
}

func (s *BackendService) GetSchool(r *http.Request) (any, error) {
	schoolId, err := URLParamString(r, "school_id")
	if err != nil {
		return nil, err
	}

	var school database.School
	if err := s.db.WithContext(r.Context()).First(&school, "id = ?", schoolId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "school not found")
		}
		slog.Error("error getting school", "school_id", schoolId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving school record")
	}

	return convertSchool(school), nil
}

func (s *BackendService) ListModelMetrics(r *http.Request) (any, error) {
	var metrics []database.ModelMetrics
	if err := s.db.WithContext(r.Context()).Order("model_name").Find(&metrics).Error; err != nil {
		slog.Error("error listing model metrics", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing model metrics")
	}

	out := make([]api.ModelMetrics, 0, len(metrics))
	for _, rec := range metrics {
		out = append(out, convertModelMetrics(rec))
	}
	return out, nil
}
