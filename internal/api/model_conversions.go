package api

import (
	"encoding/json"
	"log/slog"

	"edusight-backend/internal/database"
	"edusight-backend/pkg/api"

	"gorm.io/datatypes"
)

func convertJob(j database.ProcessingJob) api.Job {
	job := api.Job{
		Id:           j.Id,
		JobType:      j.JobType,
		Status:       j.Status,
		CreationTime: j.CreationTime,
	}
	if j.ErrorDetails.Valid {
		job.ErrorDetails = j.ErrorDetails.String
	}
	if j.StartedAt.Valid {
		job.StartedAt = &j.StartedAt.Time
	}
	if j.CompletedAt.Valid {
		job.CompletedAt = &j.CompletedAt.Time
	}
	if j.ProcessingTimeMs.Valid {
		job.ProcessingTimeMs = &j.ProcessingTimeMs.Int64
	}
	if len(j.OutputData) > 0 {
		job.Output = rawJSON(j.OutputData)
	}
	return job
}

func convertJobs(js []database.ProcessingJob) []api.Job {
	jobs := make([]api.Job, 0, len(js))
	for _, j := range js {
		jobs = append(jobs, convertJob(j))
	}
	return jobs
}

func convertSchoolAnalytics(rec database.SchoolAnalytics) api.SchoolAnalytics {
	return api.SchoolAnalytics{
		SchoolId:              rec.SchoolId,
		StudentCount:          rec.StudentCount,
		AvgAcademicScore:      rec.AvgAcademicScore,
		AvgPhysicalScore:      rec.AvgPhysicalScore,
		AvgPsychologicalScore: rec.AvgPsychologicalScore,
		AvgOverallScore:       rec.AvgOverallScore,
		AtRiskCount:           rec.AtRiskCount,
		TopPerformerCount:     rec.TopPerformerCount,
		PerformanceTrend:      rec.PerformanceTrend,
		UpdatedAt:             rec.UpdatedAt,
	}
}

func convertRegionAnalytics(rec database.RegionAnalytics) api.RegionAnalytics {
	return api.RegionAnalytics{
		RegionName:        rec.RegionName,
		RegionType:        rec.RegionType,
		StudentCount:      rec.StudentCount,
		AvgPerformance:    rec.AvgPerformance,
		AtRiskCount:       rec.AtRiskCount,
		TopPerformerCount: rec.TopPerformerCount,
		PerformanceTrend:  rec.PerformanceTrend,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func convertSubjectAnalytics(rec database.SubjectAnalytics) api.SubjectAnalytics {
	return api.SubjectAnalytics{
		SubjectName:     rec.SubjectName,
		Framework:       rec.Framework,
		SampleCount:     rec.SampleCount,
		AvgScore:        rec.AvgScore,
		PassRate:        rec.PassRate,
		ExcellenceRate:  rec.ExcellenceRate,
		DifficultyLevel: rec.DifficultyLevel,
		Trend:           rec.Trend,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func convertSkillMetrics(rec database.SkillMetrics) api.SkillMetrics {
	return api.SkillMetrics{
		SkillName:       rec.SkillName,
		SampleCount:     rec.SampleCount,
		AvgLevel:        rec.AvgLevel,
		DevelopmentRate: rec.DevelopmentRate,
		Trend:           rec.Trend,
		ImportanceLevel: rec.ImportanceLevel,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func convertDomainInsights(rec database.DomainInsights) api.DomainInsights {
	return api.DomainInsights{
		DomainName:          rec.DomainName,
		SampleCount:         rec.SampleCount,
		AvgPerformance:      rec.AvgPerformance,
		CoreSkills:          stringList(rec.CoreSkills),
		EmergingSkills:      stringList(rec.EmergingSkills),
		CareerPaths:         stringList(rec.CareerPaths),
		SalaryRange:         rec.SalaryRange,
		RecommendedSubjects: stringList(rec.RecommendedSubjects),
		UpdatedAt:           rec.UpdatedAt,
	}
}

func convertMasterAnalytics(rec database.MasterAnalytics) api.MasterAnalytics {
	return api.MasterAnalytics{
		DataType:    rec.DataType,
		EntityId:    rec.EntityId,
		Metrics:     rawJSON(rec.Metrics),
		Predictions: rawJSON(rec.Predictions),
		Trends:      rawJSON(rec.Trends),
		Version:     rec.Version,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func convertSchool(rec database.School) api.School {
	return api.School{
		Id:    rec.Id,
		Name:  rec.Name,
		City:  rec.City,
		State: rec.State,
	}
}

func convertModelMetrics(rec database.ModelMetrics) api.ModelMetrics {
	return api.ModelMetrics{
		ModelName:         rec.ModelName,
		TrainingDataCount: rec.TrainingDataCount,
		Accuracy:          rec.Accuracy,
		Precision:         rec.Precision,
		Recall:            rec.Recall,
		F1Score:           rec.F1Score,
		LastUpdated:       rec.LastUpdated,
	}
}

func stringList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Error("error decoding stored string list", "error", err)
		return nil
	}
	return out
}

func rawJSON(data datatypes.JSON) any {
	if len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}
