package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"edusight-backend/internal/core/utils"
	"edusight-backend/internal/database"
	"edusight-backend/pkg/api"

	"gorm.io/datatypes"
)

const (
	SkillCognitive        = "Cognitive"
	SkillPractical        = "Practical"
	SkillSocial           = "Social"
	SkillCriticalThinking = "Critical Thinking"
	SkillCreativity       = "Creativity"
	SkillCommunication    = "Communication"
	SkillProblemSolving   = "Problem Solving"
)

const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendStable   = "stable"

	TrendImproving = "improving"
	TrendDeclining = "declining"

	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

const (
	atRiskThreshold       = 60.0
	topPerformerThreshold = 85.0
	passThreshold         = 40.0
	excellenceThreshold   = 85.0

	trendDelta      = 2.0
	maxSkillDelta   = 10.0
	maxParallelDims = 6
)

// RollupSummary records the per-dimension outcome of one rollup. It is
// persisted in the job's output so a failed job still shows exactly which
// dimensions landed before the failure.
type RollupSummary struct {
	Dimensions  map[string]string `json:"dimensions"`
	KeysTouched int               `json:"keys_touched"`
	Skipped     []string          `json:"skipped,omitempty"`
}

// RollupEngine fans one report out into incremental updates across the six
// aggregate dimensions. Updates touch disjoint keys and run concurrently;
// same-key contention is handled inside the AggregateStore.
type RollupEngine struct {
	store    *database.AggregateStore
	resolver SchoolResolver
	lookups  LookupTables
}

func NewRollupEngine(store *database.AggregateStore, resolver SchoolResolver, lookups LookupTables) *RollupEngine {
	return &RollupEngine{store: store, resolver: resolver, lookups: lookups}
}

type dimensionUpdate struct {
	name string
	run  func(ctx context.Context) (int, error)
}

type dimensionOutcome struct {
	name string
	keys int
	err  error
}

// Apply computes and applies every affected aggregate update for one report,
// waiting for all dimensions before returning. On failure the summary still
// reflects the dimensions that succeeded; the error lists the ones that did
// not.
func (e *RollupEngine) Apply(ctx context.Context, report api.ReportData) (RollupSummary, error) {
	summary := RollupSummary{Dimensions: make(map[string]string)}

	comp := ComputeEduSightScore(compositeInput(report))

	var region Region
	regionOk := false
	if report.SchoolId != "" {
		var err error
		region, regionOk, err = e.resolver.ResolveRegion(ctx, report.SchoolId)
		if err != nil {
			// Treat an unreachable directory like an unresolvable school:
			// region aggregates are skipped, the rest of the rollup proceeds.
			slog.Warn("could not resolve region for school", "school_id", report.SchoolId, "error", err)
			regionOk = false
		}
	}

	updates := []dimensionUpdate{
		{name: "subject", run: func(ctx context.Context) (int, error) { return e.updateSubjects(ctx, report) }},
		{name: "skill", run: func(ctx context.Context) (int, error) { return e.updateSkills(ctx, report) }},
		{name: "domain", run: func(ctx context.Context) (int, error) { return e.updateDomains(ctx, report) }},
		{name: "master", run: func(ctx context.Context) (int, error) {
			return e.updateMaster(ctx, report, comp, region, regionOk)
		}},
	}

	if report.SchoolId != "" {
		updates = append(updates, dimensionUpdate{name: "school", run: func(ctx context.Context) (int, error) {
			return e.updateSchool(ctx, report, comp)
		}})
	} else {
		summary.Skipped = append(summary.Skipped, "school")
	}

	if regionOk {
		updates = append(updates, dimensionUpdate{name: "region", run: func(ctx context.Context) (int, error) {
			return e.updateRegion(ctx, region, comp)
		}})
	} else {
		summary.Skipped = append(summary.Skipped, "region")
	}

	queue := make(chan dimensionUpdate, len(updates))
	for _, u := range updates {
		queue <- u
	}
	close(queue)

	completed := make(chan utils.CompletedTask[dimensionOutcome], len(updates))
	utils.RunInPool(func(u dimensionUpdate) (dimensionOutcome, error) {
		keys, err := u.run(ctx)
		return dimensionOutcome{name: u.name, keys: keys, err: err}, nil
	}, queue, completed, maxParallelDims)

	var failures []string
	for done := range completed {
		outcome := done.Result
		if outcome.err != nil {
			summary.Dimensions[outcome.name] = outcome.err.Error()
			failures = append(failures, fmt.Sprintf("%s: %v", outcome.name, outcome.err))
			continue
		}
		summary.Dimensions[outcome.name] = "ok"
		summary.KeysTouched += outcome.keys
	}

	if len(failures) > 0 {
		return summary, fmt.Errorf("rollup failed for %d of %d dimensions: %s", len(failures), len(updates), strings.Join(failures, "; "))
	}
	return summary, nil
}

func (e *RollupEngine) updateSchool(ctx context.Context, report api.ReportData, comp CompositeScore) (int, error) {
	in := compositeInput(report)

	err := e.store.UpsertSchool(ctx, report.SchoolId, func(rec *database.SchoolAnalytics, created bool) error {
		if in.Academic != nil {
			rec.AvgAcademicScore = incrementalMean(rec.AvgAcademicScore, rec.AcademicSamples, *in.Academic)
			rec.AcademicSamples++
		}
		if in.Physical != nil {
			rec.AvgPhysicalScore = incrementalMean(rec.AvgPhysicalScore, rec.PhysicalSamples, *in.Physical)
			rec.PhysicalSamples++
		}
		if in.Psychological != nil {
			rec.AvgPsychologicalScore = incrementalMean(rec.AvgPsychologicalScore, rec.PsychologicalSamples, *in.Psychological)
			rec.PsychologicalSamples++
		}

		rec.AvgOverallScore = incrementalMean(rec.AvgOverallScore, rec.StudentCount, comp.Score)
		rec.StudentCount++

		if comp.Score < atRiskThreshold {
			rec.AtRiskCount++
		}
		if comp.Score >= topPerformerThreshold {
			rec.TopPerformerCount++
		}
		rec.PerformanceTrend = performanceTrend(comp.Score)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error updating school analytics for %s: %w", report.SchoolId, err)
	}
	return 1, nil
}

func (e *RollupEngine) updateRegion(ctx context.Context, region Region, comp CompositeScore) (int, error) {
	err := e.store.UpsertRegion(ctx, region.Name, region.Type, func(rec *database.RegionAnalytics, created bool) error {
		rec.AvgPerformance = incrementalMean(rec.AvgPerformance, rec.StudentCount, comp.Score)
		rec.StudentCount++

		if comp.Score < atRiskThreshold {
			rec.AtRiskCount++
		}
		if comp.Score >= topPerformerThreshold {
			rec.TopPerformerCount++
		}
		rec.PerformanceTrend = performanceTrend(comp.Score)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error updating region analytics for %s/%s: %w", region.Type, region.Name, err)
	}
	return 1, nil
}

func (e *RollupEngine) updateSubjects(ctx context.Context, report api.ReportData) (int, error) {
	keys := 0
	for subject, score := range report.AcademicData.SubjectScores {
		err := e.store.UpsertSubject(ctx, subject, report.Framework, func(rec *database.SubjectAnalytics, created bool) error {
			if created {
				rec.Trend = TrendStable
			} else {
				rec.Trend = deltaTrend(score - rec.AvgScore)
			}

			rec.AvgScore = incrementalMean(rec.AvgScore, rec.SampleCount, score)
			rec.SampleCount++
			if score >= passThreshold {
				rec.PassCount++
			}
			if score >= excellenceThreshold {
				rec.ExcellenceCount++
			}
			rec.PassRate = float64(rec.PassCount) / float64(rec.SampleCount) * 100
			rec.ExcellenceRate = float64(rec.ExcellenceCount) / float64(rec.SampleCount) * 100
			rec.DifficultyLevel = difficultyLevel(rec.AvgScore)
			return nil
		})
		if err != nil {
			return keys, fmt.Errorf("error updating subject analytics for %s: %w", subject, err)
		}
		keys++
	}
	return keys, nil
}

func (e *RollupEngine) updateSkills(ctx context.Context, report api.ReportData) (int, error) {
	keys := 0
	for skill, level := range skillLevels(report.SkillsAssessment) {
		err := e.store.UpsertSkill(ctx, skill, func(rec *database.SkillMetrics, created bool) error {
			delta := 0.0
			if !created {
				delta = clamp(level-rec.AvgLevel, -maxSkillDelta, maxSkillDelta)
			}

			rec.DevelopmentRate = delta
			rec.Trend = deltaTrend(delta)
			rec.AvgLevel = incrementalMean(rec.AvgLevel, rec.SampleCount, level)
			rec.SampleCount++
			rec.ImportanceLevel = e.lookups.Importance(skill)
			return nil
		})
		if err != nil {
			return keys, fmt.Errorf("error updating skill metrics for %s: %w", skill, err)
		}
		keys++
	}
	return keys, nil
}

func (e *RollupEngine) updateDomains(ctx context.Context, report api.ReportData) (int, error) {
	keys := 0
	for _, domain := range ClassifyDomains(report.AcademicData.SubjectScores) {
		performance, hasScores := meanScore(DomainSubjectScores(domain, report.AcademicData.SubjectScores))
		profile := e.lookups.DomainProfile(domain)

		err := e.store.UpsertDomain(ctx, domain, func(rec *database.DomainInsights, created bool) error {
			if hasScores {
				rec.AvgPerformance = incrementalMean(rec.AvgPerformance, rec.SampleCount, performance)
				rec.SampleCount++
			}

			var err error
			if rec.CoreSkills, err = toJSON(profile.CoreSkills); err != nil {
				return err
			}
			if rec.EmergingSkills, err = toJSON(profile.EmergingSkills); err != nil {
				return err
			}
			if rec.CareerPaths, err = toJSON(profile.CareerPaths); err != nil {
				return err
			}
			if rec.RecommendedSubjects, err = toJSON(profile.RecommendedSubjects); err != nil {
				return err
			}
			rec.SalaryRange = profile.SalaryRange
			return nil
		})
		if err != nil {
			return keys, fmt.Errorf("error updating domain insights for %s: %w", domain, err)
		}
		keys++
	}
	return keys, nil
}

func (e *RollupEngine) updateMaster(ctx context.Context, report api.ReportData, comp CompositeScore, region Region, regionOk bool) (int, error) {
	type entity struct {
		dataType string
		entityId string
	}

	entities := []entity{
		{"student", report.StudentId},
	}
	if report.SchoolId != "" {
		entities = append(entities, entity{"school", report.SchoolId})
	}
	if regionOk {
		entities = append(entities, entity{"region", region.Name})
	}
	if report.Framework != "" {
		entities = append(entities, entity{"framework", report.Framework})
	}

	metrics := map[string]any{
		"edusight_score":   comp.Score,
		"reported_score":   report.EduSightScore,
		"normalized_score": comp.Normalized,
		"subject_count":    len(report.AcademicData.SubjectScores),
	}
	predictions := map[string]any{
		"risk_level":    riskLevel(comp),
		"top_performer": comp.Score >= topPerformerThreshold,
	}
	trends := map[string]any{
		"direction": performanceTrend(comp.Score),
	}

	metricsJSON, err := toJSON(metrics)
	if err != nil {
		return 0, err
	}
	predictionsJSON, err := toJSON(predictions)
	if err != nil {
		return 0, err
	}
	trendsJSON, err := toJSON(trends)
	if err != nil {
		return 0, err
	}

	keys := 0
	for _, ent := range entities {
		err := e.store.UpsertMaster(ctx, ent.dataType, ent.entityId, func(rec *database.MasterAnalytics, created bool) error {
			rec.Metrics = metricsJSON
			rec.Predictions = predictionsJSON
			rec.Trends = trendsJSON
			return nil
		})
		if err != nil {
			return keys, fmt.Errorf("error updating master analytics for %s/%s: %w", ent.dataType, ent.entityId, err)
		}
		keys++
	}
	return keys, nil
}

// incrementalMean folds one new value into a running mean with an explicit
// sample count, so concurrent same-key updates serialized by the store can
// never lose a contribution the way "average the two averages" does.
func incrementalMean(oldAvg float64, oldCount int64, value float64) float64 {
	return oldAvg + (value-oldAvg)/float64(oldCount+1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func performanceTrend(overall float64) string {
	switch {
	case overall >= 75:
		return TrendUpward
	case overall < atRiskThreshold:
		return TrendDownward
	default:
		return TrendStable
	}
}

func deltaTrend(delta float64) string {
	switch {
	case delta > trendDelta:
		return TrendImproving
	case delta < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func difficultyLevel(avg float64) string {
	switch {
	case avg >= 75:
		return DifficultyEasy
	case avg >= 50:
		return DifficultyModerate
	default:
		return DifficultyHard
	}
}

func riskLevel(comp CompositeScore) string {
	switch {
	case comp.NeedsAttention:
		return "high"
	case comp.Score < atRiskThreshold:
		return "moderate"
	default:
		return "low"
	}
}

func compositeInput(report api.ReportData) CompositeInput {
	in := CompositeInput{}

	if academic, ok := meanScore(report.AcademicData.SubjectScores); ok {
		in.Academic = &academic
	}
	if report.PhysicalAssessment != nil {
		if physical, ok := meanPresent(
			report.PhysicalAssessment.FitnessScore,
			report.PhysicalAssessment.Endurance,
			report.PhysicalAssessment.Strength,
			report.PhysicalAssessment.OverallHealth,
		); ok {
			in.Physical = &physical
		}
	}
	if report.PsychologicalAssessment != nil {
		if psych, ok := meanPresent(
			report.PsychologicalAssessment.EmotionalStability,
			report.PsychologicalAssessment.Motivation,
			report.PsychologicalAssessment.SocialAdaptability,
			report.PsychologicalAssessment.StressManagement,
		); ok {
			in.Psychological = &psych
		}
	}
	return in
}

func skillLevels(skills api.SkillsAssessment) map[string]float64 {
	levels := make(map[string]float64)

	add := func(name string, level *float64) {
		if level != nil {
			levels[name] = *level
		}
	}
	add(SkillCognitive, skills.Cognitive)
	add(SkillPractical, skills.Practical)
	add(SkillSocial, skills.Social)
	add(SkillCriticalThinking, skills.CriticalThinking)
	add(SkillCreativity, skills.Creativity)
	add(SkillCommunication, skills.Communication)
	add(SkillProblemSolving, skills.ProblemSolving)

	return levels
}

func meanScore(scores map[string]float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), true
}

func meanPresent(values ...*float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func toJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error marshalling aggregate field: %w", err)
	}
	return datatypes.JSON(b), nil
}
