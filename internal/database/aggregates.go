package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edusight-backend/internal/core/utils"

	"gorm.io/gorm"
)

// maxConcurrentKeys bounds the per-key lock table. Rollups touch a handful of
// keys each, so this is only reachable under pathological fan-in.
const maxConcurrentKeys = 4096

// AggregateStore provides read-modify-write access to the keyed aggregate
// tables. Writers for the same key are serialized: each upsert takes a
// per-key lock, then runs fetch + mutate + save inside one transaction, so
// two reports touching the same school (or subject, skill, ...) can never
// lose each other's contribution.
//
// The lock table is process-local, so all writers for a given database must
// live in one worker process. Running multiple worker replicas against the
// same postgres database would need row-level locking instead.
type AggregateStore struct {
	db    *gorm.DB
	locks utils.KeyedMutex
}

func NewAggregateStore(db *gorm.DB) *AggregateStore {
	return &AggregateStore{db: db, locks: utils.NewKeyedMutex(maxConcurrentKeys)}
}

// DB exposes the underlying handle for read-only queries.
func (s *AggregateStore) DB() *gorm.DB {
	return s.db
}

// upsertRecord locks the aggregate key, loads the current row (zero value if
// absent), applies mutate, and saves. mutate receives created=true when the
// row did not exist and must then fill in the key columns.
func upsertRecord[T any](ctx context.Context, s *AggregateStore, lockKey string, mutate func(rec *T, created bool) error, conds ...any) error {
	if err := s.locks.Lock(lockKey); err != nil {
		return fmt.Errorf("error locking aggregate key %s: %w", lockKey, err)
	}
	defer s.locks.Unlock(lockKey) //nolint:errcheck

	return s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var rec T
		created := false
		if err := txn.First(&rec, conds...).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("error loading aggregate %s: %w", lockKey, err)
			}
			created = true
		}

		if err := mutate(&rec, created); err != nil {
			return err
		}

		if err := txn.Save(&rec).Error; err != nil {
			return fmt.Errorf("error saving aggregate %s: %w", lockKey, err)
		}
		return nil
	})
}

func (s *AggregateStore) UpsertSchool(ctx context.Context, schoolId string, mutate func(rec *SchoolAnalytics, created bool) error) error {
	return upsertRecord(ctx, s, "school:"+schoolId, func(rec *SchoolAnalytics, created bool) error {
		if created {
			rec.SchoolId = schoolId
		}
		if err := mutate(rec, created); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}, "school_id = ?", schoolId)
}

func (s *AggregateStore) UpsertRegion(ctx context.Context, name, regionType string, mutate func(rec *RegionAnalytics, created bool) error) error {
	return upsertRecord(ctx, s, "region:"+regionType+":"+name, func(rec *RegionAnalytics, created bool) error {
		if created {
			rec.RegionName = name
			rec.RegionType = regionType
		}
		if err := mutate(rec, created); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}, "region_name = ? AND region_type = ?", name, regionType)
}

func (s *AggregateStore) UpsertSubject(ctx context.Context, name, framework string, mutate func(rec *SubjectAnalytics, created bool) error) error {
	return upsertRecord(ctx, s, "subject:"+framework+":"+name, func(rec *SubjectAnalytics, created bool) error {
		if created {
			rec.SubjectName = name
			rec.Framework = framework
		}
		if err := mutate(rec, created); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}, "subject_name = ? AND framework = ?", name, framework)
}

func (s *AggregateStore) UpsertSkill(ctx context.Context, name string, mutate func(rec *SkillMetrics, created bool) error) error {
	return upsertRecord(ctx, s, "skill:"+name, func(rec *SkillMetrics, created bool) error {
		if created {
			rec.SkillName = name
		}
		if err := mutate(rec, created); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}, "skill_name = ?", name)
}

func (s *AggregateStore) UpsertDomain(ctx context.Context, name string, mutate func(rec *DomainInsights, created bool) error) error {
	return upsertRecord(ctx, s, "domain:"+name, func(rec *DomainInsights, created bool) error {
		if created {
			rec.DomainName = name
		}
		if err := mutate(rec, created); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}, "domain_name = ?", name)
}

// UpsertMaster bumps the row version after mutate; the increment happens
// inside the same critical section as the save, so versions are strictly
// monotonic per key.
func (s *AggregateStore) UpsertMaster(ctx context.Context, dataType, entityId string, mutate func(rec *MasterAnalytics, created bool) error) error {
	return upsertRecord(ctx, s, "master:"+dataType+":"+entityId, func(rec *MasterAnalytics, created bool) error {
		if created {
			rec.DataType = dataType
			rec.EntityId = entityId
		}
		if err := mutate(rec, created); err != nil {
			return err
		}
		rec.Version++
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}, "data_type = ? AND entity_id = ?", dataType, entityId)
}

func (s *AggregateStore) GetSchool(ctx context.Context, schoolId string) (SchoolAnalytics, error) {
	var rec SchoolAnalytics
	err := s.db.WithContext(ctx).First(&rec, "school_id = ?", schoolId).Error
	return rec, err
}

func (s *AggregateStore) GetRegion(ctx context.Context, name, regionType string) (RegionAnalytics, error) {
	var rec RegionAnalytics
	err := s.db.WithContext(ctx).First(&rec, "region_name = ? AND region_type = ?", name, regionType).Error
	return rec, err
}

func (s *AggregateStore) GetSubject(ctx context.Context, name, framework string) (SubjectAnalytics, error) {
	var rec SubjectAnalytics
	err := s.db.WithContext(ctx).First(&rec, "subject_name = ? AND framework = ?", name, framework).Error
	return rec, err
}

func (s *AggregateStore) GetSkill(ctx context.Context, name string) (SkillMetrics, error) {
	var rec SkillMetrics
	err := s.db.WithContext(ctx).First(&rec, "skill_name = ?", name).Error
	return rec, err
}

func (s *AggregateStore) GetDomain(ctx context.Context, name string) (DomainInsights, error) {
	var rec DomainInsights
	err := s.db.WithContext(ctx).First(&rec, "domain_name = ?", name).Error
	return rec, err
}

func (s *AggregateStore) GetMaster(ctx context.Context, dataType, entityId string) (MasterAnalytics, error) {
	var rec MasterAnalytics
	err := s.db.WithContext(ctx).First(&rec, "data_type = ? AND entity_id = ?", dataType, entityId).Error
	return rec, err
}
