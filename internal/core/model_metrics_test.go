package core_test

import (
	"context"
	"testing"

	"edusight-backend/internal/core"
	"edusight-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelMetricsUpdater_CreatesAndIncrements(t *testing.T) {
	db := createDB(t)
	updater := core.NewModelMetricsUpdater(db, nil)
	ctx := context.Background()

	require.NoError(t, updater.RecordRollup(ctx))
	require.NoError(t, updater.RecordRollup(ctx))

	var all []database.ModelMetrics
	require.NoError(t, db.Find(&all).Error)
	require.Len(t, all, len(core.DefaultModelNames))

	for _, rec := range all {
		assert.Equal(t, int64(2), rec.TrainingDataCount)
		assert.Greater(t, rec.Accuracy, 0.70)
		assert.Less(t, rec.Accuracy, 0.95)
		assert.Greater(t, rec.F1Score, 0.0)
		assert.False(t, rec.LastUpdated.IsZero())
	}
}

func TestModelMetricsUpdater_AccuracyGrowsWithSamples(t *testing.T) {
	db := createDB(t)
	updater := core.NewModelMetricsUpdater(db, []string{"performance_predictor"})
	ctx := context.Background()

	require.NoError(t, updater.RecordRollup(ctx))
	var first database.ModelMetrics
	require.NoError(t, db.First(&first, "model_name = ?", "performance_predictor").Error)

	for i := 0; i < 10; i++ {
		require.NoError(t, updater.RecordRollup(ctx))
	}
	var later database.ModelMetrics
	require.NoError(t, db.First(&later, "model_name = ?", "performance_predictor").Error)

	assert.Greater(t, later.Accuracy, first.Accuracy)
	assert.Equal(t, int64(11), later.TrainingDataCount)
}
