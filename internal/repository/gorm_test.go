package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kong-analysis/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&CachedResult{}))
	return db
}

func sampleResult() *model.Result {
	return &model.Result{
		NetName:        "philosophers",
		NetDigest:      "abc123",
		Mode:           model.ModeConcurrency,
		Complete:       true,
		Places:         10,
		ReducedPlaces:  4,
		ReductionRatio: 60,
		Output:         "1\n11\n",
		ReductionTime:  120 * time.Millisecond,
		OracleTime:     340 * time.Millisecond,
		LiftingTime:    5 * time.Millisecond,
		ComputedAt:     time.Now(),
	}
}

func TestGormResultRepository_SaveAndGet(t *testing.T) {
	repo := NewGormResultRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveResult(ctx, sampleResult()))

	got, err := repo.GetResult(ctx, "abc123", model.ModeConcurrency)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "philosophers", got.NetName)
	assert.Equal(t, "1\n11\n", got.Output)
	assert.True(t, got.Complete)
	assert.Equal(t, 340*time.Millisecond, got.OracleTime)
}

func TestGormResultRepository_Miss(t *testing.T) {
	repo := NewGormResultRepository(setupTestDB(t))

	got, err := repo.GetResult(context.Background(), "missing", model.ModeDead)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormResultRepository_Upsert(t *testing.T) {
	repo := NewGormResultRepository(setupTestDB(t))
	ctx := context.Background()

	first := sampleResult()
	require.NoError(t, repo.SaveResult(ctx, first))

	second := sampleResult()
	second.Output = "1\n01\n"
	second.Complete = false
	require.NoError(t, repo.SaveResult(ctx, second))

	got, err := repo.GetResult(ctx, "abc123", model.ModeConcurrency)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1\n01\n", got.Output)
	assert.False(t, got.Complete)
}

func TestGormResultRepository_ModesDoNotCollide(t *testing.T) {
	repo := NewGormResultRepository(setupTestDB(t))
	ctx := context.Background()

	conc := sampleResult()
	require.NoError(t, repo.SaveResult(ctx, conc))

	dead := sampleResult()
	dead.Mode = model.ModeDead
	dead.Output = "00\n"
	require.NoError(t, repo.SaveResult(ctx, dead))

	got, err := repo.GetResult(ctx, "abc123", model.ModeDead)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "00\n", got.Output)

	got, err = repo.GetResult(ctx, "abc123", model.ModeConcurrency)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1\n11\n", got.Output)
}

func TestGormResultRepository_Delete(t *testing.T) {
	repo := NewGormResultRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveResult(ctx, sampleResult()))
	require.NoError(t, repo.DeleteResult(ctx, "abc123", model.ModeConcurrency))

	got, err := repo.GetResult(ctx, "abc123", model.ModeConcurrency)
	require.NoError(t, err)
	assert.Nil(t, got)
}
