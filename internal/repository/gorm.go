package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kong-analysis/pkg/model"
)

// GormResultRepository implements ResultRepository using GORM.
type GormResultRepository struct {
	db *gorm.DB
}

// NewGormResultRepository creates a new GormResultRepository.
func NewGormResultRepository(db *gorm.DB) *GormResultRepository {
	return &GormResultRepository{db: db}
}

// SaveResult stores a computed result, replacing any previous entry for
// the same net and mode.
func (r *GormResultRepository) SaveResult(ctx context.Context, result *model.Result) error {
	record := fromModel(result)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "net_digest"}, {Name: "mode"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// GetResult retrieves a cached result, or nil when the cache misses.
func (r *GormResultRepository) GetResult(ctx context.Context, netDigest string, mode model.Mode) (*model.Result, error) {
	var record CachedResult

	err := r.db.WithContext(ctx).
		Where("net_digest = ? AND mode = ?", netDigest, string(mode)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query result: %w", err)
	}

	return record.ToModel(), nil
}

// DeleteResult drops a cached entry.
func (r *GormResultRepository) DeleteResult(ctx context.Context, netDigest string, mode model.Mode) error {
	err := r.db.WithContext(ctx).
		Where("net_digest = ? AND mode = ?", netDigest, string(mode)).
		Delete(&CachedResult{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}
