package repository

import (
	"time"

	"github.com/kong-analysis/pkg/model"
)

// CachedResult represents the cached_results table.
type CachedResult struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	NetName        string    `gorm:"column:net_name;type:varchar(255)"`
	NetDigest      string    `gorm:"column:net_digest;type:varchar(64);uniqueIndex:idx_net_mode"`
	Mode           string    `gorm:"column:mode;type:varchar(8);uniqueIndex:idx_net_mode"`
	Complete       bool      `gorm:"column:complete"`
	Places         int       `gorm:"column:places"`
	ReducedPlaces  int       `gorm:"column:reduced_places"`
	ReductionRatio float64   `gorm:"column:reduction_ratio"`
	Output         string    `gorm:"column:output;type:text"`
	Verdict        string    `gorm:"column:verdict;type:varchar(16)"`
	ReductionMs    int64     `gorm:"column:reduction_ms"`
	OracleMs       int64     `gorm:"column:oracle_ms"`
	LiftingMs      int64     `gorm:"column:lifting_ms"`
	ComputedAt     time.Time `gorm:"column:computed_at;autoCreateTime"`
}

// TableName returns the table name for CachedResult.
func (CachedResult) TableName() string {
	return "cached_results"
}

// ToModel converts CachedResult to model.Result.
func (r *CachedResult) ToModel() *model.Result {
	return &model.Result{
		NetName:        r.NetName,
		NetDigest:      r.NetDigest,
		Mode:           model.Mode(r.Mode),
		Complete:       r.Complete,
		Places:         r.Places,
		ReducedPlaces:  r.ReducedPlaces,
		ReductionRatio: r.ReductionRatio,
		Output:         r.Output,
		Verdict:        model.Verdict(r.Verdict),
		ReductionTime:  time.Duration(r.ReductionMs) * time.Millisecond,
		OracleTime:     time.Duration(r.OracleMs) * time.Millisecond,
		LiftingTime:    time.Duration(r.LiftingMs) * time.Millisecond,
		ComputedAt:     r.ComputedAt,
	}
}

// fromModel converts model.Result to CachedResult.
func fromModel(result *model.Result) *CachedResult {
	return &CachedResult{
		NetName:        result.NetName,
		NetDigest:      result.NetDigest,
		Mode:           string(result.Mode),
		Complete:       result.Complete,
		Places:         result.Places,
		ReducedPlaces:  result.ReducedPlaces,
		ReductionRatio: result.ReductionRatio,
		Output:         result.Output,
		Verdict:        string(result.Verdict),
		ReductionMs:    result.ReductionTime.Milliseconds(),
		OracleMs:       result.OracleTime.Milliseconds(),
		LiftingMs:      result.LiftingTime.Milliseconds(),
		ComputedAt:     result.ComputedAt,
	}
}
