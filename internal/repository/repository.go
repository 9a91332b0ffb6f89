// Package repository provides the optional result cache: computed
// matrices and vectors keyed by input net digest and computation mode.
package repository

import (
	"context"

	"github.com/kong-analysis/pkg/model"
)

// ResultRepository defines the cache operations.
type ResultRepository interface {
	// SaveResult stores a computed result, replacing any previous entry
	// for the same net and mode.
	SaveResult(ctx context.Context, result *model.Result) error

	// GetResult retrieves a cached result, or nil when the cache has no
	// entry for the net and mode.
	GetResult(ctx context.Context, netDigest string, mode model.Mode) (*model.Result, error)

	// DeleteResult drops a cached entry.
	DeleteResult(ctx context.Context, netDigest string, mode model.Mode) error
}
