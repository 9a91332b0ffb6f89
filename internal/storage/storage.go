// Package storage provides the optional result archive: emitted
// matrices and verdicts copied to a local directory or an object store.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kong-analysis/pkg/config"
)

// Storage defines the archive operations.
type Storage interface {
	// Upload stores the data under the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download retrieves the data stored under the given key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a locator for the key.
	GetURL(key string) string
}

// StorageType represents the type of archive backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a Storage instance based on the configuration.
func NewStorage(cfg *config.ArchiveConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the archive configuration.
func ValidateConfig(cfg *config.ArchiveConfig) error {
	if cfg == nil {
		return fmt.Errorf("archive config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return fmt.Errorf("local archive path is required")
		}
	default:
		return fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}

	return nil
}
