package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kong-analysis/pkg/config"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.ArchiveConfig
		wantErr bool
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name: "local with path",
			cfg:  &config.ArchiveConfig{Type: "local", LocalPath: "/tmp/results"},
		},
		{
			name:    "local without path",
			cfg:     &config.ArchiveConfig{Type: "local"},
			wantErr: true,
		},
		{
			name: "cos complete",
			cfg: &config.ArchiveConfig{
				Type: "cos", Bucket: "b", Region: "ap-region",
				SecretID: "id", SecretKey: "key",
			},
		},
		{
			name:    "cos without credentials",
			cfg:     &config.ArchiveConfig{Type: "cos", Bucket: "b", Region: "r"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     &config.ArchiveConfig{Type: "s3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewStorage_Local(t *testing.T) {
	store, err := NewStorage(&config.ArchiveConfig{
		Type:      "local",
		LocalPath: t.TempDir(),
	})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "nets/philosophers/conc.txt", strings.NewReader("1\n11\n")))

	exists, err := store.Exists(ctx, "nets/philosophers/conc.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := store.Download(ctx, "nets/philosophers/conc.txt")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "1\n11\n", string(data))
}

func TestLocalStorage_Missing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	exists, err := store.Exists(context.Background(), "absent.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Download(context.Background(), "absent.txt")
	assert.Error(t, err)
}

func TestCOSStorage_GetURL(t *testing.T) {
	store, err := NewCOSStorage(&COSConfig{
		Bucket:    "results",
		Region:    "ap-region",
		SecretID:  "id",
		SecretKey: "key",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://results.cos.ap-region.myqcloud.com/nets/conc.txt",
		store.GetURL("nets/conc.txt"))
}

func TestNewCOSStorage_MissingConfig(t *testing.T) {
	_, err := NewCOSStorage(&COSConfig{Bucket: "b"})
	assert.Error(t, err)
}
