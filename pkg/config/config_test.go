package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "reduce", cfg.Tools.Reduce)
	assert.Equal(t, "shrink", cfg.Tools.Shrink)
	assert.Equal(t, "caesar.bdd", cfg.Tools.CaesarBDD)
	assert.Equal(t, "sift", cfg.Tools.Sift)
	assert.Equal(t, 0, cfg.Oracle.Timeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
tools:
  caesar_bdd: /opt/cadp/bin/caesar.bdd
oracle:
  timeout: 60
  iterations: 100
cache:
  enabled: true
  type: sqlite
  path: /tmp/kong.db
`)

	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)

	assert.Equal(t, "/opt/cadp/bin/caesar.bdd", cfg.Tools.CaesarBDD)
	assert.Equal(t, "reduce", cfg.Tools.Reduce)
	assert.Equal(t, 60, cfg.Oracle.Timeout)
	assert.Equal(t, 100, cfg.Oracle.Iterations)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "/tmp/kong.db", cfg.Cache.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name: "sqlite cache requires path",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Type = "sqlite"
				c.Cache.Path = ""
			},
			wantErr: "cache path is required",
		},
		{
			name: "unknown cache type",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Type = "mongodb"
			},
			wantErr: "unsupported cache type",
		},
		{
			name: "postgres cache requires host",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Type = "postgres"
				c.Cache.Host = ""
			},
			wantErr: "cache host is required",
		},
		{
			name: "unknown archive type",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Type = "s3"
			},
			wantErr: "unsupported archive type",
		},
		{
			name: "negative oracle timeout",
			mutate: func(c *Config) {
				c.Oracle.Timeout = -1
			},
			wantErr: "timeout must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
