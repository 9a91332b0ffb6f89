package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "net.pnml")
	require.NoError(t, os.WriteFile(path, []byte("<pnml/>"), 0644))

	first, err := DigestFile(path)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := DigestFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, os.WriteFile(path, []byte("<pnml></pnml>"), 0644))
	third, err := DigestFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestDigestFile_Missing(t *testing.T) {
	_, err := DigestFile(filepath.Join(t.TempDir(), "absent.pnml"))
	assert.Error(t, err)
}
