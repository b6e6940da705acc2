package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendBlob, cfg.StoreBackend)
	assert.Equal(t, "catalog", cfg.BlobBucket)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "tape")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "eight-thousand")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBackendSelection(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
}
