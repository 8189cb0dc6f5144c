package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/audit"
	"github.com/mind-engage/triangle-practice/internal/config"
	"github.com/mind-engage/triangle-practice/internal/records"
)

func TestNew_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		DBDriver:     "sqlite",
		DBDSN:        "file:" + filepath.Join(dir, "app.db"),
		BlobDriver:   "fs",
		BlobBasePath: filepath.Join(dir, "blobs"),
		PageSize:     100,
	}
	a := New(context.Background(), cfg, zap.NewNop())
	defer a.DB.Close()

	_, ok := a.SQL()
	assert.True(t, ok)
	assert.IsType(t, &audit.EventRepo{}, a.Audit)
	assert.NotNil(t, a.Snapshots)
	assert.NotNil(t, a.Dashboard())
}

func TestNew_Fallbacks(t *testing.T) {
	cfg := config.Config{DBDriver: "postgres", DBDSN: "postgres://127.0.0.1:1/none?sslmode=disable&connect_timeout=1", BlobDriver: "carrier-pigeon"}
	a := New(context.Background(), cfg, zap.NewNop())
	assert.Equal(t, records.Unavailable{}, a.Store)
	assert.Equal(t, audit.Discard{}, a.Audit)
	assert.Nil(t, a.Blobs)
	assert.Nil(t, a.Snapshots)
	_, ok := a.SQL()
	assert.False(t, ok)
}

func TestNew_Memory(t *testing.T) {
	a := New(context.Background(), config.Config{DBDriver: "memory", BlobBasePath: t.TempDir()}, zap.NewNop())
	require.IsType(t, &records.MemStore{}, a.Store)
	assert.Nil(t, a.DB)
}
