package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/shuttle-league/internal/config"
)

func TestNewDB_SQLiteUsesSingleConnection(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = filepath.Join(t.TempDir(), "league.db")

	gdb, err := NewDB(cfg)
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.True(t, gdb.Migrator().HasTable(&RatingChange{}), "schema is migrated on open")
}

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector("oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported db driver "oracle"`)
}
