package db

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/questforge/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Mode: ModeMemory})
	require.NoError(t, err)

	var fk int
	require.NoError(t, gdb.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qf.db")
	gdb, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: path})
	require.NoError(t, err)
	require.NoError(t, gdb.Exec("CREATE TABLE t (id INTEGER)").Error)
}

func TestOpen_URLSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qf.db")
	gdb, err := Open(config.DatabaseConfig{Mode: ModeURL, URL: "sqlite:" + path})
	require.NoError(t, err)
	require.NoError(t, gdb.Exec("SELECT 1").Error)
}

func TestOpen_URLUnsupported(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: ModeURL, URL: "oracle://u:p@host/db"})
	assert.Error(t, err)
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "embedded"})
	assert.Error(t, err)
}
