package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/habedi/smoke/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitDB checks that the database file and its directory are created.
func TestInitDB(t *testing.T) {
	tempDir := t.TempDir()
	db.Path = filepath.Join(tempDir, "nested", "games.db")
	require.NoError(t, db.InitDB())

	_, statErr := os.Stat(db.Path)
	assert.NoError(t, statErr, "Database file should exist")
	assert.NotNil(t, db.GetDB())

	assert.NoError(t, db.CloseDB(), "CloseDB should not return an error")
	assert.Nil(t, db.GetDB())
}

// TestCloseDB_Idempotent checks that closing twice is harmless.
func TestCloseDB_Idempotent(t *testing.T) {
	db.Path = filepath.Join(t.TempDir(), "games.db")
	require.NoError(t, db.InitDB())
	require.NoError(t, db.CloseDB())
	assert.NoError(t, db.CloseDB())
}

func TestInitDB_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	db.Path = filepath.Join(blocker, "games.db")
	assert.Error(t, db.InitDB())
}
