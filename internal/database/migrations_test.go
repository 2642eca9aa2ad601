package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitSchemaCascadesRecommendations(t *testing.T) {
	b, err := migrationFS.ReadFile("migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	sql := string(b)

	assert.Contains(t, sql, "REFERENCES skin_analysis (analysis_id) ON DELETE CASCADE")
	assert.Contains(t, sql, "ENUM('Remedy', 'Product')")
	assert.Contains(t, sql, "ENUM('Pending', 'Verified', 'Flagged') NOT NULL DEFAULT 'Pending'")
}

func TestInitSchemaDownKeepsSharedTables(t *testing.T) {
	b, err := migrationFS.ReadFile("migrations/000001_init_schema.down.sql")
	require.NoError(t, err)
	sql := string(b)

	assert.Contains(t, sql, "DROP TABLE IF EXISTS recommendations;")
	assert.Contains(t, sql, "DROP TABLE IF EXISTS admin;")
	assert.NotContains(t, sql, "DROP TABLE IF EXISTS users")
	assert.NotContains(t, sql, "DROP TABLE IF EXISTS skin_analysis")
}
