package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/config"
)

func TestDialector(t *testing.T) {
	for _, tc := range []struct {
		url  string
		name string
	}{
		{"sqlite:///health_management.db", "sqlite"},
		{"sqlite://tmp/x.db", "sqlite"},
		{"sqlite:x.db", "sqlite"},
		{"postgres://user:pw@localhost:5432/health", "postgres"},
		{"host=localhost user=u dbname=health sslmode=disable", "postgres"},
	} {
		d, err := Dialector(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.name, d.Name(), tc.url)
	}

	_, err := Dialector("")
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.db")
	db, err := Open(config.DatabaseConfig{URL: "sqlite:///" + path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, Migrate(db, zap.NewNop()))
	// Running twice must be harmless.
	require.NoError(t, Migrate(db, zap.NewNop()))

	for _, table := range []string{"pvt_results", "flanker_results", "efsi_results", "vas_results"} {
		assert.True(t, db.Migrator().HasTable(table), table)
		assert.True(t, db.Migrator().HasIndex(table, "idx_"+table+"_recent"), table)
	}
}
