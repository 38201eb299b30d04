package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
server:
  host: "localhost"
  port: 8081
database:
  host: "localhost"
  port: 5432
  user: "app"
  database: "contracts"
  ssl_mode: "disable"
storage:
  root_dir: "/tmp/storage"
signing:
  secret: "0123456789abcdef0123456789abcdef"
`

func TestLoad(t *testing.T) {
	t.Run("DefaultsApplied", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, minimalConfig))
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Storage.Type)
		assert.Equal(t, "contracts", cfg.Storage.Bucket)
		assert.Equal(t, 10, cfg.Archive.DefaultRetentionYears)
		assert.Equal(t, "hu", cfg.Template.Locale)
		assert.Equal(t, "0 0 2 * * *", cfg.Scheduler.CleanupExpiredArchives)
		assert.Equal(t, "0 0 4 * * 0", cfg.Scheduler.ArchiveIntegrityAudit)
	})

	t.Run("ShortSigningSecretRejected", func(t *testing.T) {
		cfg := strings.Replace(minimalConfig, "0123456789abcdef0123456789abcdef", "short", 1)
		_, err := Load(writeConfig(t, cfg))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signing secret")
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("SIGNING_SECRET", "ffffffffffffffffffffffffffffffff")
		cfg, err := Load(writeConfig(t, minimalConfig))
		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "ffffffffffffffffffffffffffffffff", cfg.Signing.Secret)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("ConnectionString", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, minimalConfig))
		require.NoError(t, err)
		assert.Equal(t, "postgres://app:@localhost:5432/contracts?sslmode=disable", cfg.GetDatabaseConnectionString())
		assert.Equal(t, "localhost:8081", cfg.GetServerAddress())
	})
}
