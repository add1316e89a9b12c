package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "/admin", cfg.Server.AdminPrefix)
	assert.Equal(t, "/rest", cfg.Server.RESTPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, filepath.Join(dir, "entities.yml"), cfg.Entities.Path)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoadFrom_File(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "")

	content := `
database:
  driver: postgres
  dsn: postgres://localhost/events
server:
  address: 127.0.0.1:9000
  admin_prefix: /manage
  rest_prefix: "-"
log:
  level: debug
  format: json
entities:
  path: /etc/customtables/entities.yml
locale: fr
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "customtables.yml"), []byte(content), 0o644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/events", cfg.Database.DSN)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, "/manage", cfg.Server.AdminPrefix)
	assert.Equal(t, "-", cfg.Server.RESTPrefix)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/etc/customtables/entities.yml", cfg.Entities.Path)
	assert.Equal(t, "fr", cfg.Locale)
}

func TestLoadFrom_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "postgresql://db/app")
	t.Setenv("CUSTOMTABLES_SERVER_ADDRESS", ":9999")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgresql://db/app", cfg.Database.DSN)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, ":9999", cfg.Server.Address)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prefix without slash", "server:\n  admin_prefix: admin\n"},
		{"prefix with trailing slash", "server:\n  admin_prefix: /admin/\n"},
		{"admin prefix disabled", "server:\n  admin_prefix: \"-\"\n"},
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("DATABASE_URL", "")
			require.NoError(t, os.WriteFile(filepath.Join(dir, "customtables.yml"), []byte(tt.content), 0o644))

			_, err := LoadFrom(dir)
			assert.Error(t, err)
		})
	}
}

func TestInProject(t *testing.T) {
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldWd)

	assert.False(t, InProject())
	require.NoError(t, os.WriteFile("customtables.yaml", []byte("locale: en\n"), 0o644))
	assert.True(t, InProject())
}
