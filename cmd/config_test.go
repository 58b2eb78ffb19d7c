package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("database-url", "", "")
	c.Flags().String("dir", defaultMigrationsDir, "")
	c.Flags().String("schema", defaultSchemaFile, "")
	c.Flags().String("log-level", defaultLogLevel, "")
	return c
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SCHEMASYNC_DATABASE_URL", "")
	t.Setenv("SCHEMASYNC_MIGRATIONS_DIR", "")

	dir := t.TempDir()
	file := filepath.Join(dir, "schemasync.yaml")
	require.NoError(t, os.WriteFile(file, []byte("database_url: sqlite://from-file.db\nmigrations_dir: db/migrations\n"), 0644))

	tests := []struct {
		name    string
		env     map[string]string
		flags   map[string]string
		wantURL string
		wantDir string
	}{
		{
			name:    "config file",
			wantURL: "sqlite://from-file.db",
			wantDir: "db/migrations",
		},
		{
			name:    "DATABASE_URL overrides file",
			env:     map[string]string{"DATABASE_URL": "sqlite://from-env.db"},
			wantURL: "sqlite://from-env.db",
			wantDir: "db/migrations",
		},
		{
			name:    "flags override env",
			env:     map[string]string{"DATABASE_URL": "sqlite://from-env.db"},
			flags:   map[string]string{"database-url": "sqlite://from-flag.db", "dir": "other"},
			wantURL: "sqlite://from-flag.db",
			wantDir: "other",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			c := newTestCommand()
			for k, v := range tt.flags {
				require.NoError(t, c.Flags().Set(k, v))
			}

			v, err := loadConfig(c, file)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, v.GetString(cfgKeyDatabaseURL))
			assert.Equal(t, tt.wantDir, v.GetString(cfgKeyMigrationsDir))
			assert.Equal(t, defaultSchemaFile, v.GetString(cfgKeySchemaFile))
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(newTestCommand(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestOfflineDialect(t *testing.T) {
	t.Cleanup(func() { validateDialect = "" })

	v, err := loadConfig(newTestCommand(), "")
	require.NoError(t, err)
	cfg = v

	validateDialect = "mysql"
	d, err := offlineDialect()
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.String())

	validateDialect = ""
	cfg.Set(cfgKeyDatabaseURL, "sqlite://app.db")
	d, err = offlineDialect()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.String())

	cfg.Set(cfgKeyDatabaseURL, "")
	d, err = offlineDialect()
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.String())
}
