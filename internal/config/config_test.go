package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, StoreYAML, cfg.Store)
	assert.Equal(t, "featurepolicy.settings.yml", cfg.SettingsFile)
	assert.Contains(t, cfg.SQLitePath, filepath.Join(".config", "fpadmin", "fpadmin.db"))
	assert.Equal(t, DefaultConfigName, cfg.ConfigName)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_ConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fpadmin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: SQLite\nsqlite_path: /tmp/fp.db\nlog_level: debug\n"), 0o644))
	t.Setenv("FPADMIN_LOG_LEVEL", "warn")

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/fp.db", cfg.SQLitePath)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestNew_MissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "yaml ok", cfg: Config{Store: StoreYAML, SettingsFile: "s.yml", ConfigName: "c"}},
		{name: "mariadb needs dsn", cfg: Config{Store: StoreMariaDB, ConfigName: "c"}, wantErr: "dsn"},
		{name: "sqlite needs path", cfg: Config{Store: StoreSQLite, ConfigName: "c"}, wantErr: "sqlite_path"},
		{name: "unknown store", cfg: Config{Store: "redis", ConfigName: "c"}, wantErr: "unknown store"},
		{name: "config name", cfg: Config{Store: StoreMariaDB, DSN: "x", ConfigName: " "}, wantErr: "config_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, "/etc/fpadmin.yaml", expandPath("/etc/fpadmin.yaml"))
	assert.Contains(t, expandPath("~/fp.yml"), "fp.yml")
	assert.NotContains(t, expandPath("~/fp.yml"), "~")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
