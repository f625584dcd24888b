package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage:
  path: storage/storage.db
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "storage/storage.db", cfg.Storage.Path)
	assert.Equal(t, int32(10), cfg.Storage.MaxConns)
	assert.Equal(t, "localhost:8082", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0.0, cfg.Validation.MinGPA)
	assert.Equal(t, 4.0, cfg.Validation.MaxGPA)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage:
  driver: sqlite
  path: storage/storage.db
http_server:
  address: localhost:8082
`)
	t.Setenv("STORAGE_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/students")
	t.Setenv("VALIDATION_MAX_GPA", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/students", cfg.Storage.DSN)
	assert.Equal(t, 5.0, cfg.Validation.MaxGPA)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Env:        "dev",
			Storage:    Storage{Driver: DriverSQLite, Path: "db.sqlite"},
			HTTPServer: HTTPServer{Addr: ":8082"},
			Validation: Validation{MinGPA: 0, MaxGPA: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "sqlite with path", mutate: func(c *Config) {}},
		{name: "memory needs nothing", mutate: func(c *Config) { c.Storage = Storage{Driver: DriverMemory} }},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path is required",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Storage.Driver = DriverPostgres },
			wantErr: "storage.dsn is required",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mongo" },
			wantErr: `unknown storage driver "mongo"`,
		},
		{
			name:    "inverted gpa bounds",
			mutate:  func(c *Config) { c.Validation.MinGPA = 5 },
			wantErr: "min_gpa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
