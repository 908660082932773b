package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Fetcher.DefaultTimeout)
	assert.Equal(t, 1, cfg.Fetcher.Parallelism)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Security.EnableAuth)
	assert.Equal(t, "admin", cfg.Security.AdminRole)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "dataframe-gateway", cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: "9090"
database:
  driver: sqlite
  database: gateway.db
fetcher:
  default_timeout: 5s
  parallelism: 4
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))
	t.Setenv("FETCHER_USER_AGENT", "test-agent")

	cfg, err := LoadFrom(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Fetcher.DefaultTimeout)
	assert.Equal(t, 4, cfg.Fetcher.Parallelism)
	assert.Equal(t, "test-agent", cfg.Fetcher.UserAgent)
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(&DatabaseConfig{Driver: driver, Host: "db", Port: "1", Database: "x"})
		require.NoError(t, err)
		assert.NotNil(t, d)
	}

	_, err := Dialector(&DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDSNs(t *testing.T) {
	cfg := &DatabaseConfig{Host: "db", Port: "5432", Database: "gw", Username: "u", Password: "p w"}

	assert.Equal(t, "host=db port=5432 user=u password='p w' dbname=gw sslmode=disable", PostgresDSN(cfg))
	assert.Contains(t, MySQLDSN(cfg), "u:p w@tcp(db:5432)/gw")
	assert.Contains(t, MySQLDSN(cfg), "parseTime=true")
}
