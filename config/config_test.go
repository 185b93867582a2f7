package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/bcpredict/pipeline"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bcpredict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, pipeline.DefaultOptions(), cfg.Train.Options())
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  path: /srv/wdbc.csv
model:
  dir: /srv/models
  watch: true
train:
  seed: 7
  stratify: true
server:
  request_timeout: 3s
log:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/wdbc.csv", cfg.Data.Path)
	assert.Equal(t, "/srv/models", cfg.Model.Dir)
	assert.True(t, cfg.Model.Watch)
	assert.Equal(t, int64(7), cfg.Train.Seed)
	assert.True(t, cfg.Train.Stratify)
	assert.Equal(t, 0.2, cfg.Train.TestSize, "unset keys keep their default")
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "model:\n  dir: /from/file\n")
	t.Setenv("BCP_MODEL_DIR", "/from/env")
	t.Setenv("BCP_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("BCP_TRAIN_TEST_SIZE", "0.25")
	t.Setenv("BCP_LOG_MAX_SIZE_MB", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Model.Dir)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 0.25, cfg.Train.TestSize)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)
}

func TestLoad_IgnoresUnprefixedVariables(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"shell path", "PATH", "/usr/local/bin:/usr/bin:/bin"},
		{"level", "LEVEL", "debug"},
		{"format", "FORMAT", "console"},
		{"file", "FILE", "/tmp/other.log"},
		{"dir", "DIR", "/elsewhere"},
		{"addr", "ADDR", "10.0.0.1:1"},
		{"c", "C", "0.001"},
		{"tol", "TOL", "0.5"},
		{"seed", "SEED", "not-a-number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, Default(), cfg)
		})
	}

	t.Run("prefixed data path", func(t *testing.T) {
		t.Setenv("PATH", "/usr/bin")
		t.Setenv("BCP_DATA_PATH", "/srv/wdbc.csv")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "/srv/wdbc.csv", cfg.Data.Path)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "train:\n  learning_rate: 0.1\n"))
		assert.Error(t, err)
	})

	t.Run("bad environment value", func(t *testing.T) {
		t.Setenv("BCP_TRAIN_SEED", "forty-two")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"empty data path", func(c *Config) { c.Data.Path = "" }, "data.path"},
		{"empty model dir", func(c *Config) { c.Model.Dir = "" }, "model.dir"},
		{"test size", func(c *Config) { c.Train.TestSize = 0 }, "test_size"},
		{"solver", func(c *Config) { c.Train.Solver = "sag" }, "solver"},
		{"timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, "server.request_timeout"},
		{"cache size", func(c *Config) { c.Server.ChartCacheSize = 0 }, "server.chart_cache_size"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}
