// Package config loads bcpredict settings: defaults, then an optional YAML
// file, then BCP_* environment variables.
package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/YuminosukeSato/bcpredict/pipeline"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
)

// EnvPrefix prefixes every environment override, e.g. BCP_MODEL_DIR.
const EnvPrefix = "BCP"

// Config is the complete application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" split_words:"true"`
	Model  ModelConfig  `yaml:"model" split_words:"true"`
	Train  TrainConfig  `yaml:"train" split_words:"true"`
	Server ServerConfig `yaml:"server" split_words:"true"`
	Log    LogConfig    `yaml:"log" split_words:"true"`
}

// DataConfig locates the dataset.
type DataConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

// ModelConfig locates the artifacts.
type ModelConfig struct {
	Dir   string `yaml:"dir" split_words:"true"`
	Watch bool   `yaml:"watch" split_words:"true"`
}

// TrainConfig holds the training hyperparameters.
type TrainConfig struct {
	TestSize float64 `yaml:"test_size" split_words:"true"`
	Seed     int64   `yaml:"seed" split_words:"true"`
	Stratify bool    `yaml:"stratify" split_words:"true"`
	C        float64 `yaml:"c" split_words:"true"`
	MaxIter  int     `yaml:"max_iter" split_words:"true"`
	Tol      float64 `yaml:"tol" split_words:"true"`
	Solver   string  `yaml:"solver" split_words:"true"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	ChartCacheSize  int           `yaml:"chart_cache_size" split_words:"true"`
}

// LogConfig configures the zerolog backend.
type LogConfig struct {
	Level      string `yaml:"level" split_words:"true"`
	Format     string `yaml:"format" split_words:"true"`
	File       string `yaml:"file" split_words:"true"`
	MaxSizeMB  int    `yaml:"max_size_mb" split_words:"true"`
	MaxBackups int    `yaml:"max_backups" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := pipeline.DefaultOptions()
	return Config{
		Data:  DataConfig{Path: "data/data.csv"},
		Model: ModelConfig{Dir: "artifacts"},
		Train: TrainConfig{
			TestSize: opts.TestSize,
			Seed:     opts.Seed,
			Stratify: opts.Stratify,
			C:        opts.C,
			MaxIter:  opts.MaxIter,
			Tol:      opts.Tol,
			Solver:   opts.Solver,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			ChartCacheSize:  256,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if c.Data.Path == "" {
		return errors.NewValidationError("data.path", "must not be empty", c.Data.Path)
	}
	if c.Model.Dir == "" {
		return errors.NewValidationError("model.dir", "must not be empty", c.Model.Dir)
	}
	if err := c.Train.Options().Validate(); err != nil {
		return errors.Wrap(err, "train")
	}
	if c.Server.Addr == "" {
		return errors.NewValidationError("server.addr", "must not be empty", c.Server.Addr)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.NewValidationError("server.request_timeout", "must be positive", c.Server.RequestTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.NewValidationError("server.shutdown_timeout", "must be positive", c.Server.ShutdownTimeout)
	}
	if c.Server.ChartCacheSize <= 0 {
		return errors.NewValidationError("server.chart_cache_size", "must be positive", c.Server.ChartCacheSize)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.NewValidationError("log.format", "must be json or console", c.Log.Format)
	}
	return nil
}

// Options converts the training settings for pipeline.Train.
func (t TrainConfig) Options() pipeline.Options {
	return pipeline.Options{
		TestSize: t.TestSize,
		Seed:     t.Seed,
		Stratify: t.Stratify,
		C:        t.C,
		MaxIter:  t.MaxIter,
		Tol:      t.Tol,
		Solver:   t.Solver,
	}
}

// LogOptions converts the logging settings for log.Setup.
func (l LogConfig) LogOptions() log.Options {
	return log.Options{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}
}
