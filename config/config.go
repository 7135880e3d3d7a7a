package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	flag "github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/benz9527/xrbtree/lib/infra"
)

const (
	EnvPrefix = "RBT_"
	delim     = "."
)

const (
	ModeShell = "shell"
	ModeSoak  = "soak"

	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
)

// ErrUnknownConfigFormat is returned if the config file is neither JSON nor YAML.
var ErrUnknownConfigFormat = errors.New("unknown config file format")

type LogConfig struct {
	Level   string `koanf:"level"`
	Encoder string `koanf:"encoder"`
	Color   bool   `koanf:"color"`
	Time    string `koanf:"time"`
}

type SoakConfig struct {
	Workers  int    `koanf:"workers"`
	Rounds   int    `koanf:"rounds"`
	Ops      int    `koanf:"ops"`
	Keyspace int    `koanf:"keyspace"`
	Check    int    `koanf:"check"`
	Seed     uint64 `koanf:"seed"`
}

type MetricsConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Exporter string        `koanf:"exporter"`
	Interval time.Duration `koanf:"interval"`
	Listen   string        `koanf:"listen"`
}

type Config struct {
	Mode    string        `koanf:"mode"`
	Log     LogConfig     `koanf:"log"`
	Soak    SoakConfig    `koanf:"soak"`
	Metrics MetricsConfig `koanf:"metrics"`
}

func defaults() map[string]any {
	return map[string]any{
		"mode":             ModeShell,
		"log.level":        "DEBUG",
		"log.encoder":      "plaintext",
		"log.color":        false,
		"log.time":         "iso8601",
		"soak.workers":     4,
		"soak.rounds":      8,
		"soak.ops":         10000,
		"soak.keyspace":    2048,
		"soak.check":       64,
		"soak.seed":        uint64(0),
		"metrics.enabled":  false,
		"metrics.exporter": ExporterStdout,
		"metrics.interval": "10s",
		"metrics.listen":   "127.0.0.1:9464",
	}
}

func flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("rbtree", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("config", "", "JSON or YAML config file")
	fs.String("mode", ModeShell, "run mode, shell or soak")
	fs.String("log.level", "DEBUG", "log level, DEBUG, INFO, WARN or ERROR")
	fs.String("log.encoder", "plaintext", "log encoder, plaintext or json")
	fs.Bool("log.color", false, "colored log levels")
	fs.String("log.time", "iso8601", "log time format, iso8601, rfc3339, rfc3339nano or epoch")
	fs.Int("soak.workers", 4, "soak pool size")
	fs.Int("soak.rounds", 8, "soak jobs, each one owns a tree")
	fs.Int("soak.ops", 10000, "random operations per soak job")
	fs.Int("soak.keyspace", 2048, "soak keys are drawn from [0, keyspace)")
	fs.Int("soak.check", 64, "validate the tree every check operations")
	fs.Uint64("soak.seed", 0, "soak seed, 0 is time based")
	fs.Bool("metrics.enabled", false, "export tree metrics")
	fs.String("metrics.exporter", ExporterStdout, "metrics exporter, stdout or prometheus")
	fs.Duration("metrics.interval", 10*time.Second, "stdout metrics export interval")
	fs.String("metrics.listen", "127.0.0.1:9464", "prometheus metrics listen address")
	return fs
}

// Usage returns the flag descriptions.
func Usage() string {
	return flagSet().FlagUsages()
}

// Load layers the defaults, the optional --config file, the RBT_ env vars
// and the command line flags, later ones win. args exclude the program name.
func Load(args []string) (*Config, error) {
	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, infra.WrapErrorStack(err, "parse flags")
	}

	k := koanf.New(delim)
	if err := k.Load(confmap.Provider(defaults(), delim), nil); err != nil {
		return nil, infra.WrapErrorStack(err, "load defaults")
	}

	if path, _ := fs.GetString("config"); len(path) > 0 {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	// Only keys with a default are accepted from the env vars.
	if err := k.Load(env.Provider(EnvPrefix, delim, func(s string) string {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", delim)
		if !k.Exists(key) {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, infra.WrapErrorStack(err, "load env vars")
	}

	if err := k.Load(posflag.Provider(fs, delim, k), nil); err != nil {
		return nil, infra.WrapErrorStack(err, "load flags")
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, infra.WrapErrorStack(err, "unmarshal config")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, infra.WrapErrorStack(err, "invalid config")
	}
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parser = json.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return infra.WrapErrorStack(ErrUnknownConfigFormat, path)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return infra.WrapErrorStack(err, "load config file "+path)
	}
	return nil
}

func (cfg *Config) normalize() {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.Log.Level = strings.ToUpper(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Encoder = strings.ToLower(strings.TrimSpace(cfg.Log.Encoder))
	cfg.Log.Time = strings.ToLower(strings.TrimSpace(cfg.Log.Time))
	cfg.Metrics.Exporter = strings.ToLower(strings.TrimSpace(cfg.Metrics.Exporter))
}

// Validate combines every invalid field into one error.
func (cfg *Config) Validate() error {
	var err error
	switch cfg.Mode {
	case ModeShell, ModeSoak:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown mode %q", cfg.Mode))
	}
	switch cfg.Log.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log level %q", cfg.Log.Level))
	}
	switch cfg.Log.Encoder {
	case "plaintext", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log encoder %q", cfg.Log.Encoder))
	}
	switch cfg.Log.Time {
	case "iso8601", "rfc3339", "rfc3339nano", "epoch":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log time format %q", cfg.Log.Time))
	}
	for _, size := range []struct {
		name string
		v    int
	}{
		{"soak.workers", cfg.Soak.Workers},
		{"soak.rounds", cfg.Soak.Rounds},
		{"soak.ops", cfg.Soak.Ops},
		{"soak.keyspace", cfg.Soak.Keyspace},
		{"soak.check", cfg.Soak.Check},
	} {
		if size.v <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %d", size.name, size.v))
		}
	}
	switch cfg.Metrics.Exporter {
	case ExporterStdout:
		if cfg.Metrics.Interval <= 0 {
			err = multierr.Append(err, fmt.Errorf("metrics.interval must be positive, got %s", cfg.Metrics.Interval))
		}
	case ExporterPrometheus:
		if len(cfg.Metrics.Listen) == 0 {
			err = multierr.Append(err, errors.New("metrics.listen is empty"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown metrics exporter %q", cfg.Metrics.Exporter))
	}
	return err
}
