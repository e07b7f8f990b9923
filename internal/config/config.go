// Package config loads vecstore settings from defaults, an optional file,
// VECSTORE_* environment variables and bound CLI flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/viant/vecstore/index"
	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/vector"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the top-level configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Vector  VectorConfig  `mapstructure:"vector"`
	Index   IndexConfig   `mapstructure:"index"`
	Search  SearchConfig  `mapstructure:"search"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Migrate MigrateConfig `mapstructure:"migrate"`
}

// StorageConfig selects the backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// VectorConfig fixes the embedding size.
type VectorConfig struct {
	Dimensions int `mapstructure:"dimensions"`
}

// IndexConfig selects the SQLite search index.
type IndexConfig struct {
	Kind       string  `mapstructure:"kind"`
	Lists      int     `mapstructure:"lists"`
	Probes     int     `mapstructure:"probes"`
	Oversample int     `mapstructure:"oversample"`
	CoverBase  float64 `mapstructure:"cover_base"`
}

// SearchConfig holds defaults applied to requests that omit them.
type SearchConfig struct {
	MatchCount     int     `mapstructure:"match_count"`
	MatchThreshold float64 `mapstructure:"match_threshold"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LogConfig controls logrus.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MigrateConfig bounds Postgres migrations.
type MigrateConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers every key with its default so env overrides and flag
// bindings resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.dsn", "vecstore.db")
	v.SetDefault("vector.dimensions", vector.DefaultDimensions)
	v.SetDefault("index.kind", string(vector.IndexExact))
	v.SetDefault("index.lists", 100)
	v.SetDefault("index.probes", 10)
	v.SetDefault("index.oversample", 4)
	v.SetDefault("index.cover_base", 1.3)
	v.SetDefault("search.match_count", vector.DefaultMatchCount)
	v.SetDefault("search.match_threshold", vector.DefaultMatchThreshold)
	v.SetDefault("server.listen", "127.0.0.1:8089")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("migrate.timeout", time.Minute)
}

// New returns a viper instance with defaults and VECSTORE_ env overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("VECSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path (optional) over defaults and env.
func Load(path string) (*Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ReadFile merges the config file at path into v; an empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errs.Wrapf(err, errs.CodeConfigLoadReadFailure, "reading config %s", path)
	}
	return nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrapf(err, errs.CodeConfigValidateInvalidValue, "unmarshalling config")
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, errs.Wrapf(errors.Join(problems...), errs.CodeConfigValidateInvalidValue, "validating config")
	}
	return &cfg, nil
}

// Validate collects every configuration problem rather than stopping at the
// first.
func (c *Config) Validate() []error {
	var problems []error
	invalid := func(format string, args ...any) {
		problems = append(problems, errs.Newf(errs.CodeConfigValidateInvalidValue, "config: "+format, args...))
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendPostgres:
		if c.Storage.DSN == "" {
			invalid("storage.dsn must not be empty for backend %q", c.Storage.Backend)
		}
	case BackendMemory:
	default:
		invalid("storage.backend must be one of [sqlite, postgres, memory], got %q", c.Storage.Backend)
	}
	if c.Vector.Dimensions <= 0 {
		invalid("vector.dimensions must be positive, got %d", c.Vector.Dimensions)
	}
	switch index.Kind(c.Index.Kind) {
	case vector.IndexExact, index.KindBrute, index.KindIVF, index.KindCover:
	default:
		invalid("index.kind must be one of [exact, brute, ivf, cover], got %q", c.Index.Kind)
	}
	if c.Index.Lists <= 0 || c.Index.Probes <= 0 || c.Index.Oversample <= 0 {
		invalid("index.lists, index.probes and index.oversample must be positive")
	}
	if c.Index.CoverBase <= 1 {
		invalid("index.cover_base must be greater than 1, got %v", c.Index.CoverBase)
	}
	if c.Search.MatchCount < 0 {
		invalid("search.match_count must not be negative, got %d", c.Search.MatchCount)
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		invalid("server.listen must be host:port, got %q", c.Server.Listen)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		invalid("log.level %q is not a logrus level", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		invalid("log.format must be json or text, got %q", c.Log.Format)
	}
	return problems
}

// IndexOptions converts the index section for vector.SQLiteStore.
func (c *Config) IndexOptions() vector.IndexOptions {
	return vector.IndexOptions{
		Kind:       index.Kind(c.Index.Kind),
		Lists:      c.Index.Lists,
		Probes:     c.Index.Probes,
		Oversample: c.Index.Oversample,
		CoverBase:  c.Index.CoverBase,
	}
}

// SearchParams builds search parameters for query using the configured
// defaults.
func (c *Config) SearchParams(query []float32) vector.SearchParams {
	p := vector.NewSearchParams(query)
	p.MatchCount = c.Search.MatchCount
	p.MatchThreshold = c.Search.MatchThreshold
	return p
}
