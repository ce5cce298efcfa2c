package config

import (
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Feed sources.
const (
	SourceStatic   = "static"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Feed caches.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Quiz struct {
		SecondsPerQuestion int    `yaml:"secondsPerQuestion"`
		Tick               string `yaml:"tick"`
	} `yaml:"quiz"`
	Feed struct {
		Source  string `yaml:"source"`
		URL     string `yaml:"url"`
		Path    string `yaml:"path"`
		Set     string `yaml:"set"`
		Timeout string `yaml:"timeout"`
		Cache   string `yaml:"cache"`
		TTL     string `yaml:"ttl"`
	} `yaml:"feed"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Defaults is the configuration used for every field the YAML file leaves empty.
func Defaults() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Quiz.SecondsPerQuestion = 30
	cfg.Quiz.Tick = "1s"
	cfg.Feed.Source = SourceStatic
	cfg.Feed.URL = "http://localhost:9000/questions"
	cfg.Feed.Path = "questions.json"
	cfg.Feed.Set = "default"
	cfg.Feed.Timeout = "5s"
	cfg.Feed.Cache = CacheMemory
	cfg.Feed.TTL = "10m"
	cfg.SQLite.Path = "questions.db"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads YAML config from path and fills the gaps with Defaults.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return cfg, errors.Wrap(err, "apply config defaults")
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Quiz.SecondsPerQuestion <= 0 {
		result = multierror.Append(result, errors.Errorf("quiz.secondsPerQuestion must be positive, got %d", c.Quiz.SecondsPerQuestion))
	}
	for name, raw := range map[string]string{
		"quiz.tick":    c.Quiz.Tick,
		"feed.timeout": c.Feed.Timeout,
		"feed.ttl":     c.Feed.TTL,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "%s", name))
		}
	}

	switch c.Feed.Source {
	case SourceStatic, SourceFile, SourceHTTP, SourceSQLite:
	case SourcePostgres:
		if c.Postgres.URL == "" {
			result = multierror.Append(result, errors.New("feed.source postgres requires postgres.url"))
		}
	default:
		result = multierror.Append(result, errors.Errorf("unknown feed.source %q", c.Feed.Source))
	}

	switch c.Feed.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Redis.Addr == "" {
			result = multierror.Append(result, errors.New("feed.cache redis requires redis.addr"))
		}
	default:
		result = multierror.Append(result, errors.Errorf("unknown feed.cache %q", c.Feed.Cache))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		result = multierror.Append(result, errors.Errorf("unknown log.format %q", c.Log.Format))
	}

	return result.ErrorOrNil()
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
