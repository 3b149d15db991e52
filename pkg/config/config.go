// Package config loads ctabridge settings.
//
// Settings are layered: built-in defaults, then an optional TOML or YAML
// file, then CTABRIDGE_* environment variables. The result is validated
// before use.
//
//	# ~/.config/ctabridge/config.toml
//	[keys]
//	train = "..."
//	bus = "..."
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/ctabridge/pkg/buildinfo"
	"github.com/matzehuels/ctabridge/pkg/cache"
	"github.com/matzehuels/ctabridge/pkg/cta"
	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
)

const appName = "ctabridge"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "CTABRIDGE_"

// Config is the full application configuration.
type Config struct {
	Keys      Keys      `toml:"keys" yaml:"keys"`
	Cache     Cache     `toml:"cache" yaml:"cache"`
	HTTP      HTTP      `toml:"http" yaml:"http"`
	Server    Server    `toml:"server" yaml:"server"`
	Endpoints Endpoints `toml:"endpoints" yaml:"endpoints"`
}

// Keys holds upstream API keys.
type Keys struct {
	Train      string `toml:"train" yaml:"train" env:"TRAIN_API_KEY"`
	Bus        string `toml:"bus" yaml:"bus" env:"BUS_API_KEY"`
	TrainStops string `toml:"train_stops" yaml:"train_stops" env:"TRAIN_STOPS_APP_TOKEN"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend       string `toml:"backend" yaml:"backend" env:"CACHE_BACKEND" validate:"oneof=sqlite postgres redis mongo file memory none"`
	Path          string `toml:"path" yaml:"path" env:"CACHE_PATH" validate:"required_if=Backend sqlite,required_if=Backend file"`
	DSN           string `toml:"dsn" yaml:"dsn" env:"CACHE_DSN" validate:"required_if=Backend postgres"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr" env:"CACHE_REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password" env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db" env:"CACHE_REDIS_DB" validate:"gte=0"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri" env:"CACHE_MONGO_URI" validate:"required_if=Backend mongo"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database" env:"CACHE_MONGO_DATABASE" validate:"required_if=Backend mongo"`
}

// HTTP configures upstream requests.
type HTTP struct {
	Timeout   time.Duration `toml:"timeout" yaml:"timeout" env:"HTTP_TIMEOUT" validate:"gt=0"`
	UserAgent string        `toml:"user_agent" yaml:"user_agent" env:"HTTP_USER_AGENT"`
}

// Server configures the HTTP proxy.
type Server struct {
	Addr           string        `toml:"addr" yaml:"addr" env:"SERVER_ADDR" validate:"required"`
	RequestTimeout time.Duration `toml:"request_timeout" yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" validate:"gt=0"`
}

// Endpoints overrides service base URLs, e.g. to point at a mirror.
type Endpoints struct {
	Alerts     string `toml:"alerts" yaml:"alerts" env:"ENDPOINT_ALERTS"`
	Bus        string `toml:"bus" yaml:"bus" env:"ENDPOINT_BUS"`
	Train      string `toml:"train" yaml:"train" env:"ENDPOINT_TRAIN"`
	TrainStops string `toml:"train_stops" yaml:"train_stops" env:"ENDPOINT_TRAIN_STOPS"`
}

// Default returns the built-in configuration.
func Default() Config {
	cacheFile := ""
	if dir, err := CacheDir(); err == nil {
		cacheFile = filepath.Join(dir, "cache.db")
	}
	return Config{
		Cache: Cache{
			Backend:       cache.BackendSQLite,
			Path:          cacheFile,
			RedisAddr:     "localhost:6379",
			MongoDatabase: appName,
		},
		HTTP: HTTP{
			Timeout:   10 * time.Second,
			UserAgent: buildinfo.UserAgent(),
		},
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
		},
	}
}

// Load builds the configuration. If path is empty the default config file is
// read when it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !mustExist {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(c)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(c)
		if err == io.EOF {
			err = nil
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml or .yaml)", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and base URL overrides.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	for _, o := range c.Endpoints.overrides() {
		if o.url == "" {
			continue
		}
		if err := errors.ValidateBaseURL(o.url); err != nil {
			return err
		}
	}
	return nil
}

type override struct {
	domain endpoint.Domain
	url    string
}

func (e Endpoints) overrides() []override {
	return []override{
		{endpoint.Alerts, e.Alerts},
		{endpoint.Bus, e.Bus},
		{endpoint.Train, e.Train},
		{endpoint.TrainStops, e.TrainStops},
	}
}

// Registry returns the default registry with base URL overrides applied.
func (c Config) Registry() (*endpoint.Registry, error) {
	reg := endpoint.Default()
	for _, o := range c.Endpoints.overrides() {
		if o.url == "" {
			continue
		}
		var err error
		if reg, err = reg.WithBaseURL(o.domain, o.url); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// APIKeys returns the keys in dispatcher form.
func (c Config) APIKeys() cta.Keys {
	return cta.Keys{Train: c.Keys.Train, Bus: c.Keys.Bus, TrainStops: c.Keys.TrainStops}
}

// CacheOptions returns the store options for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		Path:          c.Cache.Path,
		DSN:           c.Cache.DSN,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
	}
}
