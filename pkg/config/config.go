// Package config loads the store and connection settings of a type provider
// cache session from a YAML, JSON or TOML file and TPCACHE_* environment
// variables.
//
// Keys are grouped under "cache" and "connection":
//
//	cache:
//	  capacity: 10000
//	  ttl: 5m
//	connection:
//	  default_timeout: 5s
//	  retry:
//	    max_attempts: 2
//
// The environment variable for a key is the key path in upper case with dots
// replaced by underscores, e.g. TPCACHE_CONNECTION_RETRY_MAX_ATTEMPTS.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.trai.ch/zerr"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TPCACHE"

// ErrLoad is returned when the configuration file cannot be read or decoded.
var ErrLoad = zerr.New("config load failed")

// Config aggregates everything a session needs.
type Config struct {
	Cache      cache.Config
	Connection connection.Config
}

// Default returns the package defaults of both sections.
func Default() Config {
	return Config{
		Cache:      cache.DefaultConfig(),
		Connection: connection.DefaultConfig(),
	}
}

// Validate checks both sections.
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Connection.Validate()
}

type fileConfig struct {
	Cache      cacheSection      `mapstructure:"cache"`
	Connection connectionSection `mapstructure:"connection"`
}

type cacheSection struct {
	Capacity             int                  `mapstructure:"capacity"`
	NumShards            int                  `mapstructure:"num_shards"`
	TTL                  time.Duration        `mapstructure:"ttl"`
	EvictionPercentage   int                  `mapstructure:"eviction_percentage"`
	MissingRecordStorage bool                 `mapstructure:"missing_record_storage"`
	EvictionInterval     time.Duration        `mapstructure:"eviction_interval"`
	EarlyRefresh         *earlyRefreshSection `mapstructure:"early_refresh"`
}

type earlyRefreshSection struct {
	MinAsyncRefreshTime time.Duration `mapstructure:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `mapstructure:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `mapstructure:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
}

type connectionSection struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	MaximalTimeout time.Duration `mapstructure:"maximal_timeout"`
	Retry          retrySection  `mapstructure:"retry"`
}

type retrySection struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// New returns a viper instance primed with the defaults and the environment
// binding. Callers that bind command line flags do so on the returned
// instance before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	def := Default()

	v.SetDefault("cache.capacity", def.Cache.Capacity)
	v.SetDefault("cache.num_shards", def.Cache.NumShards)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("cache.eviction_percentage", def.Cache.EvictionPercentage)
	v.SetDefault("cache.missing_record_storage", def.Cache.MissingRecordStorage)
	v.SetDefault("cache.eviction_interval", def.Cache.EvictionInterval)

	v.SetDefault("connection.default_timeout", def.Connection.DefaultTimeout)
	v.SetDefault("connection.maximal_timeout", def.Connection.MaximalTimeout)
	v.SetDefault("connection.retry.max_attempts", def.Connection.Retry.MaxAttempts)
	v.SetDefault("connection.retry.base_delay", def.Connection.Retry.BaseDelay)
	v.SetDefault("connection.retry.max_delay", def.Connection.Retry.MaxDelay)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, when non-empty, over the defaults and the environment and
// returns the validated result. The file format follows its extension.
func Load(path string) (Config, error) {
	return LoadWith(New(), path)
}

// LoadWith is Load on a caller supplied instance, typically one returned by
// New with command line flags bound to it.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, ErrLoad.Error()), "path", path)
		}
	}
	return Decode(v)
}

// Decode converts the settings held by v into a validated Config.
func Decode(v *viper.Viper) (Config, error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return Config{}, zerr.Wrap(err, ErrLoad.Error())
	}

	cfg := fc.toConfig()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (fc fileConfig) toConfig() Config {
	var early *cache.EarlyRefreshConfig
	if e := fc.Cache.EarlyRefresh; e != nil {
		early = &cache.EarlyRefreshConfig{
			MinAsyncRefreshTime: e.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: e.MaxAsyncRefreshTime,
			SyncRefreshTime:     e.SyncRefreshTime,
			RetryBaseDelay:      e.RetryBaseDelay,
		}
	}

	return Config{
		Cache: cache.Config{
			Capacity:             fc.Cache.Capacity,
			NumShards:            fc.Cache.NumShards,
			TTL:                  fc.Cache.TTL,
			EvictionPercentage:   fc.Cache.EvictionPercentage,
			EarlyRefresh:         early,
			MissingRecordStorage: fc.Cache.MissingRecordStorage,
			EvictionInterval:     fc.Cache.EvictionInterval,
		},
		Connection: connection.Config{
			DefaultTimeout: fc.Connection.DefaultTimeout,
			MaximalTimeout: fc.Connection.MaximalTimeout,
			Retry: connection.RetryConfig{
				MaxAttempts: fc.Connection.Retry.MaxAttempts,
				BaseDelay:   fc.Connection.Retry.BaseDelay,
				MaxDelay:    fc.Connection.Retry.MaxDelay,
			},
		},
	}
}
