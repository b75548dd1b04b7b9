package cache

import (
	"github.com/goliatone/go-typeprovider-cache/internal/cacheinfra"
)

// Config sizes the coalescing store that sits under every EntityCache. The
// store only holds in-flight creations and "no such entity" answers; live
// proxies are kept in the identity registry for the whole connection.
type Config = cacheinfra.Config

// EarlyRefreshConfig configures background refresh of stored answers.
type EarlyRefreshConfig = cacheinfra.EarlyRefreshConfig

// ConfigError reports an invalid configuration field. Connection and store
// configuration share it.
type ConfigError = cacheinfra.ConfigError

// DefaultConfig returns the store configuration used when none is given.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}
