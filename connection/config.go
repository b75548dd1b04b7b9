package connection

import (
	"time"

	"github.com/goliatone/go-typeprovider-cache/internal/cacheinfra"
)

// Config holds the timeout and retry policy applied to every remote call.
type Config struct {
	// DefaultTimeout bounds cheap calls: single records, ranks, ids.
	DefaultTimeout time.Duration

	// MaximalTimeout bounds calls that make the remote side do real work:
	// type content, nested types, static parameters and applications.
	MaximalTimeout time.Duration

	// Retry configures attempts per call.
	Retry RetryConfig
}

// RetryConfig bounds how often one call is attempted before the fault is
// reported. MaxAttempts of 1 disables retry.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultConfig returns the policy used when none is given.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 5 * time.Second,
		MaximalTimeout: 30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   25 * time.Millisecond,
			MaxDelay:    250 * time.Millisecond,
		},
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.DefaultTimeout <= 0 {
		return &cacheinfra.ConfigError{Field: "DefaultTimeout", Message: "must be greater than 0"}
	}
	if c.MaximalTimeout < c.DefaultTimeout {
		return &cacheinfra.ConfigError{Field: "MaximalTimeout", Message: "must not be shorter than DefaultTimeout"}
	}
	if c.Retry.MaxAttempts < 1 {
		return &cacheinfra.ConfigError{Field: "Retry.MaxAttempts", Message: "must be at least 1"}
	}
	if c.Retry.BaseDelay < 0 {
		return &cacheinfra.ConfigError{Field: "Retry.BaseDelay", Message: "must be non-negative"}
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return &cacheinfra.ConfigError{Field: "Retry.MaxDelay", Message: "must not be shorter than BaseDelay"}
	}
	return nil
}

// Timeout selects which configured deadline a call runs under.
type Timeout uint8

const (
	Default Timeout = iota
	Maximal
)

func (t Timeout) String() string {
	if t == Maximal {
		return "maximal"
	}
	return "default"
}

func (c Config) timeout(class Timeout) time.Duration {
	if class == Maximal {
		return c.MaximalTimeout
	}
	return c.DefaultTimeout
}

// backoff returns the delay before attempt n (n >= 1 is the first retry).
func (r RetryConfig) backoff(n int) time.Duration {
	d := r.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}
