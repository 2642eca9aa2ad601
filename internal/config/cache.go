package config

import (
	"strings"
	"time"
)

// RoutineCacheConfig defines how generated routines are cached in Redis.
// When Enabled is false or no Redis client is available the cache is a
// pass-through. Prefix namespaces the keys and MaxBodyBytes caps the size of
// a stored routine.
type RoutineCacheConfig struct {
	Enabled      bool          `env:"ROUTINE_CACHE_ENABLED" env-default:"true"`
	TTL          time.Duration `env:"ROUTINE_CACHE_TTL" env-default:"1h"`
	Prefix       string        `env:"ROUTINE_CACHE_PREFIX" env-default:"routine"`
	MaxBodyBytes int           `env:"ROUTINE_CACHE_MAX_BODY_BYTES" env-default:"65536"`
}

// KeyPrefix returns the namespace with surrounding colons trimmed.
func (c RoutineCacheConfig) KeyPrefix() string {
	p := strings.Trim(c.Prefix, ":")
	if p == "" {
		return "routine"
	}
	return p
}
