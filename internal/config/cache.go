package config

import "time"

// CacheConfig defines settings for the response cache middleware that
// fronts the public event endpoints. When Enabled is false or no Redis
// client is available, caching is disabled. TTL is intentionally short:
// the map client appends created events to its own cached list
// optimistically, and a stale server-side list should converge quickly
// behind it. Mutating handlers additionally invalidate the prefix.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "ludicrum:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
