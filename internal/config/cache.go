package config

import (
    "strings"
    "time"
)

// CacheConfig drives the response cache in front of the public invitation
// lookup.  Keys are built from the concrete request path so a single slug
// can be purged after an RSVP.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool // upper-cased HTTP methods eligible for caching
    TTL          time.Duration
    KeyStrategy  string // "path", "path_query" or "method_path_query"
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.  An unknown key strategy
// falls back to "path_query".
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "path_query")),
        Prefix:       envStr("CACHE_PREFIX", "ninho:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    switch cfg.KeyStrategy {
    case "path", "path_query", "method_path_query":
    default:
        cfg.KeyStrategy = "path_query"
    }
    if cfg.TTL < time.Second {
        cfg.TTL = time.Second
    }
    return cfg
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
            m[p] = true
        }
    }
    return m
}
