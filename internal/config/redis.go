package config

// This file defines a Redis client constructor for the application.  Redis is
// used for distributed rate limiting and for caching the public invitation
// lookup.  If the server cannot be reached at startup the constructor returns
// nil: caching is then disabled and rate limiting falls back to an in-process
// limiter.

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
    log "github.com/sirupsen/logrus"
)

// RedisOptions builds client options from the environment.  REDIS_URL
// (redis:// or rediss://) wins when it parses; otherwise REDIS_HOST and
// REDIS_PORT, or REDIS_ADDR, name the server, with REDIS_PASSWORD, REDIS_DB
// and REDIS_TLS alongside.
func RedisOptions() *redis.Options {
    if raw := os.Getenv("REDIS_URL"); raw != "" {
        opts, err := redis.ParseURL(raw)
        if err == nil {
            return opts
        }
        log.WithError(err).Warn("config: ignoring malformed REDIS_URL")
    }
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts
}

// NewRedisClient connects using RedisOptions and pings the server.  The
// returned client is nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
    opts := RedisOptions()
    client := redis.NewClient(opts)
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.WithError(err).WithField("addr", opts.Addr).Warn("redis unavailable, cache disabled and rate limiting is local")
        _ = client.Close()
        return nil
    }
    return client
}
