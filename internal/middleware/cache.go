package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    log "github.com/sirupsen/logrus"

    "github.com/larslemos/ninho-do-amor-sub000/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// RedisCache caches successful responses of idempotent requests in Redis,
// keyed by the concrete request path (and query, depending on
// KeyStrategy).  Entries can be dropped per path with Purge.  A nil
// RedisCache, or one without a client, caches nothing.
type RedisCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) *RedisCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return &RedisCache{cfg: cfg, rdb: rdb}
}

func (rc *RedisCache) enabled() bool {
    return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// key builds a stable cache key.  Keys hash the path so arbitrary slugs
// stay within Redis key limits.
func (rc *RedisCache) key(r *http.Request) string {
    var tail string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "path":
        tail = "path:" + r.URL.Path
    case "method_path_query":
        tail = "method:" + r.Method + ":path:" + r.URL.Path + ":q:" + r.URL.RawQuery
    default: // "path_query"
        tail = "path:" + r.URL.Path + ":q:" + r.URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", rc.cfg.Prefix, sum[:])
}

// indexKey names the set of cache keys stored for one path.
func (rc *RedisCache) indexKey(path string) string {
    sum := sha1.Sum([]byte(path))
    return fmt.Sprintf("%s:idx:%x", rc.cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

// Middleware serves cached responses and stores 200 responses on a miss.
// Headers and body are stored together so a hit is byte-identical.
func (rc *RedisCache) Middleware() echo.MiddlewareFunc {
    if !rc.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    maxBody := int64(rc.cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !rc.cfg.Methods[strings.ToUpper(req.Method)] {
                return next(c)
            }
            ctx := req.Context()
            key := rc.key(req)

            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        // Echo sets Content-Length itself.
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err != nil {
                return nil
            }
            sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
            defer cancel()
            idx := rc.indexKey(req.URL.Path)
            pipe := rc.rdb.TxPipeline()
            pipe.SetEx(sctx, key, payload, rc.cfg.TTL)
            pipe.SAdd(sctx, idx, key)
            pipe.Expire(sctx, idx, rc.cfg.TTL)
            if _, err := pipe.Exec(sctx); err != nil {
                log.WithError(err).WithField("path", req.URL.Path).Warn("cache: store failed")
            }
            return nil
        }
    }
}

// Purge drops every cached response for path.
func (rc *RedisCache) Purge(ctx context.Context, path string) error {
    if !rc.enabled() {
        return nil
    }
    idx := rc.indexKey(path)
    keys, err := rc.rdb.SMembers(ctx, idx).Result()
    if err != nil {
        return err
    }
    return rc.rdb.Del(ctx, append(keys, idx)...).Err()
}
