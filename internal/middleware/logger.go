package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request with method, path, status,
// latency and client ip.  5xx responses are logged at error level.
func RequestLogger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // Let echo's error handler write the response so the status is known.
                c.Error(err)
            }
            status := c.Response().Status
            entry := log.WithFields(log.Fields{
                "method":     c.Request().Method,
                "path":       c.Request().URL.Path,
                "route":      c.Path(),
                "status":     status,
                "latency_ms": time.Since(start).Milliseconds(),
                "ip":         c.RealIP(),
            })
            if uid, ok := c.Get(CtxUserID).(string); ok && uid != "" {
                entry = entry.WithField("user_id", uid)
            }
            switch {
            case status >= 500:
                entry.WithError(err).Error("request failed")
            case status >= 400:
                entry.Warn("request rejected")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
