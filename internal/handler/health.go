package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and readiness.  Redis is optional: a nil
// RedisPing reports "disabled".
type HealthHandler struct {
    DB        Pinger
    RedisPing func(ctx context.Context) error
}

// Health is the liveness probe: it returns "ok" as long as the process
// serves requests.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready checks MySQL and Redis.  The database is required; Redis only
// degrades rate limiting and caching, so its failure is reported but does
// not fail the check.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    out := echo.Map{"status": "ok", "database": "ok", "redis": "disabled"}
    status := http.StatusOK
    if err := h.DB.PingContext(ctx); err != nil {
        out["status"], out["database"] = "unavailable", "down"
        status = http.StatusServiceUnavailable
    }
    if h.RedisPing != nil {
        out["redis"] = "ok"
        if err := h.RedisPing(ctx); err != nil {
            out["redis"] = "down"
        }
    }
    return c.JSON(status, out)
}
