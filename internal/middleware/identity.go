package middleware

// identity.go holds helpers shared across middleware files and handlers for
// reading the authenticated caller out of the Echo context.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the subject stored by JWTAuth, or "anon" for
// unauthenticated requests.
func UserID(c echo.Context) string {
    if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// NumericUserID parses the subject as the numeric user id used by the users
// table.
func NumericUserID(c echo.Context) (uint64, bool) {
    s, ok := c.Get(CtxUserID).(string)
    if !ok || s == "" {
        return 0, false
    }
    id, err := strconv.ParseUint(s, 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}
