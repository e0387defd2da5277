package router

import "github.com/labstack/echo/v4"

// Guards are the request checks every API route runs in addition to
// authentication.  Admin routes run them after JWTAuth so the rate limit
// can key on the caller and an anonymous request is answered with 401
// before its body is validated.
type Guards struct {
	RateLimit echo.MiddlewareFunc
	Validate  echo.MiddlewareFunc
}

// chain returns the non-nil guards in order, rate limit first.
func (g Guards) chain() []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, 2)
	for _, m := range []echo.MiddlewareFunc{g.RateLimit, g.Validate} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
