package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/larslemos/ninho-do-amor-sub000/internal/handler"    // handlers that implement each endpoint
	"github.com/larslemos/ninho-do-amor-sub000/internal/middleware" // JWT authentication and role enforcement
	"github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// liveness at /healthz and readiness at /health.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/health", h.Ready)
}

// RegisterAuth registers the admin session endpoints under /api/auth.
// Login and token exchange are open; /api/auth/me requires a valid access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, guards Guards) {
	g := e.Group("/api/auth", guards.chain()...)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Accepts a refresh_token body or a Bearer header (revokes every session).
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
}
