package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/larslemos/ninho-do-amor-sub000/internal/handler"    // admin handlers
	"github.com/larslemos/ninho-do-amor-sub000/internal/middleware" // JWT + role middlewares
	"github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

// RegisterAdmin registers the wedding planner endpoints.  All routes require
// a valid JWT and the ADMIN role; guards run once the caller is known.
func RegisterAdmin(e *echo.Echo, g *handler.GuestHandler, t *handler.TableHandler, inv *handler.InvitationHandler, jwtSecret string, guards Guards) {
	auth := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin)}
	auth = append(auth, guards.chain()...)
	admin := e.Group("/api/admin", auth...)

	// ---- Guests ----
	admin.GET("/guests", g.List)
	admin.POST("/guests", g.Create)
	admin.PATCH("/guests", g.Update)
	admin.DELETE("/guests", g.Delete)
	admin.GET("/guests/export", g.Export)
	admin.POST("/guests/import", g.Import)

	// ---- Tables ----
	admin.GET("/tables", t.List)
	admin.POST("/tables", t.Create)
	admin.DELETE("/tables", t.Delete)
	admin.POST("/tables/bulk", t.Bulk)
	admin.POST("/tables/assign", t.Assign)
	admin.POST("/tables/unassign", t.Unassign)

	// ---- Invitations ----
	// Lives beside the public guest routes but is admin only.
	e.POST("/api/guests/send-invitation", inv.Send, auth...)
}
