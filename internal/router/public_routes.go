package router

import (
	"github.com/labstack/echo/v4"

	"github.com/larslemos/ninho-do-amor-sub000/internal/handler"
)

// RegisterPublic registers the invitation page endpoints.  No JWT is
// required; the unguessable slug identifies the guest.  Only the lookup is
// cached; cache is applied per route so admin responses are never stored.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc, guards Guards) {
	lookup := append(guards.chain(), cache)
	e.GET(handler.PublicInvitationPath, p.ByURL, lookup...)
	e.POST(handler.PublicInvitationPath+"/rsvp", p.RSVP, guards.chain()...)
}
