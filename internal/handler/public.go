package handler

import (
    "context"
    "net/http"
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"

    "github.com/larslemos/ninho-do-amor-sub000/internal/service"
)

// PublicInvitationPath is the public lookup route; the cached response for
// a slug lives under PublicInvitationPrefix + slug.
const (
    PublicInvitationPath   = "/api/guests/by-url/:id"
    PublicInvitationPrefix = "/api/guests/by-url/"
)

// InvitationLookup serves the public invitation page.
type InvitationLookup interface {
    ByURL(ctx context.Context, slug string) (service.PublicInvitation, error)
    RSVP(ctx context.Context, slug string, in service.RSVPInput) (service.PublicInvitation, error)
}

// Purger drops cached responses for a path.
type Purger interface {
    Purge(ctx context.Context, path string) error
}

// PublicHandler exposes the unauthenticated invitation endpoints.  They
// return only the public view of a guest.
type PublicHandler struct {
    Guests InvitationLookup
    Cache  Purger
}

func NewPublicHandler(guests InvitationLookup, cache Purger) *PublicHandler {
    if guests == nil {
        panic("nil service passed to NewPublicHandler")
    }
    return &PublicHandler{Guests: guests, Cache: cache}
}

type rsvpReq struct {
    Status     string `json:"status"`
    Companions *int   `json:"companions"`
}

// Slugs are stored lowercase and MySQL compares them case-insensitively,
// so any casing finds the guest.  Only the lowercase path is served and
// cached so an RSVP purge reaches every cached copy.
func canonicalSlug(slug string) string {
    return strings.ToLower(strings.TrimSpace(slug))
}

// ByURL handles GET /api/guests/by-url/:id.  Other casings of a slug are
// redirected to the lowercase path.
func (h *PublicHandler) ByURL(c echo.Context) error {
    slug := c.Param("id")
    if canon := canonicalSlug(slug); canon != slug && canon != "" {
        return c.Redirect(http.StatusMovedPermanently, PublicInvitationPrefix+url.PathEscape(canon))
    }
    out, err := h.Guests.ByURL(c.Request().Context(), slug)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// RSVP handles POST /api/guests/by-url/:id/rsvp and drops the cached
// lookup so the page shows the new answer.
func (h *PublicHandler) RSVP(c echo.Context) error {
    var req rsvpReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    slug := canonicalSlug(c.Param("id"))
    out, err := h.Guests.RSVP(c.Request().Context(), slug, service.RSVPInput{Status: req.Status, Companions: req.Companions})
    if err != nil {
        return respondError(c, err)
    }
    if h.Cache != nil {
        if err := h.Cache.Purge(c.Request().Context(), PublicInvitationPrefix+slug); err != nil {
            log.WithError(err).WithField("slug", slug).Warn("purge invitation cache failed")
        }
    }
    return c.JSON(http.StatusOK, out)
}
