// Package handler holds the HTTP layer.  Handlers bind and sanity check the
// request, call a service and map its errors to {"error", "code"} bodies.
package handler

import (
    "bytes"
    "context"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/service"
)

// GuestAPI is the guest directory as seen by the admin handlers.
type GuestAPI interface {
    List(ctx context.Context, search, status string) (service.GuestList, error)
    Create(ctx context.Context, in service.CreateGuestInput) (model.Guest, error)
    Update(ctx context.Context, in service.UpdateGuestInput) (service.Mutation, error)
    Delete(ctx context.Context, guestID string) error
    Export(ctx context.Context, w io.Writer) error
    Import(ctx context.Context, r io.Reader) (service.ImportReport, error)
}

type GuestHandler struct {
    Guests GuestAPI
}

func NewGuestHandler(guests GuestAPI) *GuestHandler {
    if guests == nil {
        panic("nil service passed to NewGuestHandler")
    }
    return &GuestHandler{Guests: guests}
}

// createGuestReq accepts the Portuguese field names sent by the admin form
// as well as the English ones.
type createGuestReq struct {
    Nome         string `json:"nome"`
    Name         string `json:"name"`
    Telefone     string `json:"telefone"`
    Phone        string `json:"phone"`
    Email        string `json:"email"`
    UniqueURL    string `json:"unique_url"`
    RSVPDeadline string `json:"rsvp_deadline"`
    Companions   int    `json:"companions"`
}

type updateGuestReq struct {
    GuestID      string                 `json:"guestId"`
    Version      *int                   `json:"version"`
    Status       *string                `json:"status"`
    TableID      service.OptionalString `json:"table_id"`
    TableIDAlt   service.OptionalString `json:"tableId"`
    Companions   *int                   `json:"companions"`
    Name         *string                `json:"name"`
    Phone        *string                `json:"phone"`
    Email        service.OptionalString `json:"email"`
    RSVPDeadline service.OptionalString `json:"rsvp_deadline"`
}

type guestIDReq struct {
    GuestID string `json:"guestId"`
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if strings.TrimSpace(v) != "" {
            return v
        }
    }
    return ""
}

// List handles GET /api/admin/guests?search=&status=.
func (h *GuestHandler) List(c echo.Context) error {
    out, err := h.Guests.List(c.Request().Context(), c.QueryParam("search"), c.QueryParam("status"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Create handles POST /api/admin/guests.
func (h *GuestHandler) Create(c echo.Context) error {
    var req createGuestReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    g, err := h.Guests.Create(c.Request().Context(), service.CreateGuestInput{
        Name:         firstNonEmpty(req.Nome, req.Name),
        Phone:        firstNonEmpty(req.Telefone, req.Phone),
        Email:        req.Email,
        UniqueURL:    req.UniqueURL,
        RSVPDeadline: req.RSVPDeadline,
        Companions:   req.Companions,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"guest": g})
}

// Update handles PATCH /api/admin/guests.
func (h *GuestHandler) Update(c echo.Context) error {
    var req updateGuestReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    table := req.TableID
    if !table.Set {
        table = req.TableIDAlt
    }
    m, err := h.Guests.Update(c.Request().Context(), service.UpdateGuestInput{
        GuestID:      req.GuestID,
        Version:      req.Version,
        Status:       req.Status,
        TableID:      table,
        Companions:   req.Companions,
        Name:         req.Name,
        Phone:        req.Phone,
        Email:        req.Email,
        RSVPDeadline: req.RSVPDeadline,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/admin/guests.
func (h *GuestHandler) Delete(c echo.Context) error {
    var req guestIDReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    if err := h.Guests.Delete(c.Request().Context(), req.GuestID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Export handles GET /api/admin/guests/export.  The file is rendered in
// memory first so a failure still produces a JSON error.
func (h *GuestHandler) Export(c echo.Context) error {
    var buf bytes.Buffer
    if err := h.Guests.Export(c.Request().Context(), &buf); err != nil {
        return respondError(c, err)
    }
    name := "convidados-" + time.Now().UTC().Format("2006-01-02") + ".csv"
    c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
    return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Import handles POST /api/admin/guests/import (multipart field "file").
func (h *GuestHandler) Import(c echo.Context) error {
    fh, err := c.FormFile("file")
    if err != nil {
        return badRequest(c, "Envie um arquivo CSV no campo \"file\"")
    }
    f, err := fh.Open()
    if err != nil {
        return badRequest(c, "Não foi possível ler o arquivo")
    }
    defer f.Close()

    rep, err := h.Guests.Import(c.Request().Context(), f)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, rep)
}
