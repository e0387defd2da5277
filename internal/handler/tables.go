package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/seating"
    "github.com/larslemos/ninho-do-amor-sub000/internal/service"
)

// TableAPI is the tables service as seen by the admin handlers.
type TableAPI interface {
    List(ctx context.Context) (service.TableOverview, error)
    Create(ctx context.Context, name string, capacity int) (seating.TableSummary, error)
    Delete(ctx context.Context, tableID string) ([]model.Guest, error)
    Bulk(ctx context.Context, in service.BulkInput) (service.BulkResult, error)
    Assign(ctx context.Context, guestID, tableID string) (service.Assignment, error)
    Unassign(ctx context.Context, guestID string) (service.Assignment, error)
}

type TableHandler struct {
    Tables TableAPI
}

func NewTableHandler(tables TableAPI) *TableHandler {
    if tables == nil {
        panic("nil service passed to NewTableHandler")
    }
    return &TableHandler{Tables: tables}
}

type createTableReq struct {
    Name     string `json:"name"`
    Capacity int    `json:"capacity"`
}

type bulkTablesReq struct {
    Count      int    `json:"count"`
    Capacity   int    `json:"capacity"`
    Prefix     string `json:"prefix"`
    GuestCount int    `json:"guest_count"`
}

type assignReq struct {
    GuestID string `json:"guestId"`
    TableID string `json:"tableId"`
}

type tableIDReq struct {
    TableID string `json:"tableId"`
}

func (h *TableHandler) List(c echo.Context) error {
    out, err := h.Tables.List(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) Create(c echo.Context) error {
    var req createTableReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    t, err := h.Tables.Create(c.Request().Context(), req.Name, req.Capacity)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"table": t})
}

// Delete unseats the table's guests and removes it.  The freed guests are
// returned so the client can move them to the unseated list.
func (h *TableHandler) Delete(c echo.Context) error {
    var req tableIDReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    freed, err := h.Tables.Delete(c.Request().Context(), req.TableID)
    if err != nil {
        return respondError(c, err)
    }
    if freed == nil {
        freed = []model.Guest{}
    }
    return c.JSON(http.StatusOK, echo.Map{"unseated": freed})
}

func (h *TableHandler) Bulk(c echo.Context) error {
    var req bulkTablesReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    out, err := h.Tables.Bulk(c.Request().Context(), service.BulkInput{
        Count:      req.Count,
        Capacity:   req.Capacity,
        Prefix:     req.Prefix,
        GuestCount: req.GuestCount,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// Assign returns the updated guest with the new summary of the table (and
// of the table the guest left) so the client needs no refetch.
func (h *TableHandler) Assign(c echo.Context) error {
    var req assignReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, service.MsgSelectTableAndGuest)
    }
    out, err := h.Tables.Assign(c.Request().Context(), req.GuestID, req.TableID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) Unassign(c echo.Context) error {
    var req guestIDReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    out, err := h.Tables.Unassign(c.Request().Context(), req.GuestID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}
