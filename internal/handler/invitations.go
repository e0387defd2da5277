package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"

    "github.com/larslemos/ninho-do-amor-sub000/internal/service"
)

// InvitationSender renders and delivers invitations.
type InvitationSender interface {
    Send(ctx context.Context, in service.SendInput) (service.SendResult, error)
}

type InvitationHandler struct {
    Invitations InvitationSender
}

func NewInvitationHandler(inv InvitationSender) *InvitationHandler {
    if inv == nil {
        panic("nil service passed to NewInvitationHandler")
    }
    return &InvitationHandler{Invitations: inv}
}

type sendInvitationReq struct {
    GuestID       string `json:"guestId"`
    Method        string `json:"method"`
    TemplateType  string `json:"templateType"`
    CustomMessage string `json:"customMessage"`
}

// Send handles POST /api/guests/send-invitation.
func (h *InvitationHandler) Send(c echo.Context) error {
    var req sendInvitationReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Corpo do pedido inválido")
    }
    out, err := h.Invitations.Send(c.Request().Context(), service.SendInput{
        GuestID:       req.GuestID,
        Method:        req.Method,
        TemplateType:  req.TemplateType,
        CustomMessage: req.CustomMessage,
    })
    if err != nil {
        return respondError(c, err)
    }
    log.WithFields(log.Fields{"guest_id": out.Guest.ID, "method": out.Method}).Info("invitation sent")
    return c.JSON(http.StatusOK, out)
}
