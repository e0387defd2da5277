package service

import (
    "context"
    "database/sql"
    "strings"
    "time"

    log "github.com/sirupsen/logrus"

    "github.com/larslemos/ninho-do-amor-sub000/internal/config"
    "github.com/larslemos/ninho-do-amor-sub000/internal/directory"
    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/notify"
    q "github.com/larslemos/ninho-do-amor-sub000/internal/queue"
)

// Delivery methods.
const (
    MethodEmail    = "email"
    MethodWhatsApp = "whatsapp"
)

// InvitationService renders invitation messages and delivers them by
// e-mail or as a WhatsApp deep link.
type InvitationService struct {
    Seating  *SeatingService
    Mailer   notify.Mailer
    Renderer *notify.Renderer
    Event    config.EventSettings
    BaseURL  string
    Now      func() time.Time
}

func NewInvitationService(seatingSvc *SeatingService, mailer notify.Mailer, renderer *notify.Renderer, event config.EventSettings, baseURL string) *InvitationService {
    return &InvitationService{
        Seating:  seatingSvc,
        Mailer:   mailer,
        Renderer: renderer,
        Event:    event,
        BaseURL:  baseURL,
        Now:      func() time.Time { return time.Now().UTC() },
    }
}

type SendInput struct {
    GuestID       string
    Method        string
    TemplateType  string
    CustomMessage string
}

// SendResult echoes what was sent.  WhatsAppURL is only set for the
// whatsapp method; the client opens it to hand the message to WhatsApp.
type SendResult struct {
    Guest       model.Guest `json:"guest"`
    Method      string      `json:"method"`
    Message     string      `json:"message"`
    Link        string      `json:"link"`
    WhatsAppURL string      `json:"whatsapp_url,omitempty"`
}

// Send renders the invitation for one guest and delivers it.  The guest's
// invitation_sent_at is stamped only after delivery succeeded.
func (s *InvitationService) Send(ctx context.Context, in SendInput) (SendResult, error) {
    id := strings.TrimSpace(in.GuestID)
    if id == "" {
        return SendResult{}, Validation("Selecione um convidado")
    }
    method := strings.ToLower(strings.TrimSpace(in.Method))
    if method != MethodEmail && method != MethodWhatsApp {
        return SendResult{}, Validation("Método de envio inválido: use email ou whatsapp")
    }
    g, err := s.Seating.Guests.GetByID(ctx, id)
    if err != nil {
        return SendResult{}, AsError(err)
    }

    kind := notify.Kind(in.TemplateType)
    link := directory.InvitationLink(s.BaseURL, g.UniqueURL)
    data := notify.MessageData{
        Name:   g.Name,
        Couple: s.Event.Couple(),
        Date:   s.Event.Date,
        Venue:  s.Event.Venue,
        Link:   link,
        Custom: strings.TrimSpace(in.CustomMessage),
    }
    if g.RSVPDeadline != nil {
        data.Deadline = g.RSVPDeadline.Format("02/01/2006")
    }
    msg, err := s.Renderer.Render(kind, data)
    if err != nil {
        return SendResult{}, err
    }

    res := SendResult{Method: method, Message: msg, Link: link}
    switch method {
    case MethodEmail:
        to := model.StrVal(g.Email)
        if to == "" {
            return SendResult{}, newError(CodeMissingContact, g.Name+" não tem email registado")
        }
        if err := s.Mailer.Send(ctx, to, notify.Subject(kind, data.Couple), msg); err != nil {
            log.WithError(err).WithField("guest_id", g.ID).Error("send invitation e-mail failed")
            return SendResult{}, &Error{Code: CodeDeliveryFailed, Message: "Não foi possível enviar o email. Tente novamente", Err: err}
        }
    case MethodWhatsApp:
        phone := model.StrVal(g.Phone)
        if phone == "" {
            return SendResult{}, newError(CodeMissingContact, g.Name+" não tem telefone registado")
        }
        wa, err := notify.WhatsAppLink(phone, msg)
        if err != nil {
            return SendResult{}, &Error{Code: CodeInvalidPhone, Message: "Telefone inválido: use o formato internacional, por exemplo +5511999999999", Err: err}
        }
        res.WhatsAppURL = wa
    }

    sentAt := s.Now().UTC().Truncate(time.Second)
    m, err := s.Seating.Mutate(ctx, g.ID, "", func(_ context.Context, _ *sql.Tx, g *model.Guest) error {
        g.InvitationSentAt = &sentAt
        return nil
    })
    if err != nil {
        return SendResult{}, err
    }
    res.Guest = m.Guest

    ev := q.NewGuestEvent(q.EventInvitationSent, m.Guest.ID, m.Guest.Name)
    ev.Status = string(m.Guest.Status)
    ev.Companions = m.Guest.Companions
    ev.Method = method
    publish(ctx, s.Seating.Events, ev)
    return res, nil
}
