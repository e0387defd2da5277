package notify

import (
    "context"
    "errors"

    "gopkg.in/gomail.v2"

    "github.com/larslemos/ninho-do-amor-sub000/internal/config"
)

// ErrMailDisabled is returned when no SMTP host is configured.
var ErrMailDisabled = errors.New("mail delivery is not configured")

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
    Send(ctx context.Context, to, subject, body string) error
}

// MailService sends invitations over SMTP.
type MailService struct {
    dialer *gomail.Dialer
    from   string
}

// NewMailService builds a MailService from SMTP settings.  A service with an
// empty host refuses to send.
func NewMailService(cfg config.SMTPConfig) *MailService {
    if cfg.Host == "" {
        return &MailService{}
    }
    return &MailService{
        dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
        from:   cfg.From,
    }
}

func (m *MailService) Send(ctx context.Context, to, subject, body string) error {
    if m.dialer == nil {
        return ErrMailDisabled
    }
    if err := ctx.Err(); err != nil {
        return err
    }
    message := gomail.NewMessage()
    message.SetHeader("From", m.from)
    message.SetHeader("To", to)
    message.SetHeader("Subject", subject)
    message.SetBody("text/plain", body)
    return m.dialer.DialAndSend(message)
}
