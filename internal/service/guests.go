package service

import (
    "context"
    "database/sql"
    "errors"
    "io"
    "regexp"
    "sort"
    "strings"
    "time"

    "github.com/larslemos/ninho-do-amor-sub000/internal/directory"
    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/notify"
    q "github.com/larslemos/ninho-do-amor-sub000/internal/queue"
    "github.com/larslemos/ninho-do-amor-sub000/internal/repository"
)

// MaxCompanions bounds the companions a single guest may bring.
const MaxCompanions = directory.MaxCompanions

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

// GuestService implements the admin guest directory and the public RSVP
// flow.
type GuestService struct {
    Guests  *repository.GuestRepo
    Tables  *repository.TableRepo
    Seating *SeatingService
    Events  Publisher
    BaseURL string
    Now     func() time.Time
}

// NewGuestService wires a GuestService on top of a SeatingService.
func NewGuestService(seatingSvc *SeatingService, baseURL string) *GuestService {
    return &GuestService{
        Guests:  seatingSvc.Guests,
        Tables:  seatingSvc.Tables,
        Seating: seatingSvc,
        Events:  seatingSvc.Events,
        BaseURL: baseURL,
        Now:     func() time.Time { return time.Now().UTC() },
    }
}

// GuestList is the directory view.  Stats cover the whole list, not just
// the filtered guests.
type GuestList struct {
    Guests []model.Guest   `json:"guests"`
    Total  int             `json:"total"`
    Stats  directory.Stats `json:"stats"`
}

// List loads all guests and filters them by search term and status.
func (s *GuestService) List(ctx context.Context, search, status string) (GuestList, error) {
    if st := strings.TrimSpace(status); st != "" && st != "all" {
        if _, ok := model.ParseStatus(st); !ok {
            return GuestList{}, Validation("Status inválido")
        }
    }
    all, err := s.Guests.List(ctx)
    if err != nil {
        return GuestList{}, err
    }
    filtered := directory.Filter(all, search, status)
    return GuestList{Guests: filtered, Total: len(filtered), Stats: directory.Summarize(all)}, nil
}

// CreateGuestInput is a new guest as submitted by the admin form.
type CreateGuestInput struct {
    Name         string
    Phone        string
    Email        string
    UniqueURL    string
    RSVPDeadline string
    Companions   int
}

// Create validates and inserts a guest.  Name and phone are required;
// phone and email must not belong to another guest.
func (s *GuestService) Create(ctx context.Context, in CreateGuestInput) (model.Guest, error) {
    name := strings.TrimSpace(in.Name)
    phone := notify.FormatPhone(in.Phone)
    email := strings.ToLower(strings.TrimSpace(in.Email))
    slug := strings.ToLower(strings.TrimSpace(in.UniqueURL))
    if err := directory.CheckGuest(name, phone, email, in.Companions); err != nil {
        return model.Guest{}, guestRuleError(err)
    }
    if slug != "" && !slugPattern.MatchString(slug) {
        return model.Guest{}, Validation("URL única inválida")
    }
    deadline, err := parseDeadline(strings.TrimSpace(in.RSVPDeadline))
    if err != nil {
        return model.Guest{}, Validation("Prazo de resposta inválido")
    }

    g := model.Guest{
        Name:         name,
        Phone:        model.StrPtr(phone),
        Email:        model.StrPtr(email),
        Status:       model.StatusPending,
        Companions:   in.Companions,
        UniqueURL:    slug,
        RSVPDeadline: deadline,
    }

    tx, err := s.Seating.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.Guest{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    taken, err := s.Guests.ContactTakenTx(ctx, tx, g.Phone, g.Email, "")
    if err != nil {
        return model.Guest{}, err
    }
    if taken {
        return model.Guest{}, AsError(repository.ErrDuplicateGuest)
    }
    if err := s.Guests.CreateTx(ctx, tx, &g); err != nil {
        return model.Guest{}, AsError(err)
    }
    if err := tx.Commit(); err != nil {
        return model.Guest{}, err
    }
    committed = true
    return g, nil
}

// guestRuleError maps a directory.CheckGuest failure to the form message.
func guestRuleError(err error) *Error {
    switch {
    case errors.Is(err, directory.ErrNameRequired):
        return Validation("Nome é obrigatório")
    case errors.Is(err, directory.ErrPhoneRequired):
        return Validation("Telefone é obrigatório")
    case errors.Is(err, directory.ErrInvalidEmail):
        return Validation("Email inválido")
    default:
        return Validation("Número de acompanhantes inválido")
    }
}

// UpdateGuestInput is a partial update.  Nil pointers and unset optionals
// leave the field unchanged.
type UpdateGuestInput struct {
    GuestID      string
    Version      *int
    Status       *string
    TableID      OptionalString
    Companions   *int
    Name         *string
    Phone        *string
    Email        OptionalString
    RSVPDeadline OptionalString
}

// Update applies a partial update.  Table and companion changes go through
// the same capacity check as Assign.
func (s *GuestService) Update(ctx context.Context, in UpdateGuestInput) (Mutation, error) {
    id := strings.TrimSpace(in.GuestID)
    if id == "" {
        return Mutation{}, Validation("guestId é obrigatório")
    }
    var status model.Status
    if in.Status != nil {
        st, ok := model.ParseStatus(*in.Status)
        if !ok {
            return Mutation{}, Validation("Status inválido")
        }
        status = st
    }
    if in.Companions != nil && (*in.Companions < 0 || *in.Companions > MaxCompanions) {
        return Mutation{}, Validation("Número de acompanhantes inválido")
    }
    if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
        return Mutation{}, Validation("Nome é obrigatório")
    }
    if in.Phone != nil && notify.FormatPhone(*in.Phone) == "" {
        return Mutation{}, Validation("Telefone é obrigatório")
    }
    var email *string
    if in.Email.Set && in.Email.Value != nil {
        e := strings.ToLower(strings.TrimSpace(*in.Email.Value))
        if !directory.ValidEmail(e) {
            return Mutation{}, Validation("Email inválido")
        }
        email = model.StrPtr(e)
    }
    var deadline *time.Time
    if in.RSVPDeadline.Set && in.RSVPDeadline.Value != nil {
        d, err := parseDeadline(strings.TrimSpace(*in.RSVPDeadline.Value))
        if err != nil {
            return Mutation{}, Validation("Prazo de resposta inválido")
        }
        deadline = d
    }
    target := ""
    if in.TableID.Set && in.TableID.Value != nil {
        target = strings.TrimSpace(*in.TableID.Value)
    }

    return s.Seating.Mutate(ctx, id, target, func(ctx context.Context, tx *sql.Tx, g *model.Guest) error {
        if in.Version != nil && *in.Version != g.Version {
            return repository.ErrStaleWrite
        }
        if in.Name != nil {
            g.Name = strings.TrimSpace(*in.Name)
        }
        if in.Status != nil {
            g.Status = status
        }
        if in.Companions != nil {
            g.Companions = *in.Companions
        }
        contactChanged := false
        if in.Phone != nil {
            p := notify.FormatPhone(*in.Phone)
            contactChanged = contactChanged || model.StrVal(g.Phone) != p
            g.Phone = model.StrPtr(p)
        }
        if in.Email.Set {
            contactChanged = contactChanged || model.StrVal(g.Email) != model.StrVal(email)
            g.Email = email
        }
        if in.RSVPDeadline.Set {
            g.RSVPDeadline = deadline
        }
        if in.TableID.Set {
            if target == "" {
                g.TableID = nil
            } else {
                g.TableID = &target
            }
        }
        if contactChanged {
            taken, err := s.Guests.ContactTakenTx(ctx, tx, g.Phone, g.Email, g.ID)
            if err != nil {
                return err
            }
            if taken {
                return repository.ErrDuplicateGuest
            }
        }
        return nil
    })
}

// Delete removes a guest.
func (s *GuestService) Delete(ctx context.Context, guestID string) error {
    id := strings.TrimSpace(guestID)
    if id == "" {
        return Validation("guestId é obrigatório")
    }
    if err := s.Guests.Delete(ctx, id); err != nil {
        return AsError(err)
    }
    return nil
}

// Export writes the whole guest list as CSV.
func (s *GuestService) Export(ctx context.Context, w io.Writer) error {
    guests, err := s.Guests.List(ctx)
    if err != nil {
        return err
    }
    tables, err := s.Tables.List(ctx)
    if err != nil {
        return err
    }
    return directory.WriteCSV(w, guests, repository.Names(tables), s.BaseURL)
}

// ImportReport summarises a CSV import.
type ImportReport struct {
    Imported int              `json:"imported"`
    Skipped  []directory.Skip `json:"skipped"`
    Guests   []model.Guest    `json:"guests"`
}

// Import parses an uploaded guest file and inserts every valid,
// non-duplicate row in one transaction.
func (s *GuestService) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
    rows, skipped, err := directory.ParseCSV(r)
    if err != nil {
        if errors.Is(err, directory.ErrEmptyFile) || errors.Is(err, directory.ErrMissingHeader) || errors.Is(err, directory.ErrFileTooLarge) {
            return ImportReport{}, Validation("Arquivo inválido: " + err.Error())
        }
        return ImportReport{}, Validation("Não foi possível ler o arquivo CSV")
    }

    tx, err := s.Seating.DB.BeginTx(ctx, nil)
    if err != nil {
        return ImportReport{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    existing, err := s.Guests.ListTx(ctx, tx)
    if err != nil {
        return ImportReport{}, err
    }
    kept, dups := directory.Dedupe(rows, existing)
    skipped = append(skipped, dups...)

    created := make([]model.Guest, 0, len(kept))
    for _, row := range kept {
        g := model.Guest{
            Name:       row.Name,
            Phone:      model.StrPtr(notify.FormatPhone(row.Phone)),
            Email:      model.StrPtr(row.Email),
            Status:     model.StatusPending,
            Companions: row.Companions,
        }
        if err := s.Guests.CreateTx(ctx, tx, &g); err != nil {
            if errors.Is(err, repository.ErrDuplicateGuest) {
                skipped = append(skipped, directory.Skip{Line: row.Line, Reason: "convidado duplicado"})
                continue
            }
            return ImportReport{}, err
        }
        created = append(created, g)
    }
    if err := tx.Commit(); err != nil {
        return ImportReport{}, err
    }
    committed = true

    sort.SliceStable(skipped, func(i, j int) bool { return skipped[i].Line < skipped[j].Line })
    if skipped == nil {
        skipped = []directory.Skip{}
    }
    return ImportReport{Imported: len(created), Skipped: skipped, Guests: created}, nil
}

// PublicInvitation is what the invitation page receives for a slug.
type PublicInvitation struct {
    Guest   model.PublicGuest `json:"guest"`
    Warning string            `json:"warning,omitempty"`
}

// ByURL resolves an invitation slug.  A passed RSVP deadline only adds a
// warning; responses are still accepted.
func (s *GuestService) ByURL(ctx context.Context, slug string) (PublicInvitation, error) {
    slug = strings.TrimSpace(slug)
    if slug == "" {
        return PublicInvitation{}, AsError(repository.ErrGuestNotFound)
    }
    g, err := s.Guests.GetByUniqueURL(ctx, slug)
    if err != nil {
        return PublicInvitation{}, AsError(err)
    }
    return s.publicView(ctx, g)
}

func (s *GuestService) publicView(ctx context.Context, g model.Guest) (PublicInvitation, error) {
    var tableName *string
    if g.TableID != nil {
        t, err := s.Tables.GetByID(ctx, *g.TableID)
        if err != nil && !errors.Is(err, repository.ErrTableNotFound) {
            return PublicInvitation{}, err
        }
        if err == nil {
            tableName = &t.Name
        }
    }
    out := PublicInvitation{Guest: g.Public(tableName)}
    if g.DeadlinePassed(s.Now()) {
        out.Warning = "O prazo para confirmação terminou em " + g.RSVPDeadline.Format("02/01/2006") +
            ". A sua resposta ainda será registada, mas confirme com os noivos."
    }
    return out, nil
}

// RSVPInput is a guest's answer to the invitation.
type RSVPInput struct {
    Status     string
    Companions *int
}

// RSVP records a guest's response.  Declining frees any seat; growing the
// party of a seated guest must fit the table.
func (s *GuestService) RSVP(ctx context.Context, slug string, in RSVPInput) (PublicInvitation, error) {
    status, ok := model.ParseStatus(in.Status)
    if !ok || status == model.StatusPending {
        return PublicInvitation{}, Validation("Resposta inválida: use confirmed ou rejected")
    }
    if in.Companions != nil && (*in.Companions < 0 || *in.Companions > MaxCompanions) {
        return PublicInvitation{}, Validation("Número de acompanhantes inválido")
    }
    g, err := s.Guests.GetByUniqueURL(ctx, strings.TrimSpace(slug))
    if err != nil {
        return PublicInvitation{}, AsError(err)
    }
    m, err := s.Seating.Mutate(ctx, g.ID, "", func(_ context.Context, _ *sql.Tx, g *model.Guest) error {
        g.Status = status
        if in.Companions != nil {
            g.Companions = *in.Companions
        }
        return nil
    })
    if err != nil {
        return PublicInvitation{}, err
    }
    ev := q.NewGuestEvent(q.EventRSVPUpdated, m.Guest.ID, m.Guest.Name)
    ev.Status = string(m.Guest.Status)
    ev.Companions = m.Guest.Companions
    publish(ctx, s.Events, ev)
    return s.publicView(ctx, m.Guest)
}
