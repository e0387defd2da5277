package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "reflect"
    "sort"
    "strings"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    q "github.com/larslemos/ninho-do-amor-sub000/internal/queue"
    "github.com/larslemos/ninho-do-amor-sub000/internal/repository"
    "github.com/larslemos/ninho-do-amor-sub000/internal/seating"
)

// SeatingService owns every write to a guest row.  Writes lock the tables
// involved (in id order) before the guest, so the capacity check and the
// update happen atomically and concurrent writers cannot overbook a table.
type SeatingService struct {
    DB     *sql.DB
    Guests *repository.GuestRepo
    Tables *repository.TableRepo
    Events Publisher
}

// NewSeatingService constructs a SeatingService and panics if a dependency is nil.
func NewSeatingService(db *sql.DB, guests *repository.GuestRepo, tables *repository.TableRepo, events Publisher) *SeatingService {
    if db == nil || guests == nil || tables == nil {
        panic("nil dependency passed to NewSeatingService")
    }
    return &SeatingService{DB: db, Guests: guests, Tables: tables, Events: events}
}

// Mutation is the outcome of a guest write: the row before and after, and
// the new summary of every table whose occupancy changed.
type Mutation struct {
    Before model.Guest             `json:"-"`
    Guest  model.Guest             `json:"guest"`
    Tables []seating.TableSummary `json:"tables"`
}

// Moved reports whether the write changed the guest's table.
func (m Mutation) Moved() bool {
    return !sameTable(m.Before.TableID, m.Guest.TableID)
}

// Summary returns the summary of tableID among the affected tables.
func (m Mutation) Summary(tableID string) *seating.TableSummary {
    for i := range m.Tables {
        if m.Tables[i].Table.ID == tableID {
            return &m.Tables[i]
        }
    }
    return nil
}

// Assignment is the delta returned by Assign and Unassign.
type Assignment struct {
    Guest model.Guest             `json:"guest"`
    Table *seating.TableSummary   `json:"table"`
    Freed *seating.TableSummary   `json:"freed,omitempty"`
}

// ChangeFunc edits a locked guest in place.  The transaction is available
// for additional checks.
type ChangeFunc func(ctx context.Context, tx *sql.Tx, g *model.Guest) error

// Assign seats a confirmed guest at a table if the table has room for the
// guest and their companions.
func (s *SeatingService) Assign(ctx context.Context, guestID, tableID string) (Assignment, error) {
    guestID, tableID = strings.TrimSpace(guestID), strings.TrimSpace(tableID)
    if guestID == "" || tableID == "" {
        return Assignment{}, Validation(MsgSelectTableAndGuest)
    }
    m, err := s.Mutate(ctx, guestID, tableID, func(_ context.Context, _ *sql.Tx, g *model.Guest) error {
        g.TableID = &tableID
        return nil
    })
    if err != nil {
        return Assignment{}, err
    }
    out := Assignment{Guest: m.Guest, Table: m.Summary(tableID)}
    if m.Before.TableID != nil && *m.Before.TableID != tableID {
        out.Freed = m.Summary(*m.Before.TableID)
    }
    return out, nil
}

// Unassign clears the guest's table.  Unseated guests are returned as is.
func (s *SeatingService) Unassign(ctx context.Context, guestID string) (Assignment, error) {
    guestID = strings.TrimSpace(guestID)
    if guestID == "" {
        return Assignment{}, Validation("Selecione um convidado")
    }
    m, err := s.Mutate(ctx, guestID, "", func(_ context.Context, _ *sql.Tx, g *model.Guest) error {
        g.TableID = nil
        return nil
    })
    if err != nil {
        return Assignment{}, err
    }
    out := Assignment{Guest: m.Guest}
    if m.Before.TableID != nil {
        out.Freed = m.Summary(*m.Before.TableID)
    }
    return out, nil
}

// Mutate applies change to a guest inside one transaction.  targetTable
// names a table the change may seat the guest at; it is locked along with
// the guest's current table.  After the change:
//   - a guest newly marked rejected gives up their seat;
//   - a guest moving to a table must be confirmed;
//   - moving, or growing the party, must fit the table's remaining seats.
// Seating events are published after commit.
func (s *SeatingService) Mutate(ctx context.Context, guestID, targetTable string, change ChangeFunc) (Mutation, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return Mutation{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    m, locked, err := s.mutateTx(ctx, tx, guestID, targetTable, change)
    if err != nil {
        return Mutation{}, err
    }
    if err := tx.Commit(); err != nil {
        return Mutation{}, err
    }
    committed = true
    s.publishSeating(ctx, m, locked)
    return m, nil
}

func (s *SeatingService) mutateTx(ctx context.Context, tx *sql.Tx, guestID, targetTable string, change ChangeFunc) (Mutation, map[string]model.Table, error) {
    peek, err := s.Guests.GetByIDTx(ctx, tx, guestID)
    if err != nil {
        return Mutation{}, nil, AsError(err)
    }

    ids := make([]string, 0, 2)
    if peek.TableID != nil {
        ids = append(ids, *peek.TableID)
    }
    if targetTable != "" && (peek.TableID == nil || *peek.TableID != targetTable) {
        ids = append(ids, targetTable)
    }
    sort.Strings(ids)
    locked := make(map[string]model.Table, len(ids))
    for _, id := range ids {
        t, err := s.Tables.GetForUpdateTx(ctx, tx, id)
        if err != nil {
            if errors.Is(err, repository.ErrTableNotFound) && id != targetTable {
                continue
            }
            return Mutation{}, nil, AsError(err)
        }
        locked[id] = t
    }

    g, err := s.Guests.GetForUpdateTx(ctx, tx, guestID)
    if err != nil {
        return Mutation{}, nil, AsError(err)
    }
    if !sameTable(g.TableID, peek.TableID) {
        return Mutation{}, nil, AsError(repository.ErrStaleWrite)
    }

    before := g
    if err := change(ctx, tx, &g); err != nil {
        return Mutation{}, nil, AsError(err)
    }
    if g.Status == model.StatusRejected && before.Status != model.StatusRejected {
        g.TableID = nil
    }

    m := Mutation{Before: before, Guest: g}
    if g.TableID != nil {
        t, ok := locked[*g.TableID]
        if !ok {
            return Mutation{}, nil, AsError(repository.ErrTableNotFound)
        }
        moved := m.Moved()
        if moved && g.Status != model.StatusConfirmed {
            return Mutation{}, nil, newError(CodeGuestNotConfirmed,
                fmt.Sprintf("%s ainda não confirmou presença. Apenas convidados confirmados podem ser sentados", g.Name))
        }
        if moved || g.Seats() > before.Seats() {
            seated, err := s.Guests.ListByTableTx(ctx, tx, t.ID)
            if err != nil {
                return Mutation{}, nil, err
            }
            avail := seating.AvailableExcluding(t, seated, g.ID)
            if !seating.Fits(avail, g) {
                return Mutation{}, nil, newError(CodeCapacityExceeded,
                    fmt.Sprintf("%s tem apenas %d lugar(es) disponível(is); %s precisa de %d", t.Name, max(avail, 0), g.Name, g.Seats()))
            }
        }
    }

    if reflect.DeepEqual(before, g) {
        return m, locked, s.summarize(ctx, tx, &m, locked)
    }
    if err := s.Guests.UpdateTx(ctx, tx, &g); err != nil {
        return Mutation{}, nil, AsError(err)
    }
    m.Guest = g
    return m, locked, s.summarize(ctx, tx, &m, locked)
}

// summarize fills in the summaries of the tables the guest left or joined.
func (s *SeatingService) summarize(ctx context.Context, tx *sql.Tx, m *Mutation, locked map[string]model.Table) error {
    seen := map[string]bool{}
    for _, id := range []*string{m.Before.TableID, m.Guest.TableID} {
        if id == nil || seen[*id] {
            continue
        }
        seen[*id] = true
        t, ok := locked[*id]
        if !ok {
            continue
        }
        seated, err := s.Guests.ListByTableTx(ctx, tx, t.ID)
        if err != nil {
            return err
        }
        m.Tables = append(m.Tables, seating.Summary(t, seated))
    }
    return nil
}

func (s *SeatingService) publishSeating(ctx context.Context, m Mutation, locked map[string]model.Table) {
    if !m.Moved() {
        return
    }
    if m.Before.TableID != nil {
        ev := q.NewGuestEvent(q.EventGuestUnseated, m.Guest.ID, m.Guest.Name)
        ev.Status = string(m.Guest.Status)
        ev.Companions = m.Guest.Companions
        ev.TableID = *m.Before.TableID
        ev.TableName = locked[*m.Before.TableID].Name
        publish(ctx, s.Events, ev)
    }
    if m.Guest.TableID != nil {
        ev := q.NewGuestEvent(q.EventGuestSeated, m.Guest.ID, m.Guest.Name)
        ev.Status = string(m.Guest.Status)
        ev.Companions = m.Guest.Companions
        ev.TableID = *m.Guest.TableID
        ev.TableName = locked[*m.Guest.TableID].Name
        publish(ctx, s.Events, ev)
    }
}

func sameTable(a, b *string) bool {
    if a == nil || b == nil {
        return a == nil && b == nil
    }
    return *a == *b
}
