package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    q "github.com/larslemos/ninho-do-amor-sub000/internal/queue"
    "github.com/larslemos/ninho-do-amor-sub000/internal/seating"
)

// MaxTableCapacity bounds a single table.
const MaxTableCapacity = 100

// TableService manages tables.  Seat changes go through the SeatingService.
type TableService struct {
    Seating *SeatingService
}

func NewTableService(seatingSvc *SeatingService) *TableService {
    return &TableService{Seating: seatingSvc}
}

// TableOverview lists every table with its occupancy plus the guests
// without a seat.
type TableOverview struct {
    Tables   []seating.TableSummary `json:"tables"`
    Unseated []model.Guest          `json:"unseated"`
}

func (s *TableService) List(ctx context.Context) (TableOverview, error) {
    tables, err := s.Seating.Tables.List(ctx)
    if err != nil {
        return TableOverview{}, err
    }
    guests, err := s.Seating.Guests.List(ctx)
    if err != nil {
        return TableOverview{}, err
    }
    summaries, unseated := seating.Summarize(tables, guests)
    return TableOverview{Tables: summaries, Unseated: unseated}, nil
}

func validCapacity(c int) error {
    if c < 1 || c > MaxTableCapacity {
        return Validation(fmt.Sprintf("A capacidade deve estar entre 1 e %d", MaxTableCapacity))
    }
    return nil
}

// Create adds a single table.
func (s *TableService) Create(ctx context.Context, name string, capacity int) (seating.TableSummary, error) {
    name = strings.TrimSpace(name)
    if name == "" {
        return seating.TableSummary{}, Validation("Nome da mesa é obrigatório")
    }
    if err := validCapacity(capacity); err != nil {
        return seating.TableSummary{}, err
    }
    t := model.Table{Name: name, Capacity: capacity}
    if err := s.Seating.Tables.Create(ctx, &t); err != nil {
        return seating.TableSummary{}, err
    }
    return seating.Summary(t, nil), nil
}

// Delete unseats every guest at the table and removes it in one
// transaction.  It returns the guests that were unseated.
func (s *TableService) Delete(ctx context.Context, tableID string) ([]model.Guest, error) {
    tableID = strings.TrimSpace(tableID)
    if tableID == "" {
        return nil, Validation("Selecione uma mesa")
    }
    tx, err := s.Seating.DB.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    t, err := s.Seating.Tables.GetForUpdateTx(ctx, tx, tableID)
    if err != nil {
        return nil, AsError(err)
    }
    seated, err := s.Seating.Guests.ListByTableTx(ctx, tx, t.ID)
    if err != nil {
        return nil, err
    }
    if _, err := s.Seating.Guests.ClearTableTx(ctx, tx, t.ID); err != nil {
        return nil, err
    }
    if err := s.Seating.Tables.DeleteTx(ctx, tx, t.ID); err != nil {
        return nil, AsError(err)
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    for i := range seated {
        ev := q.NewGuestEvent(q.EventGuestUnseated, seated[i].ID, seated[i].Name)
        ev.Status = string(seated[i].Status)
        ev.Companions = seated[i].Companions
        ev.TableID, ev.TableName = t.ID, t.Name
        publish(ctx, s.Seating.Events, ev)
        seated[i].TableID = nil
        seated[i].Version++
    }
    return seated, nil
}

// BulkInput asks for a generated layout.  When Count is zero it is derived
// from GuestCount, or from the seats of confirmed guests when GuestCount is
// also zero.
type BulkInput struct {
    Count      int
    Capacity   int
    Prefix     string
    GuestCount int
}

type BulkResult struct {
    Tables  []seating.TableSummary `json:"tables"`
    Message string                 `json:"message"`
}

// Bulk creates a numbered series of tables in one transaction.
func (s *TableService) Bulk(ctx context.Context, in BulkInput) (BulkResult, error) {
    if err := validCapacity(in.Capacity); err != nil {
        return BulkResult{}, err
    }
    if in.Count < 0 || in.GuestCount < 0 {
        return BulkResult{}, Validation("Quantidade inválida")
    }
    tx, err := s.Seating.DB.BeginTx(ctx, nil)
    if err != nil {
        return BulkResult{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    existing, err := s.Seating.Tables.ListTx(ctx, tx)
    if err != nil {
        return BulkResult{}, err
    }
    seats := in.GuestCount
    if in.Count == 0 && seats == 0 {
        guests, err := s.Seating.Guests.ListTx(ctx, tx)
        if err != nil {
            return BulkResult{}, err
        }
        seats = seating.SeatsNeeded(guests)
    }
    planned, err := seating.Plan(seating.LayoutRequest{Count: in.Count, Capacity: in.Capacity, Prefix: in.Prefix}, existing, seats)
    switch {
    case errors.Is(err, seating.ErrNothingToSeat):
        return BulkResult{}, Validation("Não há convidados confirmados para calcular as mesas. Indique a quantidade")
    case errors.Is(err, seating.ErrInvalidCount):
        return BulkResult{}, Validation(fmt.Sprintf("A quantidade de mesas deve estar entre 1 e %d", seating.MaxBulkTables))
    case err != nil:
        return BulkResult{}, Validation(err.Error())
    }
    if err := s.Seating.Tables.CreateManyTx(ctx, tx, planned); err != nil {
        return BulkResult{}, err
    }
    if err := tx.Commit(); err != nil {
        return BulkResult{}, err
    }
    committed = true

    out := BulkResult{Tables: make([]seating.TableSummary, 0, len(planned))}
    for _, t := range planned {
        out.Tables = append(out.Tables, seating.Summary(t, nil))
    }
    if len(planned) == 1 {
        out.Message = "1 mesa criada"
    } else {
        out.Message = fmt.Sprintf("%d mesas criadas", len(planned))
    }
    return out, nil
}

// Assign and Unassign are exposed here so the tables API has a single
// service to talk to.
func (s *TableService) Assign(ctx context.Context, guestID, tableID string) (Assignment, error) {
    return s.Seating.Assign(ctx, guestID, tableID)
}

func (s *TableService) Unassign(ctx context.Context, guestID string) (Assignment, error) {
    return s.Seating.Unassign(ctx, guestID)
}
