package seating

import (
    "errors"
    "fmt"
    "strconv"
    "strings"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

// DefaultPrefix names generated tables ("Mesa 1", "Mesa 2", ...).
const DefaultPrefix = "Mesa"

// MaxBulkTables caps a single layout request.
const MaxBulkTables = 200

var (
    ErrInvalidCapacity = errors.New("capacity must be at least 1")
    ErrInvalidCount    = errors.New("table count must be between 1 and 200")
    ErrNothingToSeat   = errors.New("no seats to plan for")
)

// LayoutRequest describes a bulk table generation.  When Count is zero it is
// derived from the seats that need a place.
type LayoutRequest struct {
    Count    int
    Capacity int
    Prefix   string
}

// TablesNeeded is ceil(seats / capacity).
func TablesNeeded(seats, capacity int) int {
    if capacity <= 0 || seats <= 0 {
        return 0
    }
    return (seats + capacity - 1) / capacity
}

// SeatsNeeded totals the seats of confirmed guests.
func SeatsNeeded(guests []model.Guest) int {
    n := 0
    for _, g := range guests {
        if g.Status == model.StatusConfirmed {
            n += g.Seats()
        }
    }
    return n
}

// NextNumber returns the first free number after the highest "<prefix> N"
// among existing tables.  Matching is case-insensitive.
func NextNumber(prefix string, existing []model.Table) int {
    p := strings.ToLower(strings.TrimSpace(prefix)) + " "
    highest := 0
    for _, t := range existing {
        name := strings.ToLower(strings.TrimSpace(t.Name))
        if !strings.HasPrefix(name, p) {
            continue
        }
        if n, err := strconv.Atoi(strings.TrimSpace(name[len(p):])); err == nil && n > highest {
            highest = n
        }
    }
    return highest + 1
}

// Plan returns the tables a layout request would create.  IDs are left
// empty for the repository to fill in.
func Plan(req LayoutRequest, existing []model.Table, seatsNeeded int) ([]model.Table, error) {
    if req.Capacity < 1 {
        return nil, ErrInvalidCapacity
    }
    count := req.Count
    if count == 0 {
        count = TablesNeeded(seatsNeeded, req.Capacity)
        if count == 0 {
            return nil, ErrNothingToSeat
        }
    }
    if count < 1 || count > MaxBulkTables {
        return nil, ErrInvalidCount
    }
    prefix := strings.TrimSpace(req.Prefix)
    if prefix == "" {
        prefix = DefaultPrefix
    }
    start := NextNumber(prefix, existing)
    out := make([]model.Table, 0, count)
    for i := 0; i < count; i++ {
        out = append(out, model.Table{
            Name:     fmt.Sprintf("%s %d", prefix, start+i),
            Capacity: req.Capacity,
        })
    }
    return out, nil
}
