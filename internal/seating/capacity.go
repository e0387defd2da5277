// Package seating holds the pure capacity arithmetic used for table
// assignment and layout generation.  Nothing here touches the database; the
// service layer loads rows under lock and asks these functions for a verdict.
package seating

import "github.com/larslemos/ninho-do-amor-sub000/internal/model"

// TableSummary is a table together with its current occupancy.  Available
// may be negative when a table is overbooked.
type TableSummary struct {
    Table     model.Table   `json:"table"`
    Occupied  int           `json:"occupied"`
    Available int           `json:"available"`
    Guests    []model.Guest `json:"guests"`
}

// Occupied sums the seats of every guest assigned to t.
func Occupied(t model.Table, guests []model.Guest) int {
    n := 0
    for _, g := range guests {
        if g.SeatedAt(t.ID) {
            n += g.Seats()
        }
    }
    return n
}

// Available returns capacity minus occupied seats.  The result is not
// clamped.
func Available(t model.Table, guests []model.Guest) int {
    return t.Capacity - Occupied(t, guests)
}

// AvailableExcluding is Available computed as if the guest with id
// guestID were not seated at t.  It is used when re-checking a guest that
// is already at the table (moves and companion changes).
func AvailableExcluding(t model.Table, guests []model.Guest, guestID string) int {
    n := 0
    for _, g := range guests {
        if g.ID != guestID && g.SeatedAt(t.ID) {
            n += g.Seats()
        }
    }
    return t.Capacity - n
}

// Fits reports whether g can be seated given the available seats.
func Fits(available int, g model.Guest) bool {
    return available >= g.Seats()
}

// Summarize builds one TableSummary per table, in input order, and returns
// the guests that are not seated at any of the given tables.
func Summarize(tables []model.Table, guests []model.Guest) ([]TableSummary, []model.Guest) {
    byTable := make(map[string][]model.Guest, len(tables))
    known := make(map[string]bool, len(tables))
    for _, t := range tables {
        known[t.ID] = true
    }
    unseated := make([]model.Guest, 0)
    for _, g := range guests {
        if g.TableID != nil && known[*g.TableID] {
            byTable[*g.TableID] = append(byTable[*g.TableID], g)
            continue
        }
        unseated = append(unseated, g)
    }

    out := make([]TableSummary, 0, len(tables))
    for _, t := range tables {
        seated := byTable[t.ID]
        if seated == nil {
            seated = []model.Guest{}
        }
        occ := 0
        for _, g := range seated {
            occ += g.Seats()
        }
        out = append(out, TableSummary{
            Table:     t,
            Occupied:  occ,
            Available: t.Capacity - occ,
            Guests:    seated,
        })
    }
    return out, unseated
}

// Summary returns the TableSummary of a single table.
func Summary(t model.Table, guests []model.Guest) TableSummary {
    s, _ := Summarize([]model.Table{t}, guests)
    return s[0]
}
