// Package directory implements the guest list views: search filtering,
// per-status statistics and CSV export/import.
package directory

import (
    "strings"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

// Filter returns the guests whose name, phone, status or email contains
// search, ignoring case.  A non-empty status further restricts the result to
// that exact status; "all" disables the restriction.
func Filter(guests []model.Guest, search, status string) []model.Guest {
    needle := strings.ToLower(strings.TrimSpace(search))
    st := strings.ToLower(strings.TrimSpace(status))
    out := make([]model.Guest, 0, len(guests))
    for _, g := range guests {
        if st != "" && st != "all" && string(g.Status) != st {
            continue
        }
        if needle != "" && !matches(g, needle) {
            continue
        }
        out = append(out, g)
    }
    return out
}

func matches(g model.Guest, needle string) bool {
    for _, field := range []string{g.Name, model.StrVal(g.Phone), string(g.Status), model.StrVal(g.Email)} {
        if strings.Contains(strings.ToLower(field), needle) {
            return true
        }
    }
    return false
}

// Stats summarises a guest list.
type Stats struct {
    Total          int `json:"total"`
    Pending        int `json:"pending"`
    Confirmed      int `json:"confirmed"`
    Rejected       int `json:"rejected"`
    Seats          int `json:"seats"`
    ConfirmedSeats int `json:"confirmed_seats"`
    Seated         int `json:"seated"`
    InvitesSent    int `json:"invites_sent"`
}

// Summarize counts guests per status.  Unknown statuses count as pending,
// matching how they are displayed.
func Summarize(guests []model.Guest) Stats {
    var s Stats
    for _, g := range guests {
        s.Total++
        s.Seats += g.Seats()
        switch g.Status {
        case model.StatusConfirmed:
            s.Confirmed++
            s.ConfirmedSeats += g.Seats()
        case model.StatusRejected:
            s.Rejected++
        default:
            s.Pending++
        }
        if g.TableID != nil {
            s.Seated++
        }
        if g.InvitationSentAt != nil {
            s.InvitesSent++
        }
    }
    return s
}
