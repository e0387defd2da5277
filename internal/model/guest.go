package model

import (
    "encoding/json"
    "time"
)

// Guest represents one invitee as stored in the `guests` table.
//
// Fields:
//  ID               – UUID assigned at creation, immutable.
//  Name             – display name, never empty.
//  Phone, Email     – optional contact channels.
//  Status           – RSVP status (pending, confirmed, rejected).
//  TableID          – seated table, nil when unseated.
//  Companions       – extra seats consumed beyond the guest's own.
//  UniqueURL        – opaque slug used for the public invitation link.
//  InvitationSentAt – when the last invitation went out.
//  RSVPDeadline     – advisory response deadline.
//  Version          – incremented on every write, used to reject stale updates.
type Guest struct {
    ID               string     `json:"id"`
    Name             string     `json:"name"`
    Phone            *string    `json:"phone"`
    Email            *string    `json:"email"`
    Status           Status     `json:"status"`
    TableID          *string    `json:"table_id"`
    Companions       int        `json:"companions"`
    UniqueURL        string     `json:"unique_url"`
    InvitationSentAt *time.Time `json:"invitation_sent_at"`
    RSVPDeadline     *time.Time `json:"rsvp_deadline"`
    Version          int        `json:"version"`
    CreatedAt        time.Time  `json:"created_at"`
    UpdatedAt        time.Time  `json:"updated_at"`
}

// Seats returns how many seats the guest occupies at a table.
func (g Guest) Seats() int {
    if g.Companions < 0 {
        return 1
    }
    return 1 + g.Companions
}

// SeatedAt reports whether the guest is assigned to the given table.
func (g Guest) SeatedAt(tableID string) bool {
    return g.TableID != nil && *g.TableID == tableID
}

// MarshalJSON adds the status presentation so clients never re-derive it.
func (g Guest) MarshalJSON() ([]byte, error) {
    type plain Guest
    p := Presentation(g.Status)
    return json.Marshal(struct {
        plain
        StatusLabel string `json:"status_label"`
        StatusIcon  string `json:"status_icon"`
    }{plain(g), p.Label, p.Icon})
}

// PublicGuest is the subset of a guest exposed on the unauthenticated
// invitation page.
type PublicGuest struct {
    Name         string     `json:"name"`
    Status       Status     `json:"status"`
    StatusLabel  string     `json:"status_label"`
    Companions   int        `json:"companions"`
    TableName    *string    `json:"table_name"`
    RSVPDeadline *time.Time `json:"rsvp_deadline"`
}

// Public builds the public view of g.  tableName may be nil.
func (g Guest) Public(tableName *string) PublicGuest {
    return PublicGuest{
        Name:         g.Name,
        Status:       g.Status,
        StatusLabel:  Presentation(g.Status).Label,
        Companions:   g.Companions,
        TableName:    tableName,
        RSVPDeadline: g.RSVPDeadline,
    }
}

// DeadlinePassed reports whether the RSVP deadline is set and before now.
func (g Guest) DeadlinePassed(now time.Time) bool {
    return g.RSVPDeadline != nil && now.After(*g.RSVPDeadline)
}

// StrPtr returns nil for an empty string and a pointer to s otherwise.
func StrPtr(s string) *string {
    if s == "" {
        return nil
    }
    return &s
}

// StrVal dereferences p, returning "" for nil.
func StrVal(p *string) string {
    if p == nil {
        return ""
    }
    return *p
}
