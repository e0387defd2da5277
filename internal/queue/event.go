// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ActivityQueue is the durable queue every guest event is published to.
const ActivityQueue = "guest.activity"

// Event types.
const (
    EventInvitationSent = "invitation.sent"
    EventRSVPUpdated    = "rsvp.updated"
    EventGuestSeated    = "guest.seated"
    EventGuestUnseated  = "guest.unseated"
)

// GuestEvent is published after a guest-facing change commits.  It carries
// enough context for consumers to log or notify without querying the
// primary database.
type GuestEvent struct {
    Type       string `json:"type"`
    GuestID    string `json:"guest_id"`
    GuestName  string `json:"guest_name"`
    Status     string `json:"status,omitempty"`
    Companions int    `json:"companions"`
    TableID    string `json:"table_id,omitempty"`
    TableName  string `json:"table_name,omitempty"`
    Method     string `json:"method,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// NewGuestEvent stamps an event with the current UTC time.
func NewGuestEvent(typ, guestID, guestName string) GuestEvent {
    return GuestEvent{
        Type:       typ,
        GuestID:    guestID,
        GuestName:  guestName,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}
