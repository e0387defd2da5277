package model

import "strings"

// Status is the RSVP state of a guest.  Any status may be written over any
// other; there is no guarded lifecycle.
type Status string

const (
    StatusPending   Status = "pending"
    StatusConfirmed Status = "confirmed"
    StatusRejected  Status = "rejected"
)

// StatusPresentation is the icon/label pair shown next to a guest.
type StatusPresentation struct {
    Icon  string `json:"icon"`
    Label string `json:"label"`
}

var presentations = map[Status]StatusPresentation{
    StatusPending:   {Icon: "clock", Label: "Pendente"},
    StatusConfirmed: {Icon: "check-circle", Label: "Confirmado"},
    StatusRejected:  {Icon: "x-circle", Label: "Rejeitado"},
}

// Presentation maps a status to its display semantics.  Unknown values fall
// back to the pending presentation.
func Presentation(s Status) StatusPresentation {
    if p, ok := presentations[s]; ok {
        return p
    }
    return presentations[StatusPending]
}

// ParseStatus normalises raw input and reports whether it names a known status.
func ParseStatus(raw string) (Status, bool) {
    s := Status(strings.ToLower(strings.TrimSpace(raw)))
    _, ok := presentations[s]
    return s, ok
}

// Statuses lists the known statuses in display order.
func Statuses() []Status {
    return []Status{StatusPending, StatusConfirmed, StatusRejected}
}
