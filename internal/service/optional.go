package service

import (
    "encoding/json"
    "time"
)

// OptionalString distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type OptionalString struct {
    Set   bool
    Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
    o.Set = true
    if string(b) == "null" {
        o.Value = nil
        return nil
    }
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return err
    }
    o.Value = &s
    return nil
}

// Some returns a set OptionalString holding s.
func Some(s string) OptionalString { return OptionalString{Set: true, Value: &s} }

// Null returns a set OptionalString holding null.
func Null() OptionalString { return OptionalString{Set: true} }

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDeadline accepts RFC 3339 timestamps or plain dates.  An empty
// string clears the deadline.
func parseDeadline(raw string) (*time.Time, error) {
    if raw == "" {
        return nil, nil
    }
    var lastErr error
    for _, layout := range dateLayouts {
        t, err := time.Parse(layout, raw)
        if err == nil {
            t = t.UTC()
            return &t, nil
        }
        lastErr = err
    }
    return nil, lastErr
}
