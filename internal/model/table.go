package model

import "time"

// Table is a seating group ("mesa").  Capacity bounds the total seats of the
// guests assigned to it.
type Table struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Capacity  int       `json:"capacity"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}
