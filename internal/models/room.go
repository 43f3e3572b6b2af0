package models

import "time"

// Room represents a bookable room. Rooms are reference data: the booking
// flow only reads them, administration maintains them.
type Room struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Capacity   int       `json:"capacity"`
	Facilities string    `json:"facilities,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
