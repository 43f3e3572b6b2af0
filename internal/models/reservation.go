package models

import "time"

// Reservation statuses.
const (
	StatusPending   = "PENDING"   // submitted, awaiting an admin decision
	StatusApproved  = "APPROVED"  // confirmed; the only status that blocks the slot
	StatusRejected  = "REJECTED"  // declined by an admin
	StatusCancelled = "CANCELLED" // revoked after an approved cancellation request
	StatusClosed    = "CLOSED"    // approved window has elapsed
)

// ValidStatus reports whether s is a known reservation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusClosed:
		return true
	}
	return false
}

// Reservation represents a request to use one room for one time interval.
// Intervals are half-open: the start instant is included, the end instant
// is not.
type Reservation struct {
	ID               int64      `json:"id"`
	RequesterID      int64      `json:"requester_id"`
	RequesterName    string     `json:"requester_name,omitempty"`
	RoomID           int64      `json:"room_id"`
	RoomName         string     `json:"room_name,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	Activity         string     `json:"activity"`
	Responsible      string     `json:"responsible,omitempty"`
	ResponsiblePhone string     `json:"responsible_phone,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Status           string     `json:"status"`
	CancelRequested  bool       `json:"cancel_requested"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
	CancelResolvedBy *int64     `json:"cancel_resolved_by,omitempty"`
	CancelResolvedAt *time.Time `json:"cancel_resolved_at,omitempty"`
	AdminNote        string     `json:"admin_note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Day returns the weekday of the reservation start in the organization's
// timezone. It is a projection of StartTime, never stored.
func (r *Reservation) Day(loc *time.Location) time.Weekday {
	return r.StartTime.In(loc).Weekday()
}

// Overlaps reports whether the reservation's interval intersects
// [start, end) under half-open semantics: touching boundaries do not
// overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// IsTerminal reports whether the reservation can never change status again.
func (r *Reservation) IsTerminal() bool {
	switch r.Status {
	case StatusRejected, StatusCancelled, StatusClosed:
		return true
	}
	return false
}

// OwnerDeletable reports whether the owning requester may delete the
// reservation. Owners may only remove requests that were never confirmed.
func (r *Reservation) OwnerDeletable() bool {
	return r.Status == StatusPending || r.Status == StatusRejected
}

// Expired reports whether an approved reservation's window has elapsed at
// the given instant.
func (r *Reservation) Expired(now time.Time) bool {
	return r.Status == StatusApproved && !r.EndTime.After(now)
}
