// Package domain defines the contracts between the reservation engine and
// its collaborators: the error taxonomy every operation reports through and
// the persistence interfaces the engine is written against.
package domain

import "errors"

// ErrValidation is returned for malformed input: end not after start, an
// empty cancellation reason, an empty rejection note. Handlers should
// translate this into an HTTP 422 response.
var ErrValidation = errors.New("validation failed")

// ErrScheduleConflict is returned when a requested interval overlaps an
// approved reservation for the same room. Handlers should translate this
// into an HTTP 409 response.
var ErrScheduleConflict = errors.New("schedule conflict")

// ErrInvalidState is returned when an operation is not legal for the
// reservation's current status or cancellation flag.
var ErrInvalidState = errors.New("invalid state")

// ErrForbidden is returned when the caller lacks the required ownership or
// administrator relationship.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned for unknown reservation or room identities.
var ErrNotFound = errors.New("not found")
