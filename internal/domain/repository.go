package domain

import (
	"context"
	"time"

	"aulabook/internal/models"
)

// ReservationRepository is the persistence surface the lifecycle engine is
// written against. Implementations return ErrNotFound for unknown IDs.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, res *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, id int64) error

	// HasConflict reports whether any APPROVED reservation for the room
	// overlaps [start, end). excludeID > 0 leaves that reservation out of
	// the check.
	HasConflict(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error)

	// UpdateDecision applies an admin decision to a PENDING reservation:
	// new status, admin note, cancellation flag cleared, update instant
	// stamped. ErrInvalidState when the reservation is no longer PENDING.
	UpdateDecision(ctx context.Context, id int64, status, note string) error

	// SetCancelRequested raises the cancellation flag and stores the
	// reason. ErrInvalidState when the reservation is not APPROVED.
	SetCancelRequested(ctx context.Context, id int64, reason string) error

	// ApproveCancellation moves a flagged APPROVED reservation to
	// CANCELLED, clears the flag and records the resolving admin and
	// instant. ErrInvalidState when that precondition no longer holds.
	ApproveCancellation(ctx context.Context, id int64, resolverID int64, resolvedAt time.Time, note string) error

	// RejectCancellation clears the flag on a flagged APPROVED reservation
	// and stores the rejection note, leaving the status untouched.
	// ErrInvalidState when that precondition no longer holds.
	RejectCancellation(ctx context.Context, id int64, note string) error

	// CloseExpired transitions APPROVED reservations with end <= now to
	// CLOSED and returns how many rows changed.
	CloseExpired(ctx context.Context, now time.Time) (int64, error)

	ListUpcoming(ctx context.Context, now time.Time) ([]models.Reservation, error)
	ListAll(ctx context.Context) ([]models.Reservation, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]models.Reservation, error)
	ListByStatus(ctx context.Context, status string) ([]models.Reservation, error)
}

// RoomRepository provides access to the room registry.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
}
