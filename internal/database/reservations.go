package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aulabook/internal/domain"
	"aulabook/internal/models"
)

const reservationColumns = `r.id, r.requester_id, r.requester_name, r.room_id, rm.name,
	r.start_time, r.end_time, r.activity, r.responsible, r.responsible_phone, r.notes,
	r.status, r.cancel_requested, r.cancel_reason, r.cancel_resolved_by, r.cancel_resolved_at,
	r.admin_note, r.created_at, r.updated_at`

const reservationFrom = ` FROM reservations r JOIN rooms rm ON rm.id = r.room_id`

// CreateReservation inserts a new reservation and fills its ID and
// timestamps. The caller is responsible for conflict checking. Interval
// bounds are stored in UTC: the driver binds time.Time as text in the
// value's own offset, and the window predicates compare those strings, so
// mixed offsets must never reach the table.
func (db *DB) CreateReservation(ctx context.Context, res *models.Reservation) error {
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO reservations (
			requester_id, requester_name, room_id, start_time, end_time,
			activity, responsible, responsible_phone, notes, status,
			cancel_requested, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		res.RequesterID, res.RequesterName, res.RoomID, res.StartTime, res.EndTime,
		res.Activity, res.Responsible, res.ResponsiblePhone, res.Notes, res.Status,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	res.ID = id
	res.CancelRequested = false
	res.CreatedAt = now
	res.UpdatedAt = now
	return nil
}

// GetReservation returns a reservation by ID with its room name joined in.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+reservationFrom+` WHERE r.id = ?`, id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return res, nil
}

// DeleteReservation removes a reservation by ID.
func (db *DB) DeleteReservation(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// HasConflict reports whether any APPROVED reservation for the room
// overlaps [start, end). Half-open: intervals touching at a boundary do
// not conflict. excludeID > 0 leaves that reservation out of the check.
func (db *DB) HasConflict(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE room_id = ? AND status = ? AND start_time < ? AND end_time > ? AND id <> ?`,
		roomID, models.StatusApproved, end.UTC(), start.UTC(), excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("conflict check room %d: %w", roomID, err)
	}
	return count > 0, nil
}

// UpdateDecision applies an admin decision to a PENDING reservation. The
// cancellation flag is cleared on every decision. The status guard keeps a
// decision that raced another writer from overwriting a settled row;
// losing the race surfaces as ErrInvalidState.
func (db *DB) UpdateDecision(ctx context.Context, id int64, status, note string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, admin_note = ?, cancel_requested = 0, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, note, time.Now().UTC(), id, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("update decision %d: %w", id, err)
	}
	return requireTransition(result, id)
}

// SetCancelRequested raises the cancellation flag and stores the reason.
// Only APPROVED rows can carry the flag; the sweep may have closed the
// reservation since the caller read it.
func (db *DB) SetCancelRequested(ctx context.Context, id int64, reason string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET cancel_requested = 1, cancel_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		reason, time.Now().UTC(), id, models.StatusApproved,
	)
	if err != nil {
		return fmt.Errorf("set cancel requested %d: %w", id, err)
	}
	return requireTransition(result, id)
}

// ApproveCancellation moves the reservation to CANCELLED and records the
// resolving admin and instant. Guarded on the flagged APPROVED state so a
// row the sweep closed in the meantime is never resurrected.
func (db *DB) ApproveCancellation(ctx context.Context, id int64, resolverID int64, resolvedAt time.Time, note string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, cancel_requested = 0, cancel_resolved_by = ?, cancel_resolved_at = ?,
		    admin_note = ?, updated_at = ?
		WHERE id = ? AND status = ? AND cancel_requested = 1`,
		models.StatusCancelled, resolverID, resolvedAt, note, time.Now().UTC(), id, models.StatusApproved,
	)
	if err != nil {
		return fmt.Errorf("approve cancellation %d: %w", id, err)
	}
	return requireTransition(result, id)
}

// RejectCancellation clears the flag and stores the rejection note; the
// reservation stays APPROVED. Same state guard as ApproveCancellation.
func (db *DB) RejectCancellation(ctx context.Context, id int64, note string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET cancel_requested = 0, admin_note = ?, updated_at = ?
		WHERE id = ? AND status = ? AND cancel_requested = 1`,
		note, time.Now().UTC(), id, models.StatusApproved,
	)
	if err != nil {
		return fmt.Errorf("reject cancellation %d: %w", id, err)
	}
	return requireTransition(result, id)
}

// CloseExpired transitions APPROVED reservations whose end has passed to
// CLOSED. Running it twice with the same now is a no-op.
func (db *DB) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, updated_at = ?
		WHERE status = ? AND end_time <= ?`,
		models.StatusClosed, time.Now().UTC(), models.StatusApproved, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("close expired: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// ListUpcoming returns APPROVED reservations ending at or after now,
// ascending by start.
func (db *DB) ListUpcoming(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	return db.listReservations(ctx,
		`SELECT `+reservationColumns+reservationFrom+
			` WHERE r.status = ? AND r.end_time >= ? ORDER BY r.start_time ASC`,
		models.StatusApproved, now.UTC())
}

// ListAll returns all reservations, newest-created first.
func (db *DB) ListAll(ctx context.Context) ([]models.Reservation, error) {
	return db.listReservations(ctx,
		`SELECT `+reservationColumns+reservationFrom+` ORDER BY r.created_at DESC, r.id DESC`)
}

// ListByRequester returns one requester's reservations, newest-created first.
func (db *DB) ListByRequester(ctx context.Context, requesterID int64) ([]models.Reservation, error) {
	return db.listReservations(ctx,
		`SELECT `+reservationColumns+reservationFrom+
			` WHERE r.requester_id = ? ORDER BY r.created_at DESC, r.id DESC`,
		requesterID)
}

// ListByStatus returns reservations in the given status, newest-created first.
func (db *DB) ListByStatus(ctx context.Context, status string) ([]models.Reservation, error) {
	return db.listReservations(ctx,
		`SELECT `+reservationColumns+reservationFrom+
			` WHERE r.status = ? ORDER BY r.created_at DESC, r.id DESC`,
		status)
}

func (db *DB) listReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]models.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	var resolvedBy sql.NullInt64
	var resolvedAt sql.NullTime
	err := row.Scan(
		&res.ID, &res.RequesterID, &res.RequesterName, &res.RoomID, &res.RoomName,
		&res.StartTime, &res.EndTime, &res.Activity, &res.Responsible, &res.ResponsiblePhone, &res.Notes,
		&res.Status, &res.CancelRequested, &res.CancelReason, &resolvedBy, &resolvedAt,
		&res.AdminNote, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if resolvedBy.Valid {
		id := resolvedBy.Int64
		res.CancelResolvedBy = &id
	}
	if resolvedAt.Valid {
		at := resolvedAt.Time
		res.CancelResolvedAt = &at
	}
	return &res, nil
}

// requireTransition surfaces a guarded UPDATE that matched nothing. Callers
// have already resolved the ID, so zero rows means the precondition was
// lost to a concurrent transition, not that the row is missing.
func requireTransition(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("reservation %d changed state concurrently: %w", id, domain.ErrInvalidState)
	}
	return nil
}
