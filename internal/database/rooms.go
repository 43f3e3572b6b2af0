package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aulabook/internal/domain"
	"aulabook/internal/models"
)

// CreateRoom inserts a new room and fills its ID and timestamps.
func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO rooms (name, capacity, facilities, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		room.Name, room.Capacity, room.Facilities, room.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	room.ID = id
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

// GetRoom returns a room by ID.
func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := db.QueryRowContext(ctx, `
		SELECT id, name, capacity, facilities, notes, created_at, updated_at
		FROM rooms WHERE id = ?`, id,
	).Scan(&room.ID, &room.Name, &room.Capacity, &room.Facilities, &room.Notes,
		&room.CreatedAt, &room.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("room %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room %d: %w", id, err)
	}
	return &room, nil
}

// ListRooms returns all rooms ordered by name.
func (db *DB) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, capacity, facilities, notes, created_at, updated_at
		FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity, &room.Facilities,
			&room.Notes, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}
