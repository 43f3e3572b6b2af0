package service

import (
	"context"
	"fmt"
	"strings"

	"aulabook/internal/auth"
	"aulabook/internal/domain"
	"aulabook/internal/models"
)

// CreateRoom registers a new room. Admin-only; the booking flow never
// mutates the registry.
func (s *ReservationService) CreateRoom(ctx context.Context, admin auth.Principal, room *models.Room) error {
	if !admin.IsAdmin {
		return fmt.Errorf("creating rooms: %w", domain.ErrForbidden)
	}
	if strings.TrimSpace(room.Name) == "" {
		return fmt.Errorf("%w: room name is required", domain.ErrValidation)
	}
	if room.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", domain.ErrValidation)
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	s.logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Msg("room created")
	return nil
}

// GetRoom returns one room from the registry.
func (s *ReservationService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.store.GetRoom(ctx, id)
}

// ListRooms returns the room registry.
func (s *ReservationService) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.store.ListRooms(ctx)
}
