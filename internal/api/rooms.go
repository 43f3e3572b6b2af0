package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"aulabook/internal/models"
)

// listRooms handles GET /api/v1/rooms.
func (s *Server) listRooms(c echo.Context) error {
	rooms, err := s.svc.ListRooms(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// getRoom handles GET /api/v1/rooms/:id.
func (s *Server) getRoom(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := s.svc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// createRoom handles POST /api/v1/admin/rooms.
func (s *Server) createRoom(c echo.Context) error {
	var room models.Room
	if err := c.Bind(&room); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := s.svc.CreateRoom(c.Request().Context(), principalFrom(c), &room); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}
