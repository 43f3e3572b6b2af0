package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aulabook/internal/domain"
	"aulabook/internal/models"
)

// reservationResponse is a reservation plus its derived weekday in the
// organization timezone.
type reservationResponse struct {
	models.Reservation
	Day string `json:"day"`
}

func newReservationResponse(res models.Reservation, loc *time.Location) reservationResponse {
	return reservationResponse{Reservation: res, Day: res.Day(loc).String()}
}

func newReservationList(reservations []models.Reservation, loc *time.Location) []reservationResponse {
	out := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, newReservationResponse(res, loc))
	}
	return out
}

// writeError maps domain sentinel errors to HTTP statuses. Anything
// unmatched is a 500 with a generic body so internals do not leak.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrScheduleConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
