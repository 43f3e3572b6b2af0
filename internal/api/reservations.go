package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"aulabook/internal/export"
	"aulabook/internal/service"
)

type submitRequest struct {
	RoomID           int64     `json:"room_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Activity         string    `json:"activity"`
	Responsible      string    `json:"responsible"`
	ResponsiblePhone string    `json:"responsible_phone"`
	Notes            string    `json:"notes"`
}

type decisionRequest struct {
	Outcome string `json:"outcome"`
	Note    string `json:"note"`
}

type cancellationRequest struct {
	Reason string `json:"reason"`
}

func reservationID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// submitReservation handles POST /api/v1/reservations.
func (s *Server) submitReservation(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := s.svc.Submit(c.Request().Context(), principalFrom(c), service.SubmitInput{
		RoomID:           req.RoomID,
		Start:            req.StartTime,
		End:              req.EndTime,
		Activity:         req.Activity,
		Responsible:      req.Responsible,
		ResponsiblePhone: req.ResponsiblePhone,
		Notes:            req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newReservationResponse(*res, s.svc.Location()))
}

// listReservations handles GET /api/v1/reservations. Admins see everything,
// requesters their own history.
func (s *Server) listReservations(c echo.Context) error {
	reservations, err := s.svc.ListAll(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationList(reservations, s.svc.Location()))
}

// deleteReservation handles DELETE /api/v1/reservations/:id.
func (s *Server) deleteReservation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := s.svc.Delete(c.Request().Context(), principalFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// requestCancellation handles POST /api/v1/reservations/:id/cancellation.
// Re-requesting while a request is pending is a no-op reported in the body.
func (s *Server) requestCancellation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req cancellationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	alreadyPending, err := s.svc.RequestCancellation(c.Request().Context(), principalFrom(c), id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"already_pending": alreadyPending})
}

// upcomingSchedule handles GET /api/v1/schedule/upcoming, the public
// approved schedule. Responses are served from the cache when present.
// The expiry sweep runs before the cache is consulted: closing anything
// publishes an event that drops the cached payload, so a booking that
// elapsed within the TTL is never served as upcoming.
func (s *Server) upcomingSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.svc.Reconcile(ctx); err != nil {
		return writeError(c, err)
	}
	if payload, ok := s.cache.GetUpcoming(ctx); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	reservations, err := s.svc.ListUpcoming(ctx)
	if err != nil {
		return writeError(c, err)
	}
	payload, err := json.Marshal(newReservationList(reservations, s.svc.Location()))
	if err != nil {
		return writeError(c, err)
	}
	s.cache.SetUpcoming(ctx, payload)
	return c.JSONBlob(http.StatusOK, payload)
}

// adminListReservations handles GET /api/v1/admin/reservations with an
// optional ?status= filter.
func (s *Server) adminListReservations(c echo.Context) error {
	reservations, err := s.svc.ListByStatus(c.Request().Context(), principalFrom(c), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationList(reservations, s.svc.Location()))
}

// decideReservation handles POST /api/v1/admin/reservations/:id/decision.
func (s *Server) decideReservation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := s.svc.Decide(c.Request().Context(), principalFrom(c), id, req.Outcome, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResponse(*res, s.svc.Location()))
}

// resolveCancellation handles POST /api/v1/admin/reservations/:id/cancellation.
func (s *Server) resolveCancellation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := s.svc.ResolveCancellation(c.Request().Context(), principalFrom(c), id, req.Outcome, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResponse(*res, s.svc.Location()))
}

// exportReservations handles GET /api/v1/admin/reservations/export and
// streams the full history as an Excel workbook.
func (s *Server) exportReservations(c echo.Context) error {
	ctx := c.Request().Context()
	reservations, err := s.svc.ListAll(ctx, principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}

	w := export.NewExcelizeWriter()
	defer func() { _ = w.Close() }()
	if err := export.WriteReservations(w, reservations, s.svc.Location()); err != nil {
		return writeError(c, err)
	}

	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		return writeError(c, err)
	}

	filename := export.Filename(time.Now(), s.svc.Location())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
