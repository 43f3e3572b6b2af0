// Package api exposes the reservation engine over HTTP using echo. Routes
// come in three tiers: public (rooms, upcoming schedule), authenticated
// (own reservations) and admin (decisions, cancellations, export).
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"aulabook/internal/cache"
	"aulabook/internal/service"
)

// Options configures the HTTP server.
type Options struct {
	// JWTSecret verifies bearer tokens on authenticated routes.
	JWTSecret string

	// SubmitPerMinute and SubmitBurst rate-limit reservation submissions
	// per principal. Zero disables limiting.
	SubmitPerMinute int
	SubmitBurst     int

	// Ready reports backend readiness for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server wires the engine and cache into an echo application.
type Server struct {
	echo   *echo.Echo
	svc    *service.ReservationService
	cache  *cache.ScheduleCache
	ready  func(ctx context.Context) error
	logger zerolog.Logger
}

// NewServer builds the router. cache may be nil to disable response caching.
func NewServer(svc *service.ReservationService, scheduleCache *cache.ScheduleCache, logger zerolog.Logger, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		svc:    svc,
		cache:  scheduleCache,
		ready:  opts.Ready,
		logger: logger.With().Str("component", "api").Logger(),
	}

	e.Use(echomw.Recover())
	e.Use(requestID())
	e.Use(countRequests())

	e.GET("/healthz", s.healthz)
	e.GET("/readyz", s.readyz)

	v1 := e.Group("/api/v1")
	v1.GET("/rooms", s.listRooms)
	v1.GET("/rooms/:id", s.getRoom)
	v1.GET("/schedule/upcoming", s.upcomingSchedule)

	authed := v1.Group("/reservations", jwtAuth(opts.JWTSecret))
	limiter := newSubmitLimiter(opts.SubmitPerMinute, opts.SubmitBurst)
	authed.POST("", s.submitReservation, limiter.middleware())
	authed.GET("", s.listReservations)
	authed.DELETE("/:id", s.deleteReservation)
	authed.POST("/:id/cancellation", s.requestCancellation)

	admin := v1.Group("/admin", jwtAuth(opts.JWTSecret), requireAdmin())
	admin.GET("/reservations", s.adminListReservations)
	admin.GET("/reservations/export", s.exportReservations)
	admin.POST("/reservations/:id/decision", s.decideReservation)
	admin.POST("/reservations/:id/cancellation", s.resolveCancellation)
	admin.POST("/rooms", s.createRoom)

	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the given port and blocks until Shutdown.
func (s *Server) Start(port int) error {
	s.logger.Info().Int("port", port).Msg("api server listening")
	err := s.echo.Start(fmt.Sprintf(":%d", port))
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) readyz(c echo.Context) error {
	if s.ready != nil {
		if err := s.ready(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
