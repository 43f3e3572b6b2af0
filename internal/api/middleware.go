package api

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"aulabook/internal/auth"
	"aulabook/internal/metrics"
)

const principalKey = "principal"

// requestID tags every request with an ID for log correlation. An incoming
// X-Request-ID is kept, otherwise a fresh UUID is generated.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set("request_id", id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// countRequests records a per-endpoint hit counter using the route pattern,
// not the raw path, so IDs do not explode the label space.
func countRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			metrics.IncHTTP(c.Path())
			return next(c)
		}
	}
}

// jwtAuth validates a Bearer token and stores the resulting principal in the
// request context.
func jwtAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			p, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// requireAdmin rejects non-admin principals before the handler runs.
func requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !principalFrom(c).IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}
			return next(c)
		}
	}
}

func principalFrom(c echo.Context) auth.Principal {
	p, _ := c.Get(principalKey).(auth.Principal)
	return p
}

// submitLimiter rate-limits reservation submissions per principal.
type submitLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

// newSubmitLimiter allows perMinute submissions per principal with the given
// burst. perMinute <= 0 disables limiting.
func newSubmitLimiter(perMinute, burst int) *submitLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &submitLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (l *submitLimiter) allow(principalID int64) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.limiters[principalID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[principalID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// middleware turns the limiter into an echo middleware for the submit route.
func (l *submitLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.allow(principalFrom(c).ID) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many submissions"})
			}
			return next(c)
		}
	}
}
