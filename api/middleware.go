package api

import (
	"strings"
	"time"

	"github.com/getkayan/kayan-notes/flow"
	"github.com/getkayan/kayan-notes/guard"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware resolves the bearer token into the request principal.
func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return guard.ErrAuthenticationRequired
		}

		principal, err := h.sessions.Resolve(c.Request().Context(), strings.TrimSpace(token))
		if err != nil {
			h.log.Debug("rejected bearer token", zap.Error(err))
			return guard.ErrAuthenticationRequired
		}

		guard.SetPrincipal(c, principal)
		return next(c)
	}
}

// RateLimitConfig configures the per client IP request limit.
type RateLimitConfig struct {
	Limiter flow.RateLimiter
	Limit   int
	Window  time.Duration
	Log     *zap.Logger
	Metrics Metrics
}

// RateLimit applies a per client IP request limit.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			q, err := cfg.Limiter.Take(ctx, "ip:"+c.RealIP(), cfg.Limit, cfg.Window)
			if err != nil {
				// Fail open when the limiter itself errors.
				log.Warn("rate limiter unavailable", zap.Error(err))
				return next(c)
			}
			if !q.Allowed {
				metrics.RecordRateLimit(ctx, "ip")
				return q.Err()
			}
			return next(c)
		}
	}
}
