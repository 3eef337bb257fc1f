package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getkayan/kayan-notes/identity"
)

// Quota is the outcome of one rate limited attempt.
type Quota struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the next attempt may succeed. Zero when
	// Allowed.
	RetryAfter time.Duration
}

// Err returns a *RateLimitError for a rejected quota and nil otherwise.
func (q Quota) Err() error {
	if q.Allowed {
		return nil
	}
	return &RateLimitError{RetryAfter: q.RetryAfter, Remaining: q.Remaining}
}

// RateLimiter counts attempts per key within a window.
type RateLimiter interface {
	// Take records an attempt for key unless limit attempts already happened
	// within window.
	Take(ctx context.Context, key string, limit int, window time.Duration) (Quota, error)

	// Reset forgets every attempt recorded for key.
	Reset(ctx context.Context, key string) error
}

// RateLimitConfig holds configuration for the login rate limit decorator.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration

	// KeyFunc extracts the rate limit key from the identifier.
	// If nil, "login:" + the normalized email is used.
	KeyFunc func(ctx context.Context, identifier string) string

	// FailOpen allows attempts when the limiter itself fails.
	FailOpen bool
}

// RateLimitStrategy throttles attempts of the wrapped strategy per
// identifier. A successful login clears the counter, so only failures
// accumulate.
type RateLimitStrategy struct {
	next    LoginStrategy
	limiter RateLimiter
	config  RateLimitConfig
}

func NewRateLimitStrategy(next LoginStrategy, limiter RateLimiter, config RateLimitConfig) *RateLimitStrategy {
	return &RateLimitStrategy{next: next, limiter: limiter, config: config}
}

func (s *RateLimitStrategy) ID() string { return s.next.ID() }

func (s *RateLimitStrategy) key(ctx context.Context, identifier string) string {
	if s.config.KeyFunc != nil {
		return s.config.KeyFunc(ctx, identifier)
	}
	return "login:" + identity.NormalizeEmail(identifier)
}

func (s *RateLimitStrategy) Authenticate(ctx context.Context, identifier, secret string) (*identity.User, error) {
	key := s.key(ctx, identifier)

	q, err := s.limiter.Take(ctx, key, s.config.Limit, s.config.Window)
	switch {
	case err != nil && !s.config.FailOpen:
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	case err == nil && !q.Allowed:
		return nil, q.Err()
	}

	user, err := s.next.Authenticate(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	_ = s.limiter.Reset(ctx, key)
	return user, nil
}

// RateLimitError is returned when an attempt is rate limited.
type RateLimitError struct {
	RetryAfter time.Duration
	Remaining  int
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rate limit exceeded, retry after %v", e.RetryAfter)
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
