package flow

import (
	"context"
	"errors"

	"github.com/getkayan/kayan-notes/identity"
)

// ErrInvalidCredentials is returned for unknown identifiers and wrong secrets
// alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginStrategy defines how a user is authenticated for a specific method.
type LoginStrategy interface {
	ID() string
	Authenticate(ctx context.Context, identifier, secret string) (*identity.User, error)
}

// Hook defines a function that runs before or after a flow action.
type Hook func(ctx context.Context, user *identity.User) error
