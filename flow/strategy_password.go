package flow

import (
	"context"
	"errors"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
)

type PasswordStrategy struct {
	users  domain.UserStorage
	hasher domain.Hasher
}

func NewPasswordStrategy(users domain.UserStorage, hasher domain.Hasher) *PasswordStrategy {
	return &PasswordStrategy{users: users, hasher: hasher}
}

func (s *PasswordStrategy) ID() string { return "password" }

// Authenticate looks the user up by normalized email and checks the password.
func (s *PasswordStrategy) Authenticate(ctx context.Context, identifier, secret string) (*identity.User, error) {
	u, err := s.users.GetUserByEmail(ctx, identity.NormalizeEmail(identifier))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Compare(secret, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
