package session

import (
	"context"
	"errors"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
)

// Manager resolves bearer tokens into principals backed by stored users.
type Manager struct {
	strategy *JWTStrategy
	users    domain.UserStorage
}

func NewManager(strategy *JWTStrategy, users domain.UserStorage) *Manager {
	return &Manager{strategy: strategy, users: users}
}

// Issue creates an access token for u.
func (m *Manager) Issue(u *identity.User) (*Token, error) {
	return m.strategy.Issue(u.Principal())
}

// Resolve validates token and reloads its user, so deleted users and changed
// roles take effect before the token expires.
func (m *Manager) Resolve(ctx context.Context, token string) (*identity.Principal, error) {
	claims, err := m.strategy.Validate(token)
	if err != nil {
		return nil, err
	}

	u, err := m.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u.Principal(), nil
}
