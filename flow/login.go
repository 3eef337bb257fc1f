package flow

import (
	"context"
	"fmt"

	"github.com/getkayan/kayan-notes/identity"
)

type LoginManager struct {
	strategies map[string]LoginStrategy
	preHooks   []Hook
	postHooks  []Hook
}

func NewLoginManager() *LoginManager {
	return &LoginManager{
		strategies: make(map[string]LoginStrategy),
	}
}

func (m *LoginManager) RegisterStrategy(s LoginStrategy) {
	m.strategies[s.ID()] = s
}

func (m *LoginManager) AddPreHook(h Hook)  { m.preHooks = append(m.preHooks, h) }
func (m *LoginManager) AddPostHook(h Hook) { m.postHooks = append(m.postHooks, h) }

func (m *LoginManager) Authenticate(ctx context.Context, method, identifier, secret string) (*identity.User, error) {
	strategy, ok := m.strategies[method]
	if !ok {
		return nil, fmt.Errorf("login: unknown method %q", method)
	}

	for _, h := range m.preHooks {
		if err := h(ctx, nil); err != nil {
			return nil, err
		}
	}

	user, err := strategy.Authenticate(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}

	for _, h := range m.postHooks {
		if err := h(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}
