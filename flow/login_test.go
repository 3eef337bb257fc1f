package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
	"golang.org/x/crypto/bcrypt"
)

type mockUsers struct {
	domain.UserStorage
	byEmail map[string]*identity.User
}

func (m *mockUsers) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return u, nil
}

func setupLogin(t *testing.T) (*LoginManager, *mockUsers) {
	t.Helper()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &mockUsers{byEmail: map[string]*identity.User{
		"alice@example.com": {ID: "u1", Email: "alice@example.com", Password: hash, Role: identity.RoleUser},
	}}

	lm := NewLoginManager()
	lm.RegisterStrategy(NewPasswordStrategy(users, hasher))
	return lm, users
}

func TestPasswordLogin(t *testing.T) {
	lm, _ := setupLogin(t)
	ctx := context.Background()

	u, err := lm.Authenticate(ctx, "password", "  Alice@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("expected u1, got %s", u.ID)
	}

	if _, err := lm.Authenticate(ctx, "password", "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := lm.Authenticate(ctx, "password", "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := lm.Authenticate(ctx, "magic", "alice@example.com", ""); err == nil {
		t.Error("unknown method should fail")
	}
}

func TestLoginHooks(t *testing.T) {
	lm, _ := setupLogin(t)
	var seen string
	lm.AddPostHook(func(_ context.Context, u *identity.User) error {
		seen = u.ID
		return nil
	})
	stop := errors.New("maintenance")
	if _, err := lm.Authenticate(context.Background(), "password", "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if seen != "u1" {
		t.Errorf("post hook saw %q", seen)
	}

	lm.AddPreHook(func(context.Context, *identity.User) error { return stop })
	if _, err := lm.Authenticate(context.Background(), "password", "alice@example.com", "correct-horse"); !errors.Is(err, stop) {
		t.Errorf("expected pre hook error, got %v", err)
	}
}

func TestRateLimitedLogin(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, _ := hasher.Hash("pw")
	users := &mockUsers{byEmail: map[string]*identity.User{
		"bob@example.com": {ID: "u2", Email: "bob@example.com", Password: hash},
	}}
	strategy := NewRateLimitStrategy(NewPasswordStrategy(users, hasher), NewSlidingWindowLimiter(), RateLimitConfig{
		Limit:  2,
		Window: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := strategy.Authenticate(ctx, "bob@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, err := strategy.Authenticate(ctx, "BOB@example.com", "pw"); !IsRateLimitError(err) {
		t.Errorf("expected rate limit error, got %v", err)
	}
	if strategy.ID() != "password" {
		t.Errorf("decorator should keep the strategy id, got %q", strategy.ID())
	}
}
