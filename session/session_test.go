package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
	"github.com/golang-jwt/jwt/v5"
)

type mockUsers struct {
	domain.UserStorage
	users map[string]*identity.User
}

func (m *mockUsers) GetUser(_ context.Context, id string) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return u, nil
}

func TestJWTIssueAndValidate(t *testing.T) {
	s := NewHS256Strategy("secret", time.Hour, "notes-backend", "notes-app")

	tok, err := s.Issue(&identity.Principal{ID: "u1", Email: "a@example.com", Role: identity.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.ExpiresIn != 3600 {
		t.Errorf("expected expiresIn 3600, got %d", tok.ExpiresIn)
	}

	claims, err := s.Validate(tok.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "a@example.com" || claims.Role != identity.RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejects(t *testing.T) {
	s := NewHS256Strategy("secret", time.Hour, "notes-backend", "notes-app")
	p := &identity.Principal{ID: "u1", Role: identity.RoleUser}

	otherKey := NewHS256Strategy("other", time.Hour, "notes-backend", "notes-app")
	tok, _ := otherKey.Issue(p)
	if _, err := s.Validate(tok.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong key: expected ErrInvalidToken, got %v", err)
	}

	otherAud := NewHS256Strategy("secret", time.Hour, "notes-backend", "someone-else")
	tok, _ = otherAud.Issue(p)
	if _, err := s.Validate(tok.AccessToken); err == nil {
		t.Error("wrong audience should be rejected")
	}

	otherIss := NewHS256Strategy("secret", time.Hour, "evil", "notes-app")
	tok, _ = otherIss.Issue(p)
	if _, err := s.Validate(tok.AccessToken); err == nil {
		t.Error("wrong issuer should be rejected")
	}

	expired := NewHS256Strategy("secret", time.Hour, "notes-backend", "notes-app")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _ = expired.Issue(p)
	if _, err := s.Validate(tok.AccessToken); err == nil {
		t.Error("expired token should be rejected")
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := s.Validate(none); err == nil {
		t.Error("unsigned token should be rejected")
	}

	if _, err := s.Validate("garbage"); err == nil {
		t.Error("garbage should be rejected")
	}
}

func TestManagerResolve(t *testing.T) {
	s := NewHS256Strategy("secret", time.Hour, "notes-backend", "notes-app")
	users := &mockUsers{users: map[string]*identity.User{
		"u1": {ID: "u1", Email: "a@example.com", Role: identity.RoleUser},
	}}
	m := NewManager(s, users)

	tok, err := m.Issue(users.users["u1"])
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := m.Resolve(context.Background(), tok.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != "u1" || p.Role != identity.RoleUser {
		t.Errorf("unexpected principal: %+v", p)
	}

	// Role changes are picked up from storage.
	users.users["u1"].Role = identity.RoleAdmin
	p, _ = m.Resolve(context.Background(), tok.AccessToken)
	if p.Role != identity.RoleAdmin {
		t.Errorf("expected stored role admin, got %s", p.Role)
	}

	delete(users.users, "u1")
	if _, err := m.Resolve(context.Background(), tok.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("deleted user: expected ErrInvalidToken, got %v", err)
	}
}
