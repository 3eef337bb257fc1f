package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
	"go.uber.org/zap"
)

var (
	ErrUserExists   = domain.NewError(domain.KindConflict, "User with this email already exists")
	ErrUserNotFound = domain.NewError(domain.KindNotFound, "User not found")
	ErrInvalidRole  = domain.NewError(domain.KindValidation, "role must be one of: admin, user")
)

type Users struct {
	store  domain.UserStorage
	hasher domain.Hasher
	log    *zap.Logger
}

func NewUsers(store domain.UserStorage, hasher domain.Hasher, log *zap.Logger) *Users {
	if log == nil {
		log = zap.NewNop()
	}
	return &Users{store: store, hasher: hasher, log: log}
}

// Create registers a user. An empty role means RoleUser.
func (s *Users) Create(ctx context.Context, email, password string, role identity.Role) (*identity.User, error) {
	if role == "" {
		role = identity.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	email = identity.NormalizeEmail(email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &identity.User{Email: email, Password: hash, Role: role}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *Users) List(ctx context.Context, p domain.Page) (*Page[identity.User], error) {
	users, total, err := s.store.ListUsers(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return newPage(users, total, p), nil
}

func (s *Users) Get(ctx context.Context, id string) (*identity.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Delete removes the user with all of their notes and links.
func (s *Users) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *Users) ChangePassword(ctx context.Context, id, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, id, hash); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// EnsureAdmin creates an administrator from email and password unless one
// already exists. It reports whether a user was created.
func (s *Users) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.store.FindUserByRole(ctx, identity.RoleAdmin)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return false, fmt.Errorf("find admin: %w", err)
	}
	if email == "" || password == "" {
		s.log.Warn("no admin user exists and SA_USER/SA_PASSWORD are not set")
		return false, nil
	}

	if _, err := s.Create(ctx, email, password, identity.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}
