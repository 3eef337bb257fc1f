package domain

import (
	"context"

	"github.com/getkayan/kayan-notes/identity"
	"github.com/getkayan/kayan-notes/note"
)

// Storage aggregates every persistence operation of the service.
type Storage interface {
	UserStorage
	NoteStorage
	LinkStorage
	Ping(ctx context.Context) error
}

// Page selects a 1-based page of results.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type UserStorage interface {
	CreateUser(ctx context.Context, u *identity.User) error
	GetUser(ctx context.Context, id string) (*identity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.User, error)
	FindUserByRole(ctx context.Context, role identity.Role) (*identity.User, error)
	ListUsers(ctx context.Context, page Page) ([]identity.User, int64, error)
	UpdateUserPassword(ctx context.Context, id, hash string) error
	// DeleteUser removes the user together with their notes and links.
	DeleteUser(ctx context.Context, id string) error
}

// NoteQuery filters an owner's notes.
type NoteQuery struct {
	OwnerID string
	Status  note.Status
	Search  string
	Page
}

// NoteCounts summarizes an owner's notes.
type NoteCounts struct {
	Total    int64
	Active   int64
	Disabled int64
}

type NoteStorage interface {
	CreateNote(ctx context.Context, n *note.Note) error
	GetNote(ctx context.Context, id string) (*note.Note, error)
	SaveNote(ctx context.Context, n *note.Note) error
	// DeleteNote removes the note together with its public links.
	DeleteNote(ctx context.Context, id string) error
	SearchNotes(ctx context.Context, q NoteQuery) ([]note.Note, int64, error)
	// RecentNotes returns the most recently updated active notes.
	RecentNotes(ctx context.Context, ownerID string, limit int) ([]note.Note, error)
	CountNotes(ctx context.Context, ownerID string) (NoteCounts, error)
	// NotesWithLinks returns every note of ownerID with public links preloaded.
	NotesWithLinks(ctx context.Context, ownerID string) ([]note.Note, error)
	ListActiveNotes(ctx context.Context, page Page) ([]note.Note, int64, error)
}

type LinkStorage interface {
	CreateLink(ctx context.Context, l *note.PublicLink) error
	// GetLinkByPublicID preloads the linked note.
	GetLinkByPublicID(ctx context.Context, publicID string) (*note.PublicLink, error)
	SaveLink(ctx context.Context, l *note.PublicLink) error
	DeleteLink(ctx context.Context, id string) error
	// ListLinksByCreator preloads the linked notes.
	ListLinksByCreator(ctx context.Context, userID string, page Page) ([]note.PublicLink, int64, error)
	AllLinksByCreator(ctx context.Context, userID string) ([]note.PublicLink, error)
	// IncrementLinkViews atomically records one access.
	IncrementLinkViews(ctx context.Context, id string) error
}

// IDGenerator produces new identifiers.
type IDGenerator func() string

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}
