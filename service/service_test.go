package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/flow"
	"github.com/getkayan/kayan-notes/identity"
	"github.com/getkayan/kayan-notes/note"
	"github.com/getkayan/kayan-notes/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	repo  *persistence.Repository
	users *Users
	notes *Notes
	links *Links
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo, err := persistence.NewStorage("sqlite", filepath.Join(t.TempDir(), "notes.db"), persistence.Options{})
	require.NoError(t, err)

	return &fixture{
		repo:  repo,
		users: NewUsers(repo, flow.NewBcryptHasher(bcrypt.MinCost), nil),
		notes: NewNotes(repo, nil),
		links: NewLinks(repo, repo, nil),
	}
}

func kindOf(t *testing.T, err error) domain.ErrorKind {
	t.Helper()
	require.Error(t, err)
	return domain.KindOf(err)
}

func TestUsersCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.users.Create(ctx, "  Alice@Example.com ", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, identity.RoleUser, u.Role)
	assert.NotEqual(t, "password123", u.Password)

	_, err = f.users.Create(ctx, "alice@example.com", "password123", identity.RoleUser)
	assert.Equal(t, domain.KindConflict, kindOf(t, err))

	_, err = f.users.Create(ctx, "bob@example.com", "password123", identity.Role("root"))
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	page, err := f.users.List(ctx, domain.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestUsersEnsureAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.users.EnsureAdmin(ctx, "admin@example.com", "changeme123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.users.EnsureAdmin(ctx, "other@example.com", "changeme123")
	require.NoError(t, err)
	assert.False(t, created, "an admin already exists")

	admin, err := f.repo.FindUserByRole(ctx, identity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", admin.Email)
}

func TestUsersDeleteCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.users.Create(ctx, "carol@example.com", "password123", "")
	require.NoError(t, err)
	n, err := f.notes.Create(ctx, u.ID, "t", "d")
	require.NoError(t, err)
	l, err := f.links.Create(ctx, n.ID, u.ID, "", nil)
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, u.ID))

	_, err = f.repo.GetNote(ctx, n.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	_, err = f.repo.GetLinkByPublicID(ctx, l.PublicID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	assert.Equal(t, domain.KindNotFound, kindOf(t, f.users.Delete(ctx, u.ID)))
	assert.Equal(t, domain.KindNotFound, kindOf(t, f.users.ChangePassword(ctx, u.ID, "newpassword")))
}

func TestNotesLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.notes.Create(ctx, "u1", "  Groceries ", " milk and eggs ")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "milk and eggs", n.Description)
	assert.Equal(t, note.StatusActive, n.Status)

	_, err = f.notes.Get(ctx, n.ID, "u2")
	assert.ErrorIs(t, err, ErrNoteNotFound, "foreign notes look missing")

	title := "Shopping"
	disabled := note.StatusDisabled
	updated, err := f.notes.Update(ctx, n.ID, "u1", NoteUpdate{Title: &title, Status: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "Shopping", updated.Title)
	assert.Equal(t, "milk and eggs", updated.Description)
	assert.Equal(t, note.StatusDisabled, updated.Status)

	bogus := note.Status("archived")
	_, err = f.notes.Update(ctx, n.ID, "u1", NoteUpdate{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, f.notes.Delete(ctx, n.ID, "u1"))
	assert.ErrorIs(t, f.notes.Delete(ctx, n.ID, "u1"), ErrNoteNotFound)
}

func TestNotesSearchAndStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, title := range []string{"Alpha plan", "beta PLAN", "gamma"} {
		_, err := f.notes.Create(ctx, "u1", title, "body text here")
		require.NoError(t, err)
	}
	_, err := f.notes.Create(ctx, "u2", "plan of u2", "x")
	require.NoError(t, err)
	hidden, err := f.notes.Create(ctx, "u1", "old plan", "x")
	require.NoError(t, err)
	disabled := note.StatusDisabled
	_, err = f.notes.Update(ctx, hidden.ID, "u1", NoteUpdate{Status: &disabled})
	require.NoError(t, err)

	page, err := f.notes.Search(ctx, domain.NoteQuery{OwnerID: "u1", Search: " plan ", Page: domain.Page{Page: 1, Limit: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total, "case-insensitive, active only, owner scoped")
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)

	page, err = f.notes.Search(ctx, domain.NoteQuery{OwnerID: "u1", Status: note.StatusDisabled, Page: domain.Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, hidden.ID, page.Items[0].ID)

	_, err = f.notes.Search(ctx, domain.NoteQuery{OwnerID: "u1", Status: "nope", Page: domain.Page{Page: 1, Limit: 10}})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	first, err := f.notes.Search(ctx, domain.NoteQuery{OwnerID: "u1", Search: "gamma", Page: domain.Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	l, err := f.links.Create(ctx, first.Items[0].ID, "u1", "", nil)
	require.NoError(t, err)
	_, err = f.links.Access(ctx, l.PublicID)
	require.NoError(t, err)

	stats, err := f.notes.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &NoteStats{TotalNotes: 4, ActiveNotes: 3, DisabledNotes: 1, SharedNotes: 1, TotalViews: 1}, stats)

	recent, err := f.notes.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	all, err := f.notes.ListActive(ctx, domain.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)
}

func TestNoteAttributes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.notes.Create(ctx, "u1", "t", "d")
	require.NoError(t, err)

	attrs, found, err := f.notes.Attributes(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "u1", attrs.OwnerID())
	assert.Equal(t, "active", attrs["status"])

	_, found, err = f.notes.Attributes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLinks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now()
	f.links.now = func() time.Time { return now }

	n, err := f.notes.Create(ctx, "u1", "shared", "body")
	require.NoError(t, err)

	_, err = f.links.Create(ctx, n.ID, "u2", "", nil)
	assert.ErrorIs(t, err, ErrShareNotFound)
	_, err = f.links.Create(ctx, "missing", "u1", "", nil)
	assert.ErrorIs(t, err, ErrShareNotFound)
	past := now.Add(-time.Hour)
	_, err = f.links.Create(ctx, n.ID, "u1", "", &past)
	assert.ErrorIs(t, err, ErrExpiryInPast)

	soon := now.Add(time.Hour)
	l, err := f.links.Create(ctx, n.ID, "u1", "  for the team ", &soon)
	require.NoError(t, err)
	assert.NotEmpty(t, l.PublicID)
	assert.Equal(t, "for the team", l.Description)

	got, err := f.links.Access(ctx, l.PublicID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)
	assert.Equal(t, n.ID, got.Note.ID)
	got, err = f.links.Access(ctx, " "+l.PublicID+" ")
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)

	_, err = f.links.Update(ctx, l.PublicID, "u2", LinkUpdate{})
	assert.ErrorIs(t, err, ErrLinkForbidden)
	desc := "renamed"
	updated, err := f.links.Update(ctx, l.PublicID, "u1", LinkUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Description)

	stats, err := f.links.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &LinkStats{TotalLinks: 1, ActiveLinks: 1, TotalViews: 2}, stats)

	// Expiry is checked against the service clock.
	f.links.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = f.links.Access(ctx, l.PublicID)
	assert.ErrorIs(t, err, ErrPublicNoteAbsent)
	stats, err = f.links.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExpiredLinks)

	page, err := f.links.List(ctx, "u1", domain.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	assert.ErrorIs(t, f.links.Delete(ctx, l.PublicID, "u2"), ErrLinkNotFound)
	require.NoError(t, f.links.Delete(ctx, l.PublicID, "u1"))
	_, err = f.links.Access(ctx, l.PublicID)
	assert.True(t, errors.Is(err, ErrPublicNoteAbsent))
}

func TestAccessDisabledNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.notes.Create(ctx, "u1", "t", "d")
	require.NoError(t, err)
	l, err := f.links.Create(ctx, n.ID, "u1", "", nil)
	require.NoError(t, err)

	disabled := note.StatusDisabled
	_, err = f.notes.Update(ctx, n.ID, "u1", NoteUpdate{Status: &disabled})
	require.NoError(t, err)

	_, err = f.links.Access(ctx, l.PublicID)
	assert.ErrorIs(t, err, ErrPublicNoteAbsent)

	_, err = f.links.Create(ctx, n.ID, "u1", "", nil)
	assert.ErrorIs(t, err, ErrShareDisabled)
}
