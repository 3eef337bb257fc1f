package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/note"
	"github.com/getkayan/kayan-notes/policy"
	"go.uber.org/zap"
)

// Errors returned by Notes.
var (
	ErrNoteNotFound  = domain.NewError(domain.KindNotFound, "Note not found")
	ErrInvalidStatus = domain.NewError(domain.KindValidation, "status must be one of: active, disabled")
)

// NoteStats summarizes the notes of one owner.
type NoteStats struct {
	TotalNotes    int64 `json:"totalNotes"`
	ActiveNotes   int64 `json:"activeNotes"`
	DisabledNotes int64 `json:"disabledNotes"`
	SharedNotes   int   `json:"sharedNotes"`
	TotalViews    int   `json:"totalViews"`
}

// NoteUpdate carries the fields of a partial update; nil means unchanged.
type NoteUpdate struct {
	Title       *string
	Description *string
	Status      *note.Status
}

// Notes manages notes on behalf of their owners.
type Notes struct {
	store domain.NoteStorage
	log   *zap.Logger
}

// NewNotes returns a Notes service. A nil log discards output.
func NewNotes(store domain.NoteStorage, log *zap.Logger) *Notes {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notes{store: store, log: log}
}

// Create stores a new active note owned by ownerID.
func (s *Notes) Create(ctx context.Context, ownerID, title, description string) (*note.Note, error) {
	if ownerID == "" {
		return nil, domain.NewError(domain.KindValidation, "Owner ID is required")
	}
	n := &note.Note{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		Status:      note.StatusActive,
	}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.log.Debug("note created", zap.String("note_id", n.ID), zap.String("owner_id", ownerID))
	return n, nil
}

// Search lists the owner's notes. An empty status means active.
func (s *Notes) Search(ctx context.Context, q domain.NoteQuery) (*Page[note.Note], error) {
	if q.Status == "" {
		q.Status = note.StatusActive
	}
	if !q.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	q.Search = strings.TrimSpace(q.Search)

	notes, total, err := s.store.SearchNotes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return newPage(notes, total, q.Page), nil
}

// Stats counts the notes of ownerID by status, with share and view totals.
func (s *Notes) Stats(ctx context.Context, ownerID string) (*NoteStats, error) {
	counts, err := s.store.CountNotes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}
	withLinks, err := s.store.NotesWithLinks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}

	stats := &NoteStats{
		TotalNotes:    counts.Total,
		ActiveNotes:   counts.Active,
		DisabledNotes: counts.Disabled,
	}
	for i := range withLinks {
		if withLinks[i].HasPublicLinks() {
			stats.SharedNotes++
		}
		stats.TotalViews += withLinks[i].TotalViews()
	}
	return stats, nil
}

// Recent returns up to limit active notes of ownerID, most recently updated first.
func (s *Notes) Recent(ctx context.Context, ownerID string, limit int) ([]note.Note, error) {
	if limit <= 0 {
		limit = 5
	}
	notes, err := s.store.RecentNotes(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent notes: %w", err)
	}
	return notes, nil
}

// Get returns the note only when ownerID owns it.
func (s *Notes) Get(ctx context.Context, id, ownerID string) (*note.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if !n.IsOwnedBy(ownerID) {
		return nil, ErrNoteNotFound
	}
	return n, nil
}

// Update applies upd to a note owned by ownerID.
func (s *Notes) Update(ctx context.Context, id, ownerID string, upd NoteUpdate) (*note.Note, error) {
	n, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		n.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		n.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		n.Status = *upd.Status
	}

	if err := s.store.SaveNote(ctx, n); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	return n, nil
}

// Delete removes a note owned by ownerID together with its share links.
func (s *Notes) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.log.Debug("note deleted", zap.String("note_id", id))
	return nil
}

// ListActive lists active notes of every owner.
func (s *Notes) ListActive(ctx context.Context, p domain.Page) (*Page[note.Note], error) {
	notes, total, err := s.store.ListActiveNotes(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return newPage(notes, total, p), nil
}

// Attributes returns the policy attributes of a stored note.
func (s *Notes) Attributes(ctx context.Context, id string) (policy.Attributes, bool, error) {
	n, err := s.store.GetNote(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return policy.Attributes{
		policy.AttrOwnerID: n.OwnerID,
		policy.AttrStatus:  string(n.Status),
	}, true, nil
}
