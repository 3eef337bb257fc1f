package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/note"
	"go.uber.org/zap"
)

var (
	ErrShareNotFound    = domain.NewError(domain.KindNotFound, "Note not found or you do not have permission to share it")
	ErrShareDisabled    = domain.NewError(domain.KindValidation, "Cannot share a disabled note")
	ErrExpiryInPast     = domain.NewError(domain.KindValidation, "expiresAt must be in the future")
	ErrLinkForbidden    = domain.NewError(domain.KindForbidden, "Public link not found or you do not have permission to update it")
	ErrLinkNotFound     = domain.NewError(domain.KindNotFound, "Public link not found")
	ErrPublicNoteAbsent = domain.NewError(domain.KindNotFound, "Note not found or no longer available")
)

// LinkStats summarizes the public links of one user.
type LinkStats struct {
	TotalLinks   int `json:"totalLinks"`
	ActiveLinks  int `json:"activeLinks"`
	ExpiredLinks int `json:"expiredLinks"`
	TotalViews   int `json:"totalViews"`
}

// LinkUpdate carries the fields of a partial link update.
type LinkUpdate struct {
	Description *string
	ExpiresAt   *time.Time
}

type Links struct {
	notes domain.NoteStorage
	links domain.LinkStorage
	log   *zap.Logger
	now   func() time.Time
}

func NewLinks(notes domain.NoteStorage, links domain.LinkStorage, log *zap.Logger) *Links {
	if log == nil {
		log = zap.NewNop()
	}
	return &Links{notes: notes, links: links, log: log, now: time.Now}
}

// Create shares the note noteID owned by userID.
func (s *Links) Create(ctx context.Context, noteID, userID, description string, expiresAt *time.Time) (*note.PublicLink, error) {
	n, err := s.notes.GetNote(ctx, noteID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if !n.IsOwnedBy(userID) {
		return nil, ErrShareNotFound
	}
	if !n.IsActive() {
		return nil, ErrShareDisabled
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, ErrExpiryInPast
	}

	l := &note.PublicLink{
		NoteID:      n.ID,
		CreatedByID: userID,
		Description: strings.TrimSpace(description),
		ExpiresAt:   expiresAt,
	}
	if err := s.links.CreateLink(ctx, l); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	l.Note = n
	s.log.Info("public link created",
		zap.String("note_id", n.ID),
		zap.String("public_id", l.PublicID),
		zap.String("user_id", userID),
	)
	return l, nil
}

func (s *Links) List(ctx context.Context, userID string, p domain.Page) (*Page[note.PublicLink], error) {
	links, total, err := s.links.ListLinksByCreator(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return newPage(links, total, p), nil
}

func (s *Links) Stats(ctx context.Context, userID string) (*LinkStats, error) {
	links, err := s.links.AllLinksByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}

	now := s.now()
	stats := &LinkStats{TotalLinks: len(links)}
	for i := range links {
		if links[i].IsActive(now) {
			stats.ActiveLinks++
		}
		if links[i].IsExpired(now) {
			stats.ExpiredLinks++
		}
		stats.TotalViews += links[i].ViewCount
	}
	return stats, nil
}

func (s *Links) owned(ctx context.Context, publicID, userID string) (*note.PublicLink, error) {
	l, err := s.links.GetLinkByPublicID(ctx, publicID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if l.CreatedByID != userID {
		return nil, nil
	}
	return l, nil
}

func (s *Links) Update(ctx context.Context, publicID, userID string, upd LinkUpdate) (*note.PublicLink, error) {
	l, err := s.owned(ctx, publicID, userID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLinkForbidden
	}

	if upd.Description != nil {
		l.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.ExpiresAt != nil {
		if !upd.ExpiresAt.After(s.now()) {
			return nil, ErrExpiryInPast
		}
		l.ExpiresAt = upd.ExpiresAt
	}

	if err := s.links.SaveLink(ctx, l); err != nil {
		return nil, fmt.Errorf("save link: %w", err)
	}
	return l, nil
}

func (s *Links) Delete(ctx context.Context, publicID, userID string) error {
	l, err := s.owned(ctx, publicID, userID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLinkNotFound
	}
	if err := s.links.DeleteLink(ctx, l.ID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// Access resolves a public link for an anonymous reader and records the view.
func (s *Links) Access(ctx context.Context, publicID string) (*note.PublicLink, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, ErrPublicNoteAbsent
	}

	l, err := s.links.GetLinkByPublicID(ctx, publicID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, ErrPublicNoteAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}

	now := s.now()
	if !l.IsActive(now) {
		return nil, ErrPublicNoteAbsent
	}

	if err := s.links.IncrementLinkViews(ctx, l.ID); err != nil {
		return nil, fmt.Errorf("record access: %w", err)
	}
	l.RecordAccess(now)
	return l, nil
}
