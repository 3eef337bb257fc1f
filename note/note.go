// Package note holds the note and public link models.
package note

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a note.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDisabled
}

// Note is a private note owned by a single user.
type Note struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      Status    `gorm:"size:16;not null;default:active;index;index:idx_notes_owner_status,priority:2" json:"status"`
	OwnerID     string    `gorm:"size:36;not null;index:idx_notes_owner_status,priority:1" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	PublicLinks []PublicLink `gorm:"foreignKey:NoteID" json:"-"`
}

func (Note) TableName() string { return "notes" }

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (n *Note) IsActive() bool { return n.Status == StatusActive }

func (n *Note) IsOwnedBy(userID string) bool { return n.OwnerID == userID }

// Summary returns the description cut to maxLength characters.
func (n *Note) Summary(maxLength int) string {
	r := []rune(n.Description)
	if len(r) <= maxLength {
		return n.Description
	}
	return string(r[:maxLength]) + "..."
}

// WordCount counts whitespace separated words of the description.
func (n *Note) WordCount() int {
	return len(strings.Fields(n.Description))
}

// HasPublicLinks requires PublicLinks to be preloaded.
func (n *Note) HasPublicLinks() bool { return len(n.PublicLinks) > 0 }

// TotalViews sums the view counts of the preloaded public links.
func (n *Note) TotalViews() int {
	total := 0
	for _, l := range n.PublicLinks {
		total += l.ViewCount
	}
	return total
}

// PublicLink exposes a note through an unauthenticated URL.
type PublicLink struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	PublicID       string     `gorm:"uniqueIndex;size:36;not null" json:"publicId"`
	NoteID         string     `gorm:"size:36;not null;index" json:"noteId"`
	CreatedByID    string     `gorm:"size:36;not null;index" json:"createdById"`
	Description    string     `json:"description,omitempty"`
	ViewCount      int        `gorm:"not null;default:0" json:"viewCount"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	Note *Note `gorm:"foreignKey:NoteID" json:"note,omitempty"`
}

func (PublicLink) TableName() string { return "public_links" }

func (l *PublicLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.PublicID == "" {
		l.PublicID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether the link has an expiry in the past.
func (l *PublicLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// IsActive requires Note to be preloaded.
func (l *PublicLink) IsActive(now time.Time) bool {
	return !l.IsExpired(now) && l.Note != nil && l.Note.IsActive()
}

// RecordAccess bumps the view counter.
func (l *PublicLink) RecordAccess(now time.Time) {
	l.ViewCount++
	l.LastAccessedAt = &now
}

// URL returns the public path of the link below baseURL.
func (l *PublicLink) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/public/notes/" + l.PublicID
}
