package api

import (
	"time"

	"github.com/getkayan/kayan-notes/identity"
	"github.com/getkayan/kayan-notes/note"
	"github.com/getkayan/kayan-notes/service"
)

const summaryLength = 100

// Request bodies and queries. Validation tags are checked by c.Validate.

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type createUserRequest struct {
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=8"`
	Role     identity.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

type changePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// PageQuery is embedded by list queries and must stay exported for binding.
type PageQuery struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type noteSearchQuery struct {
	PageQuery
	Search string      `query:"search"`
	Status note.Status `query:"status" validate:"omitempty,oneof=active disabled"`
}

type recentQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type createNoteRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=10000"`
}

type updateNoteRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string      `json:"description" validate:"omitempty,min=1,max=10000"`
	Status      *note.Status `json:"status" validate:"omitempty,oneof=active disabled"`
}

type shareRequest struct {
	Description string     `json:"description" validate:"max=500"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

type updateLinkRequest struct {
	Description *string    `json:"description" validate:"omitempty,max=500"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

func (q PageQuery) page() (page, limit int) {
	page, limit = q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 10
	}
	return page, limit
}

// Responses.

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        loginSubject `json:"user"`
}

type loginSubject struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Role  identity.Role `json:"role"`
}

type userResponse struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func newUserResponse(u *identity.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type linkSummary struct {
	PublicID       string     `json:"publicId"`
	ViewCount      int        `json:"viewCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

type noteResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Status           note.Status   `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	WordCount        int           `json:"wordCount"`
	CharacterCount   int           `json:"characterCount"`
	Summary          string        `json:"summary"`
	IsPubliclyShared bool          `json:"isPubliclyShared"`
	TotalViews       int           `json:"totalViews"`
	PublicLinks      []linkSummary `json:"publicLinks,omitempty"`
}

func newNoteResponse(n *note.Note) noteResponse {
	resp := noteResponse{
		ID:               n.ID,
		Title:            n.Title,
		Description:      n.Description,
		Status:           n.Status,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
		WordCount:        n.WordCount(),
		CharacterCount:   len([]rune(n.Description)),
		Summary:          n.Summary(summaryLength),
		IsPubliclyShared: n.HasPublicLinks(),
		TotalViews:       n.TotalViews(),
	}
	for _, l := range n.PublicLinks {
		resp.PublicLinks = append(resp.PublicLinks, linkSummary{
			PublicID:       l.PublicID,
			ViewCount:      l.ViewCount,
			CreatedAt:      l.CreatedAt,
			LastAccessedAt: l.LastAccessedAt,
			ExpiresAt:      l.ExpiresAt,
		})
	}
	return resp
}

func newNoteResponses(notes []note.Note) []noteResponse {
	out := make([]noteResponse, len(notes))
	for i := range notes {
		out[i] = newNoteResponse(&notes[i])
	}
	return out
}

// publicNoteResponse is what anonymous readers of a shared note get.
type publicNoteResponse struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         note.Status `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	WordCount      int         `json:"wordCount"`
	CharacterCount int         `json:"characterCount"`
	Summary        string      `json:"summary"`
}

func newPublicNoteResponse(n *note.Note) publicNoteResponse {
	return publicNoteResponse{
		ID:             n.ID,
		Title:          n.Title,
		Description:    n.Description,
		Status:         n.Status,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
		WordCount:      n.WordCount(),
		CharacterCount: len([]rune(n.Description)),
		Summary:        n.Summary(summaryLength),
	}
}

type linkNote struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Status note.Status `json:"status"`
}

type linkResponse struct {
	ID             string     `json:"id"`
	PublicID       string     `json:"publicId"`
	Description    string     `json:"description,omitempty"`
	ViewCount      int        `json:"viewCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Note           *linkNote  `json:"note,omitempty"`
	IsExpired      bool       `json:"isExpired"`
	IsActive       bool       `json:"isActive"`
	PublicURL      string     `json:"publicUrl"`
}

func (h *Handler) newLinkResponse(l *note.PublicLink, now time.Time) linkResponse {
	resp := linkResponse{
		ID:             l.ID,
		PublicID:       l.PublicID,
		Description:    l.Description,
		ViewCount:      l.ViewCount,
		CreatedAt:      l.CreatedAt,
		LastAccessedAt: l.LastAccessedAt,
		ExpiresAt:      l.ExpiresAt,
		IsExpired:      l.IsExpired(now),
		IsActive:       l.IsActive(now),
		PublicURL:      l.URL(h.publicBaseURL),
	}
	if l.Note != nil {
		resp.Note = &linkNote{ID: l.Note.ID, Title: l.Note.Title, Status: l.Note.Status}
	}
	return resp
}

type paginatedNotes struct {
	Notes      []noteResponse `json:"notes"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

func newPaginatedNotes(p *service.Page[note.Note]) paginatedNotes {
	return paginatedNotes{Notes: newNoteResponses(p.Items), Total: p.Total, Page: p.Page, TotalPages: p.TotalPages}
}

type paginatedLinks struct {
	Links      []linkResponse `json:"links"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

type paginatedUsers struct {
	Users      []userResponse `json:"users"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}
