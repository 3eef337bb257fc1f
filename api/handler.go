// Package api exposes the notes service over HTTP.
package api

import (
	"context"
	"time"

	"github.com/getkayan/kayan-notes/flow"
	"github.com/getkayan/kayan-notes/guard"
	"github.com/getkayan/kayan-notes/service"
	"github.com/getkayan/kayan-notes/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Deps wires the handler to the rest of the service.
type Deps struct {
	Users    *service.Users
	Notes    *service.Notes
	Links    *service.Links
	Login    *flow.LoginManager
	Sessions *session.Manager
	Guard    *guard.Guard
	Log      *zap.Logger
	Metrics  Metrics

	// PublicBaseURL prefixes public link URLs, e.g. "http://localhost:3000/api".
	PublicBaseURL string
}

// Metrics receives request level counters. *telemetry.Provider implements it.
type Metrics interface {
	RecordLogin(ctx context.Context, success bool)
	RecordRateLimit(ctx context.Context, scope string)
	RecordLinkView(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) RecordLogin(context.Context, bool)       {}
func (noopMetrics) RecordRateLimit(context.Context, string) {}
func (noopMetrics) RecordLinkView(context.Context)          {}

type Handler struct {
	users         *service.Users
	notes         *service.Notes
	links         *service.Links
	login         *flow.LoginManager
	sessions      *session.Manager
	guard         *guard.Guard
	log           *zap.Logger
	metrics       Metrics
	publicBaseURL string
	now           func() time.Time
}

func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Handler{
		users:         d.Users,
		notes:         d.Notes,
		links:         d.Links,
		login:         d.Login,
		sessions:      d.Sessions,
		guard:         d.Guard,
		log:           log,
		metrics:       metrics,
		publicBaseURL: d.PublicBaseURL,
		now:           time.Now,
	}
}

// Install sets the request validator and error handler of e.
func Install(e *echo.Echo, log *zap.Logger) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log)
}

// RegisterRoutes mounts every API route below g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	gd := h.guard

	g.POST("/auth/login", h.HandleLogin)

	public := g.Group("/public")
	public.GET("/health", h.HandlePublicHealth)
	public.GET("/notes/:publicId", h.HandlePublicNote)

	// Protected routes
	protected := g.Group("")
	protected.Use(h.AuthMiddleware)

	users := protected.Group("/users")
	users.POST("", h.HandleCreateUser, gd.Require(guard.AdminRole()))
	users.GET("", h.HandleListUsers, gd.Require(guard.AdminRole()))
	users.GET("/:id", h.HandleGetUser, gd.Require(guard.AdminRole()))
	users.DELETE("/:id", h.HandleDeleteUser, gd.Require(guard.AdminRole()))
	users.PATCH("/:id/password", h.HandleChangePassword)

	notes := protected.Group("/notes")
	notes.POST("", h.HandleCreateNote, gd.Require(guard.NoteCreate()))
	notes.GET("", h.HandleSearchNotes)
	notes.GET("/stats", h.HandleNoteStats)
	notes.GET("/recent", h.HandleRecentNotes)
	notes.GET("/shared", h.HandleListLinks, gd.Require(guard.PublicLinkList()))
	notes.GET("/shared/stats", h.HandleLinkStats, gd.Require(guard.PublicLinkList()))
	notes.PATCH("/shared/:publicId", h.HandleUpdateLink, gd.Require(guard.PublicLinkDelete()))
	notes.DELETE("/shared/:publicId", h.HandleDeleteLink, gd.Require(guard.PublicLinkDelete()))
	notes.GET("/:id", h.HandleGetNote, gd.Require(guard.NoteRead("id")))
	notes.PATCH("/:id", h.HandleUpdateNote, gd.Require(guard.NoteUpdate("id")))
	notes.DELETE("/:id", h.HandleDeleteNote, gd.Require(guard.NoteDelete("id")))
	notes.POST("/:id/share", h.HandleShareNote, gd.Require(guard.NoteShare("id"), guard.PublicLinkCreate()))

	admin := protected.Group("/admin")
	admin.GET("/notes", h.HandleAdminNotes, gd.Require(guard.AdminNotesList()))
}

// bind decodes the request into v and validates it.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return err
	}
	return c.Validate(v)
}

func (h *Handler) principal(c echo.Context) (string, error) {
	p, ok := guard.PrincipalFrom(c)
	if !ok {
		return "", guard.ErrAuthenticationRequired
	}
	return p.ID, nil
}
