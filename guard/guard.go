// Package guard enforces policy decisions on echo routes.
//
// A route opts in by adding Require with one or more Requirements. Routes
// without a requirement are not checked at all.
//
//	g.GET("/:id", h.GetNote, gd.Require(guard.NoteRead("id")))
package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/getkayan/kayan-notes/policy"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Errors returned by the guard. The API error handler renders them as 401
// and 403.
var (
	ErrAuthenticationRequired = echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	ErrAuthorizationDenied    = echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action")
)

// OwnerLookup loads the stored attributes (at least ownerId) of the resource
// with the given id. found is false when no such resource exists.
type OwnerLookup func(ctx context.Context, id string) (attrs policy.Attributes, found bool, err error)

// DecisionRecorder observes every decision the guard enforces.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, resourceType, action string, allowed bool)
}

// MaxBodyPeek is the largest JSON body the guard reads for "ownerId".
const MaxBodyPeek = 1 << 20

// Guard turns Requirements into echo middleware backed by a policy.Decider.
type Guard struct {
	engine   policy.Decider
	log      *zap.Logger
	lookups  map[policy.ResourceType]OwnerLookup
	recorder DecisionRecorder
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger for decisions and lookup failures.
func WithLogger(log *zap.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

// WithOwnerLookup registers a lookup used for requirements that carry both a
// ResourceIDParam and OwnershipCheck on resource type rt.
func WithOwnerLookup(rt policy.ResourceType, lookup OwnerLookup) Option {
	return func(g *Guard) { g.lookups[rt] = lookup }
}

// WithRecorder reports decisions to r, typically a telemetry provider.
func WithRecorder(r DecisionRecorder) Option {
	return func(g *Guard) { g.recorder = r }
}

// New returns a Guard deciding with engine.
func New(engine policy.Decider, opts ...Option) *Guard {
	g := &Guard{
		engine:  engine,
		log:     zap.NewNop(),
		lookups: make(map[policy.ResourceType]OwnerLookup),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Require returns a middleware that lets the request through only when every
// requirement is allowed.
func (g *Guard) Require(reqs ...Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, req := range reqs {
				if err := g.Authorize(c, req); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// Authorize checks a single requirement against the current request.
func (g *Guard) Authorize(c echo.Context, req Requirement) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		g.log.Warn("authorization without principal",
			zap.String("action", string(req.Action)),
			zap.String("resource_type", string(req.Resource)),
			zap.String("path", c.Path()),
		)
		return ErrAuthenticationRequired
	}

	pc := policy.Context{
		User:         policy.SubjectFromPrincipal(principal),
		Action:       req.Action,
		ResourceType: req.Resource,
	}
	if req.needsResource() {
		resource, err := g.resource(c, req, principal.ID)
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return err
		}
		if err != nil {
			g.log.Error("resource lookup failed",
				zap.String("resource_type", string(req.Resource)),
				zap.Error(err),
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		pc.Resource = resource
	}

	d := g.engine.Decide(c.Request().Context(), pc)
	if g.recorder != nil {
		g.recorder.RecordDecision(c.Request().Context(), string(req.Resource), string(req.Action), d.Allowed)
	}

	fields := []zap.Field{
		zap.String("user_id", principal.ID),
		zap.String("action", string(req.Action)),
		zap.String("resource_type", string(req.Resource)),
		zap.String("policy_id", d.PolicyID),
		zap.String("reason", d.Reason),
	}
	if !d.Allowed {
		g.log.Warn("access denied", fields...)
		return ErrAuthorizationDenied
	}
	g.log.Info("access granted", fields...)
	return nil
}

func (g *Guard) resource(c echo.Context, req Requirement, actorID string) (policy.Attributes, error) {
	resource := policy.Attributes{}

	id := ""
	if req.ResourceIDParam != "" {
		id = c.Param(req.ResourceIDParam)
	}
	if id != "" {
		resource[policy.AttrID] = id
	}
	if !req.OwnershipCheck {
		return resource, nil
	}

	if lookup, ok := g.lookups[req.Resource]; ok && id != "" {
		stored, found, err := lookup(c.Request().Context(), id)
		if err != nil {
			return nil, err
		}
		if found {
			for k, v := range stored {
				resource[k] = v
			}
			resource[policy.AttrID] = id
			return resource, nil
		}
	}

	ownerID, err := bodyOwnerID(c.Request())
	if err != nil {
		return nil, err
	}
	if ownerID == "" {
		ownerID = actorID
	}
	resource[policy.AttrOwnerID] = ownerID
	return resource, nil
}

// bodyOwnerID reads "ownerId" from a JSON body and puts the body back for
// the handler.
func bodyOwnerID(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	if !strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return "", nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyPeek+1))
	if err != nil {
		return "", err
	}
	if len(raw) > MaxBodyPeek {
		return "", echo.ErrStatusRequestEntityTooLarge
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		OwnerID string `json:"ownerId"`
	}
	// A body that is not an object carries no owner.
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	return body.OwnerID, nil
}
