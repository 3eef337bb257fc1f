// Package policy implements the attribute-based access control engine used by
// the notes service.
//
// Policies are held in an ordered Store. For every decision the Engine picks
// the policies whose resource and action match the request, evaluates their
// conditions (AND-ed) through the Evaluator and combines the outcome. With the
// default FirstMatch combinator the first matching policy in store order wins;
// no applicable or matching policy means deny.
//
//	engine := policy.NewEngine(policy.WithLogger(logger.Log))
//	ok := engine.Evaluate(ctx, policy.Context{
//	    User:         policy.Subject{ID: "u1", Role: identity.RoleUser},
//	    Action:       policy.ActionRead,
//	    ResourceType: policy.ResourceNote,
//	    Resource:     policy.Attributes{"id": "n1", "ownerId": "u1"},
//	})
package policy

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/getkayan/kayan-notes/policy"

// Decider makes authorization decisions. *Engine implements it.
type Decider interface {
	Decide(ctx context.Context, pc Context) Decision
}

// Combinator defines how matching policies are combined.
type Combinator int

const (
	// FirstMatch returns the effect of the first matching policy in store
	// order. A deny only wins over an allow that comes after it.
	FirstMatch Combinator = iota
	// DenyOverrides evaluates every applicable policy: any matching deny
	// wins, otherwise any matching allow.
	DenyOverrides
)

func (c Combinator) String() string {
	switch c {
	case FirstMatch:
		return "first_match"
	case DenyOverrides:
		return "deny_overrides"
	}
	return fmt.Sprintf("combinator(%d)", int(c))
}

// ParseCombinator maps a configuration string onto a Combinator.
func ParseCombinator(s string) (Combinator, error) {
	switch s {
	case "", "first_match":
		return FirstMatch, nil
	case "deny_overrides":
		return DenyOverrides, nil
	}
	return FirstMatch, fmt.Errorf("policy: unknown combinator %q", s)
}

// Reasons recorded on a Decision.
const (
	ReasonNoApplicable = "no_applicable_policy"
	ReasonNoMatch      = "no_matching_policy"
	ReasonAllow        = "allow"
	ReasonDeny         = "deny"
)

// Decision is the outcome of one evaluation. PolicyID and PolicyName identify
// the deciding policy and are meant for logs only.
type Decision struct {
	Allowed    bool
	Reason     string
	PolicyID   string
	PolicyName string
}

// Engine evaluates policy contexts against a Store.
type Engine struct {
	store      *Store
	evaluator  *Evaluator
	combinator Combinator
	log        *zap.Logger
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithStore replaces the built-in policy set with s.
func WithStore(s *Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithCombinator selects the combining algorithm.
func WithCombinator(c Combinator) Option {
	return func(e *Engine) { e.combinator = c }
}

// WithTracerProvider sets the provider used for decision spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// NewEngine builds an engine loaded with DefaultPolicies unless WithStore is given.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:    zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = NewStore(DefaultPolicies()...)
		e.log.Info("initialized policies", zap.Int("count", e.store.Len()))
	}
	e.evaluator = NewEvaluator(e.log)
	return e
}

// Evaluate reports whether pc is authorized.
func (e *Engine) Evaluate(ctx context.Context, pc Context) bool {
	return e.Decide(ctx, pc).Allowed
}

// Decide evaluates pc and returns the full decision.
func (e *Engine) Decide(ctx context.Context, pc Context) Decision {
	_, span := e.tracer.Start(ctx, "policy.evaluate", trace.WithAttributes(
		attribute.String("policy.action", string(pc.Action)),
		attribute.String("policy.resource_type", string(pc.ResourceType)),
		attribute.String("policy.combinator", e.combinator.String()),
	))
	defer span.End()

	d := e.decide(&pc)

	span.SetAttributes(
		attribute.Bool("policy.allowed", d.Allowed),
		attribute.String("policy.reason", d.Reason),
	)
	if d.PolicyID != "" {
		span.SetAttributes(attribute.String("policy.id", d.PolicyID))
	}
	return d
}

func (e *Engine) decide(pc *Context) Decision {
	e.log.Debug("evaluating policy",
		zap.String("action", string(pc.Action)),
		zap.String("resource_type", string(pc.ResourceType)),
	)

	applicable := e.store.FindApplicable(pc.ResourceType, pc.Action)
	if len(applicable) == 0 {
		e.log.Warn("no policies found",
			zap.String("action", string(pc.Action)),
			zap.String("resource_type", string(pc.ResourceType)),
		)
		return Decision{Reason: ReasonNoApplicable}
	}

	if e.combinator == DenyOverrides {
		return e.denyOverrides(applicable, pc)
	}

	for _, p := range applicable {
		if !e.matches(p, pc) {
			continue
		}
		switch p.Effect {
		case EffectDeny:
			e.log.Debug("policy denied access", zap.String("policy", p.Name))
			return decisionFor(p, false)
		case EffectAllow:
			e.log.Debug("policy allowed access", zap.String("policy", p.Name))
			return decisionFor(p, true)
		}
	}

	e.log.Debug("no matching allow policies found, denying access")
	return Decision{Reason: ReasonNoMatch}
}

func (e *Engine) denyOverrides(applicable []Policy, pc *Context) Decision {
	var allow *Policy
	for i, p := range applicable {
		if !e.matches(p, pc) {
			continue
		}
		if p.Effect == EffectDeny {
			return decisionFor(p, false)
		}
		if p.Effect == EffectAllow && allow == nil {
			allow = &applicable[i]
		}
	}
	if allow != nil {
		return decisionFor(*allow, true)
	}
	return Decision{Reason: ReasonNoMatch}
}

func (e *Engine) matches(p Policy, pc *Context) bool {
	for _, c := range p.Conditions {
		if !e.evaluator.Evaluate(c, pc) {
			return false
		}
	}
	return true
}

func decisionFor(p Policy, allowed bool) Decision {
	reason := ReasonDeny
	if allowed {
		reason = ReasonAllow
	}
	return Decision{Allowed: allowed, Reason: reason, PolicyID: p.ID, PolicyName: p.Name}
}

// AddPolicy appends p to the store.
func (e *Engine) AddPolicy(p Policy) {
	e.store.Add(p)
	e.log.Info("added policy", zap.String("id", p.ID), zap.String("name", p.Name))
}

// RemovePolicy removes the first policy with the given id, if any.
func (e *Engine) RemovePolicy(id string) {
	if removed, ok := e.store.Remove(id); ok {
		e.log.Info("removed policy", zap.String("id", removed.ID), zap.String("name", removed.Name))
	}
}

// ListPolicies returns a copy of all policies in store order.
func (e *Engine) ListPolicies() []Policy {
	return e.store.List()
}
