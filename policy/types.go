package policy

import (
	"github.com/getkayan/kayan-notes/identity"
)

// Action is the kind of operation being authorized.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
	ActionList   Action = "list"
)

// ResourceType is the kind of protected resource.
type ResourceType string

const (
	ResourceUser       ResourceType = "user"
	ResourceNote       ResourceType = "note"
	ResourcePublicLink ResourceType = "public_link"
	ResourceAdminNotes ResourceType = "admin_notes"
)

// Operator is the comparison applied by a Condition.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpIn        Operator = "in"
	OpNotIn     Operator = "not_in"
	OpContains  Operator = "contains"
	OpExists    Operator = "exists"
)

// Effect is the outcome of a matching policy.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Well-known resource attribute keys.
const (
	AttrID      = "id"
	AttrOwnerID = "ownerId"
	AttrStatus  = "status"
)

// Subject is the acting user as seen by the engine. Only id, email and role
// are ever exposed to conditions.
type Subject struct {
	ID    string
	Email string
	Role  identity.Role
}

// SubjectFromPrincipal copies the attributes the engine is allowed to see.
func SubjectFromPrincipal(p *identity.Principal) Subject {
	return Subject{ID: p.ID, Email: p.Email, Role: p.Role}
}

// Attributes holds free-form resource attributes keyed by name.
// Values should be scalars (string, bool, numbers) or nested Attributes.
type Attributes map[string]any

// ID returns the "id" attribute when it is a string.
func (a Attributes) ID() string {
	s, _ := a[AttrID].(string)
	return s
}

// OwnerID returns the "ownerId" attribute when it is a string.
func (a Attributes) OwnerID() string {
	s, _ := a[AttrOwnerID].(string)
	return s
}

// Context is the input of a single authorization decision. A nil Resource
// means the request carries no resource facts at all.
type Context struct {
	User         Subject
	Action       Action
	ResourceType ResourceType
	Resource     Attributes
}

// Condition is a single predicate over a context attribute.
type Condition struct {
	Attribute string
	Operator  Operator
	Value     Value
}

// Policy pairs a resource/action match with conditions and an effect.
// An empty Conditions list always matches.
type Policy struct {
	ID         string
	Name       string
	Resource   ResourceType
	Action     Action
	Conditions []Condition
	Effect     Effect
}

func (p Policy) clone() Policy {
	out := p
	if p.Conditions != nil {
		out.Conditions = make([]Condition, len(p.Conditions))
		for i, c := range p.Conditions {
			c.Value = c.Value.clone()
			out.Conditions[i] = c
		}
	}
	return out
}
