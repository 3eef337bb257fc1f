package policy

import (
	"testing"

	"github.com/getkayan/kayan-notes/identity"
)

func testContext() *Context {
	return &Context{
		User:         Subject{ID: "u1", Email: "a@example.com", Role: identity.RoleUser},
		Action:       ActionRead,
		ResourceType: ResourceNote,
		Resource: Attributes{
			"id":       "n1",
			"ownerId":  "u1",
			"archived": false,
			"count":    0,
			"label":    "",
			"meta":     Attributes{"tag": "work"},
		},
	}
}

func TestResolveAttribute(t *testing.T) {
	pc := testContext()

	tests := []struct {
		path    string
		want    any
		defined bool
	}{
		{"user.id", "u1", true},
		{"user.email", "a@example.com", true},
		{"user.role", "user", true},
		{"action", "read", true},
		{"resourceType", "note", true},
		{"resource.ownerId", "u1", true},
		{"resource.meta.tag", "work", true},
		{"resource.count", int64(0), true},
		{"resource.missing", nil, false},
		{"resource.meta.tag.deeper", nil, false},
		{"user.password", nil, false},
		{"tenant.id", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		got, ok := ResolveAttribute(tt.path, pc)
		if ok != tt.defined {
			t.Errorf("%q: defined = %v, want %v", tt.path, ok, tt.defined)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%q: got %#v, want %#v", tt.path, got, tt.want)
		}
	}
}

func TestResolveAttributeNilResource(t *testing.T) {
	pc := &Context{User: Subject{ID: "u1"}}
	if _, ok := ResolveAttribute("resource", pc); ok {
		t.Error("nil resource should be absent")
	}
	if _, ok := ResolveAttribute("resource.ownerId", pc); ok {
		t.Error("path below nil resource should be absent")
	}
	if _, ok := ResolveAttribute("user.id", nil); ok {
		t.Error("nil context should resolve nothing")
	}
}

func TestEvaluatorOperators(t *testing.T) {
	e := NewEvaluator(nil)
	pc := testContext()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals literal", Condition{"user.role", OpEquals, Literal(identity.RoleUser)}, true},
		{"equals literal mismatch", Condition{"user.role", OpEquals, Literal("admin")}, false},
		{"equals is strict on type", Condition{"resource.count", OpEquals, Literal("0")}, false},
		{"equals numeric kinds", Condition{"resource.count", OpEquals, Literal(int32(0))}, true},
		{"equals reference", Condition{"user.id", OpEquals, Ref("resource.ownerId")}, true},
		{"equals unresolved reference uses path", Condition{"resource.label", OpEquals, Ref("resource.missing")}, false},
		{"equals missing attribute", Condition{"resource.missing", OpEquals, Literal("")}, false},
		{"equals list never matches", Condition{"user.role", OpEquals, Literal([]string{"user", "admin"})}, false},
		{"not_equals", Condition{"user.role", OpNotEquals, Literal("admin")}, true},
		{"not_equals same", Condition{"user.role", OpNotEquals, Literal("user")}, false},
		{"not_equals missing attribute", Condition{"resource.missing", OpNotEquals, Literal("x")}, true},
		{"in", Condition{"user.role", OpIn, Literal([]identity.Role{identity.RoleUser, identity.RoleAdmin})}, true},
		{"in miss", Condition{"user.role", OpIn, Literal([]string{"admin"})}, false},
		{"in non-list", Condition{"user.role", OpIn, Literal("user")}, false},
		{"not_in", Condition{"user.role", OpNotIn, Literal([]string{"admin"})}, true},
		{"not_in hit", Condition{"user.role", OpNotIn, Literal([]string{"user"})}, false},
		{"not_in non-list", Condition{"user.role", OpNotIn, Literal("admin")}, false},
		{"contains", Condition{"user.email", OpContains, Literal("@example")}, true},
		{"contains miss", Condition{"user.email", OpContains, Literal("@other")}, false},
		{"contains non-string", Condition{"resource.count", OpContains, Literal("0")}, false},
		{"contains non-string value", Condition{"user.email", OpContains, Literal(1)}, false},
		{"exists", Condition{"resource.ownerId", OpExists, Literal(nil)}, true},
		{"exists false", Condition{"resource.archived", OpExists, Literal(nil)}, true},
		{"exists zero", Condition{"resource.count", OpExists, Literal(nil)}, true},
		{"exists empty string", Condition{"resource.label", OpExists, Literal(nil)}, true},
		{"exists missing", Condition{"resource.missing", OpExists, Literal(nil)}, false},
		{"unknown operator", Condition{"user.role", Operator("regex"), Literal("user")}, false},
	}

	for _, tt := range tests {
		if got := e.Evaluate(tt.cond, pc); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEvaluatorNilValueExists(t *testing.T) {
	e := NewEvaluator(nil)
	pc := testContext()
	pc.Resource["deletedAt"] = nil
	if e.Evaluate(Condition{"resource.deletedAt", OpExists, Literal(nil)}, pc) {
		t.Error("nil attribute should not exist")
	}
}

func TestInfer(t *testing.T) {
	if v := Infer("resource.ownerId"); !v.IsRef() || v.Path() != "resource.ownerId" {
		t.Errorf("dotted string should infer a reference, got %v", v)
	}
	if v := Infer("admin"); v.IsRef() {
		t.Error("plain string should infer a literal")
	}

	// A dotted literal that does not resolve still compares as itself.
	e := NewEvaluator(nil)
	pc := testContext()
	pc.Resource["domain"] = "example.com"
	if !e.Evaluate(Condition{"resource.domain", OpEquals, Infer("example.com")}, pc) {
		t.Error("unresolvable dotted value should compare as a literal")
	}
	if !e.Evaluate(Condition{"resource.domain", OpEquals, Literal("example.com")}, pc) {
		t.Error("explicit literal with a dot should compare as a literal")
	}
}

func TestEvaluatorDoesNotMutateContext(t *testing.T) {
	e := NewEvaluator(nil)
	pc := testContext()
	before := len(pc.Resource)
	e.Evaluate(Condition{"resource.missing.deep", OpExists, Literal(nil)}, pc)
	e.Evaluate(Condition{"user.id", OpEquals, Ref("resource.ownerId")}, pc)
	if len(pc.Resource) != before {
		t.Error("evaluation must not add attributes")
	}
}
