package policy

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a policy set.
//
//	policies:
//	  - id: note-read-deny-disabled
//	    name: Deny reading disabled notes
//	    resource: note
//	    action: read
//	    effect: deny
//	    conditions:
//	      - attribute: resource.status
//	        operator: equals
//	        value: disabled
//
// A condition carries at most one of value, ref and literal. value is
// interpreted with Infer, ref is always a reference and literal never is.
type Document struct {
	Policies []PolicyEntry `yaml:"policies"`
}

// PolicyEntry is one policy of a Document. Name defaults to ID.
type PolicyEntry struct {
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	Resource   string           `yaml:"resource"`
	Action     string           `yaml:"action"`
	Effect     string           `yaml:"effect"`
	Conditions []ConditionEntry `yaml:"conditions"`
}

// ConditionEntry is one condition of a PolicyEntry.
type ConditionEntry struct {
	Attribute string `yaml:"attribute"`
	Operator  string `yaml:"operator"`
	Value     any    `yaml:"value"`
	Ref       string `yaml:"ref"`
	Literal   any    `yaml:"literal"`
}

var knownOperators = map[Operator]bool{
	OpEquals: true, OpNotEquals: true, OpIn: true, OpNotIn: true, OpContains: true, OpExists: true,
}

// LoadFile reads a policy document from path.
func LoadFile(path string) ([]Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	policies, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policies, nil
}

// Decode parses a YAML policy document. Policies keep document order.
func Decode(r io.Reader) ([]Policy, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("policy: decode: %w", err)
	}

	out := make([]Policy, 0, len(doc.Policies))
	for i, entry := range doc.Policies {
		p, err := entry.build()
		if err != nil {
			return nil, fmt.Errorf("policy: policies[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s PolicyEntry) build() (Policy, error) {
	if s.ID == "" {
		return Policy{}, errors.New("id is required")
	}
	if s.Resource == "" || s.Action == "" {
		return Policy{}, fmt.Errorf("%s: resource and action are required", s.ID)
	}
	effect := Effect(s.Effect)
	if effect != EffectAllow && effect != EffectDeny {
		return Policy{}, fmt.Errorf("%s: effect must be allow or deny, got %q", s.ID, s.Effect)
	}

	p := Policy{
		ID:       s.ID,
		Name:     s.Name,
		Resource: ResourceType(s.Resource),
		Action:   Action(s.Action),
		Effect:   effect,
	}
	if p.Name == "" {
		p.Name = s.ID
	}
	for j, cs := range s.Conditions {
		c, err := cs.build()
		if err != nil {
			return Policy{}, fmt.Errorf("%s: conditions[%d]: %w", s.ID, j, err)
		}
		p.Conditions = append(p.Conditions, c)
	}
	return p, nil
}

func (s ConditionEntry) build() (Condition, error) {
	if s.Attribute == "" {
		return Condition{}, errors.New("attribute is required")
	}
	op := Operator(s.Operator)
	if !knownOperators[op] {
		return Condition{}, fmt.Errorf("unknown operator %q", s.Operator)
	}

	set := 0
	for _, present := range []bool{s.Value != nil, s.Ref != "", s.Literal != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return Condition{}, errors.New("only one of value, ref and literal may be set")
	}

	c := Condition{Attribute: s.Attribute, Operator: op}
	switch {
	case s.Ref != "":
		c.Value = Ref(s.Ref)
	case s.Literal != nil:
		c.Value = Literal(s.Literal)
	default:
		c.Value = Infer(s.Value)
	}
	return c, nil
}
