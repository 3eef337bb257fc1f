package policy

import (
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// undefined marks an attribute path that is absent from the context. It
// equals nothing but itself, so it never matches a literal or a resolved
// reference.
type undefined struct{}

// ResolveAttribute walks a dotted path ("user.id", "resource.ownerId",
// "action", "resourceType") through pc. The boolean is false when any
// segment is absent; it never panics.
func ResolveAttribute(path string, pc *Context) (any, bool) {
	if pc == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	head, rest := parts[0], parts[1:]

	switch head {
	case "user":
		user := Attributes{
			"id":    pc.User.ID,
			"email": pc.User.Email,
			"role":  string(pc.User.Role),
		}
		return walk(user, rest)
	case "action":
		return walk(string(pc.Action), rest)
	case "resourceType":
		return walk(string(pc.ResourceType), rest)
	case "resource":
		if pc.Resource == nil {
			return nil, false
		}
		return walk(pc.Resource, rest)
	}
	return nil, false
}

func walk(current any, parts []string) (any, bool) {
	for _, part := range parts {
		var m map[string]any
		switch t := current.(type) {
		case Attributes:
			m = t
		case map[string]any:
			m = t
		default:
			return nil, false
		}
		next, ok := m[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return normalize(current), true
}

// Evaluator tests single conditions against a Context.
type Evaluator struct {
	log *zap.Logger
}

// NewEvaluator returns an evaluator that reports configuration defects to log.
// A nil logger discards them.
func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log}
}

// Evaluate reports whether condition holds for pc. Unknown operators fail
// closed.
func (e *Evaluator) Evaluate(condition Condition, pc *Context) bool {
	actual, ok := ResolveAttribute(condition.Attribute, pc)
	if !ok {
		actual = undefined{}
	}
	expected := condition.Value.resolve(pc)

	e.log.Debug("evaluating condition",
		zap.String("attribute", condition.Attribute),
		zap.String("operator", string(condition.Operator)),
		zap.Stringer("value", condition.Value),
		zap.Bool("defined", ok),
	)

	switch condition.Operator {
	case OpEquals:
		return strictEqual(actual, expected)
	case OpNotEquals:
		return !strictEqual(actual, expected)
	case OpIn:
		list, isList := expected.([]any)
		return isList && containsValue(list, actual)
	case OpNotIn:
		list, isList := expected.([]any)
		return isList && !containsValue(list, actual)
	case OpContains:
		s, isString := actual.(string)
		sub, subIsString := expected.(string)
		return isString && subIsString && strings.Contains(s, sub)
	case OpExists:
		return ok && actual != nil
	default:
		e.log.Warn("unknown condition operator",
			zap.String("operator", string(condition.Operator)),
			zap.String("attribute", condition.Attribute),
		)
		return false
	}
}

func strictEqual(a, b any) bool {
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if strictEqual(item, v) {
			return true
		}
	}
	return false
}
