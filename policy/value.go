package policy

import (
	"fmt"
	"reflect"
	"strings"
)

type valueKind uint8

const (
	kindLiteral valueKind = iota
	kindRef
)

// Value is the expected side of a Condition: either a literal or a reference
// to another attribute of the same Context.
type Value struct {
	kind    valueKind
	literal any
	path    string
}

// Literal wraps v as a literal value. Named string types become string,
// integers become int64/uint64, floats float64 and slices []any.
func Literal(v any) Value {
	return Value{kind: kindLiteral, literal: normalize(v)}
}

// Ref refers to another attribute by dotted path, e.g. "resource.ownerId".
// A reference that does not resolve compares as its own path string.
func Ref(path string) Value {
	return Value{kind: kindRef, path: path}
}

// Infer builds a Value from a loosely typed policy document: a string that
// contains a dot is taken as a reference, anything else as a literal.
func Infer(v any) Value {
	if s, ok := v.(string); ok && strings.Contains(s, ".") {
		return Ref(s)
	}
	return Literal(v)
}

// IsRef reports whether v is an attribute reference.
func (v Value) IsRef() bool { return v.kind == kindRef }

// Path returns the referenced path, or "" for literals.
func (v Value) Path() string { return v.path }

// Raw returns the literal value, or the path for references.
func (v Value) Raw() any {
	if v.kind == kindRef {
		return v.path
	}
	return v.literal
}

func (v Value) String() string {
	if v.kind == kindRef {
		return "ref(" + v.path + ")"
	}
	return fmt.Sprintf("%v", v.literal)
}

// resolve returns the value to compare against for ctx.
func (v Value) resolve(pc *Context) any {
	if v.kind != kindRef {
		return v.literal
	}
	if resolved, ok := ResolveAttribute(v.path, pc); ok {
		return resolved
	}
	return v.path
}

func (v Value) clone() Value {
	if list, ok := v.literal.([]any); ok {
		v.literal = append([]any(nil), list...)
	}
	return v
}

// normalize maps v onto the small set of dynamic types conditions compare.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case string, bool, int64, uint64, float64, []any, Attributes:
		return t
	case map[string]any:
		return Attributes(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}
