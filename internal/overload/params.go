package overload

import (
	"fmt"
	"math"
	"reflect"
)

// Param matches a single argument position.
type Param interface {
	// Match reports whether v is acceptable and returns the value handed to
	// the handler, which may be a normalized form of v.
	Match(v any) (any, bool)

	// String describes the parameter in error messages.
	String() string
}

type paramFunc struct {
	name  string
	match func(v any) (any, bool)
}

func (p paramFunc) Match(v any) (any, bool) { return p.match(v) }
func (p paramFunc) String() string          { return p.name }

type optional struct {
	Param
	def any
}

func (o optional) String() string { return o.Param.String() + "?" }

// Optional marks p as optional with the given default.
func Optional(p Param, def any) Param {
	return optional{Param: p, def: def}
}

func defaultOf(p Param) (any, bool) {
	if o, ok := p.(optional); ok {
		return o.def, true
	}
	return nil, false
}

// Integer accepts any signed or unsigned integer and normalizes it to int64.
// Unsigned values above math.MaxInt64 do not match.
func Integer() Param {
	return paramFunc{name: "int", match: func(v any) (any, bool) {
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int8:
			return int64(n), true
		case int16:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case uint:
			if uint64(n) > math.MaxInt64 {
				return nil, false
			}
			return int64(n), true
		case uint8:
			return int64(n), true
		case uint16:
			return int64(n), true
		case uint32:
			return int64(n), true
		case uint64:
			if n > math.MaxInt64 {
				return nil, false
			}
			return int64(n), true
		}
		return nil, false
	}}
}

// String accepts string values, including named string types.
func String() Param {
	return paramFunc{name: "string", match: func(v any) (any, bool) {
		if s, ok := v.(string); ok {
			return s, true
		}
		rv := reflect.ValueOf(v)
		if rv.IsValid() && rv.Kind() == reflect.String {
			return rv.String(), true
		}
		return nil, false
	}}
}

// Map accepts string-keyed maps and normalizes them to map[string]any.
func Map() Param {
	return paramFunc{name: "map", match: func(v any) (any, bool) {
		switch m := v.(type) {
		case map[string]any:
			return m, true
		case map[string]string:
			out := make(map[string]any, len(m))
			for k, s := range m {
				out[k] = s
			}
			return out, true
		}
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	}}
}

// Strings accepts a list of strings, given as []string or as []any holding
// only strings.
func Strings() Param {
	return paramFunc{name: "[]string", match: func(v any) (any, bool) {
		switch s := v.(type) {
		case []string:
			return append([]string(nil), s...), true
		case []any:
			out := make([]string, len(s))
			for i, x := range s {
				str, ok := x.(string)
				if !ok {
					return nil, false
				}
				out[i] = str
			}
			return out, true
		}
		return nil, false
	}}
}

// Type accepts values assignable to T. With an interface T this matches
// any implementation.
func Type[T any]() Param {
	var zero *T
	name := reflect.TypeOf(zero).Elem().String()
	return paramFunc{name: name, match: func(v any) (any, bool) {
		t, ok := v.(T)
		if !ok {
			return nil, false
		}
		return t, true
	}}
}

// Implements is Type spelled for interface constraints.
func Implements[T any]() Param {
	return Type[T]()
}

// Literal accepts only values deeply equal to want.
func Literal(want any) Param {
	return paramFunc{name: fmt.Sprintf("%v", want), match: func(v any) (any, bool) {
		if reflect.DeepEqual(v, want) {
			return v, true
		}
		return nil, false
	}}
}

// Any accepts every value, including nil.
func Any() Param {
	return paramFunc{name: "any", match: func(v any) (any, bool) { return v, true }}
}
