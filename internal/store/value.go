package store

import (
	"encoding/json"
	"reflect"
)

// Value is a normalized store value. It is a closed variant: Scalar, List,
// Ref, or Object. Code walking values should type-switch over exactly these.
type Value interface {
	isValue()
}

// Scalar is a JSON-like leaf (nil, bool, float64, int, string, or nested
// plain maps/slices for custom scalars). The engine deep-copies leaves on
// write, so a Scalar never aliases caller-owned data.
type Scalar struct {
	V any
}

// Ref points at another entity by key, replacing an embedded copy.
type Ref struct {
	Key string
}

// List is an ordered sequence of values.
type List []Value

// Object is a field map keyed by storage key. An Object nested inside
// another value is embedded data with no identity of its own.
type Object map[string]Value

func (Scalar) isValue() {}
func (Ref) isValue()    {}
func (List) isValue()   {}
func (Object) isValue() {}

func (s Scalar) MarshalJSON() ([]byte, error) { return json.Marshal(s.V) }

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ref string `json:"__ref"`
	}{Ref: r.Key})
}

// Copy returns a deep copy of v sharing no mutable state with it.
func Copy(v Value) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case Scalar:
		return Scalar{V: CopyJSON(t.V)}
	case Ref:
		return t
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = Copy(e)
		}
		return out
	case Object:
		out := make(Object, len(t))
		for k, e := range t {
			out[k] = Copy(e)
		}
		return out
	default:
		return v
	}
}

// CopyJSON deep-copies a JSON-like Go value (maps, slices, leaves).
func CopyJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CopyJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CopyJSON(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports deep equality of two values.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(a, b)
}

// MergeValues folds incoming into existing and returns the result. Objects
// merge key by key, lists merge element-wise by position with the incoming
// list deciding the length, anything else is replaced by incoming. Both
// arguments are consumed: the result may alias either, and neither may be
// used by the caller afterwards.
func MergeValues(existing, incoming Value) Value {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}
	switch in := incoming.(type) {
	case Object:
		ex, ok := existing.(Object)
		if !ok {
			return in
		}
		for k, v := range in {
			ex[k] = MergeValues(ex[k], v)
		}
		return ex
	case List:
		ex, ok := existing.(List)
		if !ok {
			return in
		}
		for i := range in {
			if i < len(ex) {
				in[i] = MergeValues(ex[i], in[i])
			}
		}
		return in
	default:
		return incoming
	}
}
