// Package policy decides how result objects map onto the normalized store:
// entity identity, storage-key encoding, fragment type matching, and
// per-field custom merge behavior.
package policy

import (
	language "github.com/hanpama/normgraph/internal/language"
	store "github.com/hanpama/normgraph/internal/store"
)

// MergeFunc combines the previously stored value of a field with the
// incoming one and returns the value to commit.
//
// existing is nil on first write. Implementations must not mutate existing;
// the engine verifies this in strict mode and fails the write on violation.
// incoming is owned by the function and may be mutated or returned as-is.
type MergeFunc func(existing, incoming store.Value) store.Value

// Provider supplies the write engine's normalization decisions.
//
// General contract
//   - All methods are pure lookups: no I/O, no retained references to their
//     arguments, and safe for repeated calls with equal inputs.
//   - The engine may call these methods many times per write; implementations
//     should be cheap or memoized.
//   - Implementations must not mutate result objects or selection nodes.
type Provider interface {
	// DefaultTypeName returns the type name assumed for a well-known root
	// entity key (e.g. "Query" for the root query key), if any.
	DefaultTypeName(key string) (string, bool)

	// Identify computes the entity key for a result object, or reports that
	// the object has no stable identity and must be embedded. The selection
	// set and fragment table are provided so identity fields requested under
	// an alias in this occurrence can still be found.
	Identify(obj map[string]any, selections language.SelectionSet, fragments language.FragmentDefinitionList) (string, bool)

	// StorageKey returns the field-map slot for one field occurrence. The
	// encoding must be deterministic and independent of argument order so
	// the same field with equal arguments lands in the same slot across
	// queries, while different argument sets occupy distinct slots.
	StorageKey(typeName string, field *language.Field, variables map[string]any) string

	// MergeFunc returns the custom merge function for a field of the given
	// type, if one is configured.
	MergeFunc(typeName string, field *language.Field, variables map[string]any) (MergeFunc, bool)

	// FragmentMatches reports whether a fragment with the given type
	// condition applies to an object of the given concrete type: an exact
	// match, or membership in the named interface or union.
	FragmentMatches(condition, typeName string) bool

	// StrictPossibleTypes reports whether missing-field warnings are
	// enabled. The warnings are diagnostics only and never fail a write.
	StrictPossibleTypes() bool
}
