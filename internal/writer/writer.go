package writer

import (
	language "github.com/hanpama/normgraph/internal/language"
	store "github.com/hanpama/normgraph/internal/store"
)

// writeSelectionSet commits one entity's contribution for one selection set.
// Revisiting the same (entity key, selection set) pair within one write is a
// no-op.
func (cx *writeContext) writeSelectionSet(key string, result map[string]any, ss language.SelectionSet) error {
	if len(ss) == 0 {
		return nil
	}
	if cx.alreadyProcessed(key, ss) {
		return nil
	}

	typeName := cx.resolveTypeName(key, result, ss)

	fields := store.Object{}
	var overrides *overrideNode
	if err := cx.processSelectionSet(result, ss, typeName, fields, &overrides); err != nil {
		return err
	}
	if typeName != "" {
		if _, ok := fields[store.TypenameKey]; !ok {
			fields[store.TypenameKey] = store.Scalar{V: typeName}
		}
	}

	if overrides != nil {
		// Custom merges must observe the true pre-write stored value, so
		// they run against the current object before the commit below.
		existing, _ := cx.store.Get(key)
		if _, err := cx.applyOverrides(existing, fields, overrides); err != nil {
			return err
		}
	}

	cx.store.Merge(key, fields)
	cx.entities++
	return nil
}

// resolveTypeName determines the concrete type of a result object. First
// match wins: a __typename in the result itself (possibly aliased), the
// typename already stored under the key, then the policy default for
// well-known root keys.
func (cx *writeContext) resolveTypeName(key string, result map[string]any, ss language.SelectionSet) string {
	if tn := cx.typenameFromResult(result, ss); tn != "" {
		return tn
	}
	if key != "" {
		if v, ok := cx.store.GetField(key, store.TypenameKey); ok {
			if s, ok := v.(store.Scalar); ok {
				if tn, ok := s.V.(string); ok {
					return tn
				}
			}
		}
	}
	if tn, ok := cx.policy.DefaultTypeName(key); ok {
		return tn
	}
	return ""
}

// typenameFromResult reads __typename out of a result object, following the
// aliases of this occurrence. A typename found inside a fragment counts only
// when the fragment's type condition accepts it.
func (cx *writeContext) typenameFromResult(result map[string]any, ss language.SelectionSet) string {
	if tn, ok := result[store.TypenameKey].(string); ok && tn != "" {
		return tn
	}
	for _, sel := range ss {
		switch s := sel.(type) {
		case *language.Field:
			if s.Name != store.TypenameKey || s.Alias == "" {
				continue
			}
			if tn, ok := result[s.Alias].(string); ok && tn != "" {
				return tn
			}
		case *language.InlineFragment:
			if tn := cx.typenameFromResult(result, s.SelectionSet); tn != "" {
				if s.TypeCondition == "" || cx.policy.FragmentMatches(s.TypeCondition, tn) {
					return tn
				}
			}
		case *language.FragmentSpread:
			frag := cx.fragments.ForName(s.Name)
			if frag == nil {
				continue
			}
			if tn := cx.typenameFromResult(result, frag.SelectionSet); tn != "" {
				if cx.policy.FragmentMatches(frag.TypeCondition, tn) {
					return tn
				}
			}
		}
	}
	return ""
}
