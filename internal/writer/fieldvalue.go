package writer

import (
	"reflect"

	language "github.com/hanpama/normgraph/internal/language"
	store "github.com/hanpama/normgraph/internal/store"
)

// processFieldValue classifies one field's result value and recurses
// accordingly: scalar leaf, list, identifiable entity (normalized out and
// replaced by a reference), or embedded object.
func (cx *writeContext) processFieldValue(raw any, field *language.Field) (store.Value, *overrideNode, error) {
	if raw == nil || len(field.SelectionSet) == 0 {
		return cx.scalar(raw), nil, nil
	}

	switch v := raw.(type) {
	case []any:
		return cx.processListValue(v, field)

	case map[string]any:
		if key, ok := cx.policy.Identify(v, field.SelectionSet, cx.fragments); ok {
			// Normalization step: the nested object becomes its own entity
			// and the parent keeps a reference.
			if err := cx.writeSelectionSet(key, v, field.SelectionSet); err != nil {
				return nil, nil, err
			}
			return store.Ref{Key: key}, nil, nil
		}
		typeName := cx.resolveTypeName("", v, field.SelectionSet)
		embedded := store.Object{}
		var overrides *overrideNode
		if err := cx.processSelectionSet(v, field.SelectionSet, typeName, embedded, &overrides); err != nil {
			return nil, nil, err
		}
		return embedded, overrides, nil

	default:
		if rv := reflect.ValueOf(raw); rv.Kind() == reflect.Slice {
			items := make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
			return cx.processListValue(items, field)
		}
		return cx.scalar(raw), nil, nil
	}
}

// processListValue maps every element through the field-value processor.
// Elements share the field's selection set. Overrides are collected sparsely,
// only for indices that report any.
func (cx *writeContext) processListValue(items []any, field *language.Field) (store.Value, *overrideNode, error) {
	out := make(store.List, len(items))
	var overrides *overrideNode
	for i, item := range items {
		value, childOverrides, err := cx.processFieldValue(item, field)
		if err != nil {
			return nil, nil, err
		}
		if childOverrides != nil {
			if overrides == nil {
				overrides = newOverrideNode()
			}
			overrides.item(i).absorb(childOverrides)
		}
		out[i] = value
	}
	return out, overrides, nil
}

func (cx *writeContext) scalar(raw any) store.Value {
	if cx.opts.NoCopy {
		return store.Scalar{V: raw}
	}
	return store.Scalar{V: store.CopyJSON(raw)}
}
