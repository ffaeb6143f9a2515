package writer

import (
	"fmt"

	language "github.com/hanpama/normgraph/internal/language"
	store "github.com/hanpama/normgraph/internal/store"
)

// processSelectionSet merges every selection of ss into one accumulating
// field map plus a sparse tree of custom-merge obligations. Fragments whose
// type condition matches typeName are processed as if inlined: same result
// object, same accumulators.
func (cx *writeContext) processSelectionSet(result map[string]any, ss language.SelectionSet, typeName string, into store.Object, overrides **overrideNode) error {
	for _, sel := range ss {
		switch s := sel.(type) {
		case *language.Field:
			if !cx.includeSelection(s.Directives) {
				continue
			}
			if err := cx.processField(result, s, typeName, into, overrides); err != nil {
				return err
			}

		case *language.InlineFragment:
			if !cx.includeSelection(s.Directives) {
				continue
			}
			if s.TypeCondition != "" && !cx.policy.FragmentMatches(s.TypeCondition, typeName) {
				continue
			}
			if err := cx.processSelectionSet(result, s.SelectionSet, typeName, into, overrides); err != nil {
				return err
			}

		case *language.FragmentSpread:
			if !cx.includeSelection(s.Directives) {
				continue
			}
			frag := cx.fragments.ForName(s.Name)
			if frag == nil {
				return &ContractError{Reason: fmt.Sprintf("fragment %q is not defined", s.Name)}
			}
			if !cx.includeSelection(frag.Directives) {
				continue
			}
			if !cx.policy.FragmentMatches(frag.TypeCondition, typeName) {
				continue
			}
			if err := cx.processSelectionSet(result, frag.SelectionSet, typeName, into, overrides); err != nil {
				return err
			}

		default:
			return &ContractError{Reason: fmt.Sprintf("unknown selection node %T", sel)}
		}
	}
	return nil
}

func (cx *writeContext) processField(result map[string]any, field *language.Field, typeName string, into store.Object, overrides **overrideNode) error {
	resultKey := field.Alias
	if resultKey == "" {
		resultKey = field.Name
	}
	if resultKey == "" {
		return &ContractError{Reason: "field node has no name or alias"}
	}

	raw, ok := result[resultKey]
	if !ok {
		// Missing fields are expected on heterogeneous shapes; at most a
		// diagnostic, never a failure.
		cx.reportMissing(typeName, field)
		return nil
	}

	storageKey := cx.policy.StorageKey(typeName, field, cx.variables)
	value, childOverrides, err := cx.processFieldValue(raw, field)
	if err != nil {
		return err
	}

	mergeFn, hasFn := cx.policy.MergeFunc(typeName, field, cx.variables)
	if hasFn || childOverrides != nil {
		root := *overrides
		if root == nil {
			root = newOverrideNode()
			*overrides = root
		}
		node := root.field(storageKey)
		if hasFn {
			node.fn = mergeFn
		}
		node.absorb(childOverrides)
	}

	// Structural accumulate: lets two fragments targeting the same object
	// contribute overlapping fields within one pass.
	into[storageKey] = store.MergeValues(into[storageKey], value)
	return nil
}
