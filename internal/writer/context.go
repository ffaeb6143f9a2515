package writer

import (
	"context"
	"fmt"
	"reflect"

	eventbus "github.com/hanpama/normgraph/internal/eventbus"
	events "github.com/hanpama/normgraph/internal/events"
	language "github.com/hanpama/normgraph/internal/language"
	policy "github.com/hanpama/normgraph/internal/policy"
	store "github.com/hanpama/normgraph/internal/store"
)

// writeContext carries the transient state of one write: resolved variables,
// the fragment table, the destination store, and the dedup bookkeeping. It
// is owned by a single call and dropped when the write returns.
type writeContext struct {
	ctx       context.Context
	store     store.EntityStore
	policy    policy.Provider
	opts      Options
	variables map[string]any
	fragments language.FragmentDefinitionList

	// processed maps entity key -> selection sets already written for that
	// key during this invocation.
	processed map[string]map[selectionSetID]struct{}
	diags     []Diagnostic
	entities  int
}

// selectionSetID identifies a selection set node within one document. The
// parser never shares backing arrays between selection sets, so the data
// pointer plus length is unique per node.
type selectionSetID struct {
	ptr uintptr
	n   int
}

func identify(ss language.SelectionSet) selectionSetID {
	return selectionSetID{ptr: reflect.ValueOf(ss).Pointer(), n: len(ss)}
}

// alreadyProcessed records (key, ss) and reports whether it was seen before
// in this write.
func (cx *writeContext) alreadyProcessed(key string, ss language.SelectionSet) bool {
	id := identify(ss)
	seen, ok := cx.processed[key]
	if !ok {
		seen = make(map[selectionSetID]struct{})
		cx.processed[key] = seen
	}
	if _, dup := seen[id]; dup {
		return true
	}
	seen[id] = struct{}{}
	return false
}

func (cx *writeContext) reportMissing(typeName string, field *language.Field) {
	if !cx.policy.StrictPossibleTypes() {
		return
	}
	// Deferred and local-only fields are expected to be absent.
	if field.Directives.ForName("defer") != nil || field.Directives.ForName("client") != nil {
		return
	}
	cx.diags = append(cx.diags, Diagnostic{
		TypeName: typeName,
		Field:    field.Name,
		Message:  fmt.Sprintf("field %q queried on %q is missing from the result", field.Name, typeName),
	})
	eventbus.Publish(cx.ctx, events.FieldSkipped{TypeName: typeName, Field: field.Name, Reason: "missing in result"})
}

// includeSelection evaluates @skip/@include against the bound variables.
func (cx *writeContext) includeSelection(directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := cx.directiveIf(skip); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := cx.directiveIf(include); ok && !v {
			return false
		}
	}
	return true
}

func (cx *writeContext) directiveIf(d *language.Directive) (value, ok bool) {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	v, ok := language.ValueToGo(arg.Value, cx.variables).(bool)
	return v, ok
}

// ContractError reports a programming-error-class failure: a malformed
// selection node or a merge function violating its immutability contract.
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string { return "contract violation: " + e.Reason }
