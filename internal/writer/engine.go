package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	eventbus "github.com/hanpama/normgraph/internal/eventbus"
	events "github.com/hanpama/normgraph/internal/events"
	language "github.com/hanpama/normgraph/internal/language"
	policy "github.com/hanpama/normgraph/internal/policy"
	store "github.com/hanpama/normgraph/internal/store"
	writeid "github.com/hanpama/normgraph/internal/writeid"
)

// Options selects between the two behavior profiles of the engine.
type Options struct {
	// NoCopy skips the defensive deep copy of leaf values before storage.
	// With NoCopy set, stored scalars may alias the caller's result tree and
	// the caller must not mutate it afterwards.
	NoCopy bool

	// Unchecked skips merge-function mutation detection. With Unchecked
	// set, a merge function that mutates its existing argument corrupts the
	// store silently instead of failing the write.
	Unchecked bool
}

// Engine writes GraphQL result trees into a normalized entity store. It
// holds no state across writes beyond its policy provider and options.
type Engine struct {
	policy policy.Provider
	opts   Options
}

func New(p policy.Provider, opts Options) *Engine {
	return &Engine{policy: p, opts: opts}
}

// Request describes one write.
type Request struct {
	// Document is the parsed query whose shape the result tree follows.
	Document *language.QueryDocument

	// Operation selects the operation by name; empty picks the only one.
	Operation string

	// Result is the result tree returned for the operation.
	Result map[string]any

	// Variables are the caller's variable bindings. They overlay defaults
	// declared in the document; caller values win on conflict.
	Variables map[string]any

	// RootKey is the entity key the top-level result is written under.
	// Empty selects the well-known root for the operation type.
	RootKey string

	// Store is the destination. Nil constructs a fresh in-memory store.
	Store store.EntityStore
}

// Result is the outcome of a successful write.
type Result struct {
	Store       store.EntityStore
	Diagnostics []Diagnostic
}

// Diagnostic is a non-fatal observation made during a write, e.g. a queried
// field that a polymorphic result object did not supply.
type Diagnostic struct {
	TypeName string
	Field    string
	Message  string
}

// Write normalizes req.Result into the target store and returns it. Entities
// committed by earlier recursive sub-calls stay committed even when a later
// sub-call fails; callers needing atomicity must snapshot the store
// themselves.
func (e *Engine) Write(ctx context.Context, req Request) (*Result, error) {
	if req.Document == nil {
		return nil, errors.New("write: nil query document")
	}
	op := operationFor(req.Document, req.Operation)
	if op == nil {
		return nil, fmt.Errorf("write: operation %q not found", req.Operation)
	}
	variables, err := resolveVariables(op, req.Variables)
	if err != nil {
		return nil, err
	}

	rootKey := req.RootKey
	if rootKey == "" {
		rootKey = defaultRootKey(op.Operation)
	}
	target := req.Store
	if target == nil {
		target = store.NewMemory()
	}
	target.RetainRoot(rootKey)

	ctx, _ = writeid.NewContext(ctx)
	cx := &writeContext{
		ctx:       ctx,
		store:     target,
		policy:    e.policy,
		opts:      e.opts,
		variables: variables,
		fragments: req.Document.Fragments,
		processed: make(map[string]map[selectionSetID]struct{}),
	}

	start := time.Now()
	eventbus.Publish(ctx, events.WriteStart{Operation: op.Name, RootKey: rootKey})
	werr := cx.writeSelectionSet(rootKey, req.Result, op.SelectionSet)
	eventbus.Publish(ctx, events.WriteFinish{
		Operation:   op.Name,
		RootKey:     rootKey,
		Entities:    cx.entities,
		Diagnostics: len(cx.diags),
		Duration:    time.Since(start),
		Err:         werr,
	})
	if werr != nil {
		return nil, werr
	}
	return &Result{Store: target, Diagnostics: cx.diags}, nil
}

func defaultRootKey(op language.Operation) string {
	switch op {
	case language.Mutation:
		return store.RootMutation
	case language.Subscription:
		return store.RootSubscription
	default:
		return store.RootQuery
	}
}

// operationFor retrieves the operation from the document.
func operationFor(document *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" && len(document.Operations) == 1 {
		for _, op := range document.Operations {
			return op
		}
	}
	for _, op := range document.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// resolveVariables applies declared defaults and overlays the provided
// bindings. Provided values win; a missing non-null variable is an error.
func resolveVariables(op *language.OperationDefinition, provided map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(op.VariableDefinitions)+len(provided))
	for _, vd := range op.VariableDefinitions {
		if vd.DefaultValue != nil {
			out[vd.Variable] = language.ValueToGo(vd.DefaultValue, nil)
		}
	}
	for k, v := range provided {
		out[strings.TrimPrefix(k, "$")] = v
	}
	for _, vd := range op.VariableDefinitions {
		if vd.Type != nil && vd.Type.NonNull {
			if v, ok := out[vd.Variable]; !ok || v == nil {
				return nil, fmt.Errorf("write: variable $%s of required type %s was not provided", vd.Variable, vd.Type.String())
			}
		}
	}
	return out, nil
}
