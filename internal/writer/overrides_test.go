package writer

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	policy "github.com/hanpama/normgraph/internal/policy"
	store "github.com/hanpama/normgraph/internal/store"
	"github.com/stretchr/testify/require"
)

func concatScalars(existing, incoming store.Value) store.Value {
	var out []any
	if ex, ok := existing.(store.Scalar); ok {
		if xs, ok := ex.V.([]any); ok {
			out = append(out, xs...)
		}
	}
	if in, ok := incoming.(store.Scalar); ok {
		if xs, ok := in.V.([]any); ok {
			out = append(out, xs...)
		}
	}
	return store.Scalar{V: out}
}

func TestMergeFunctionObservesExistingValue(t *testing.T) {
	var observed store.Value
	concat := func(existing, incoming store.Value) store.Value {
		observed = existing
		return concatScalars(existing, incoming)
	}
	e := newEngine(policy.Config{Types: map[string]policy.TypePolicy{
		"Hero": {Merge: map[string]policy.MergeFunc{"powers": concat}},
	}}, Options{})
	mem := store.NewMemory()

	write(t, e, mem, `{ hero { id __typename powers } }`, map[string]any{
		"hero": map[string]any{"id": "1", "__typename": "Hero", "powers": []any{1, 2}},
	}, nil)
	require.Nil(t, observed, "existing must be absent on first write")

	write(t, e, mem, `{ hero { id __typename powers } }`, map[string]any{
		"hero": map[string]any{"id": "1", "__typename": "Hero", "powers": []any{3, 4}},
	}, nil)

	if diff := cmp.Diff(store.Scalar{V: []any{1, 2}}, observed); diff != "" {
		t.Fatalf("existing seen by merge function (-want +got):\n%s", diff)
	}
	hero := entity(t, mem, "Hero:1")
	if diff := cmp.Diff(store.Scalar{V: []any{1, 2, 3, 4}}, hero["powers"]); diff != "" {
		t.Fatalf("committed value (-want +got):\n%s", diff)
	}
}

func TestChildOverridesResolveBeforeParent(t *testing.T) {
	var parentSawTags store.Value
	parentMerge := func(existing, incoming store.Value) store.Value {
		if obj, ok := incoming.(store.Object); ok {
			parentSawTags = obj["tags"]
		}
		return incoming
	}
	e := newEngine(policy.Config{Types: map[string]policy.TypePolicy{
		"User":    {Merge: map[string]policy.MergeFunc{"profile": parentMerge}},
		"Profile": {Merge: map[string]policy.MergeFunc{"tags": concatScalars}},
	}}, Options{})
	mem := store.NewMemory()

	query := `{ viewer { id __typename profile { __typename tags } } }`
	data := func(tags ...any) map[string]any {
		return map[string]any{"viewer": map[string]any{
			"id": "1", "__typename": "User",
			"profile": map[string]any{"__typename": "Profile", "tags": tags},
		}}
	}
	write(t, e, mem, query, data("a"), nil)
	write(t, e, mem, query, data("b"), nil)

	// The parent merge function must see the child's concat already applied.
	if diff := cmp.Diff(store.Scalar{V: []any{"a", "b"}}, parentSawTags); diff != "" {
		t.Fatalf("parent saw unresolved child (-want +got):\n%s", diff)
	}
	user := entity(t, mem, "User:1")
	profile, ok := user["profile"].(store.Object)
	require.True(t, ok)
	if diff := cmp.Diff(store.Scalar{V: []any{"a", "b"}}, profile["tags"]); diff != "" {
		t.Fatalf("committed profile tags (-want +got):\n%s", diff)
	}
}

func TestListIndexOverridesAreSparse(t *testing.T) {
	add := func(existing, incoming store.Value) store.Value {
		sum := 0
		if ex, ok := existing.(store.Scalar); ok {
			if n, ok := ex.V.(int); ok {
				sum += n
			}
		}
		if in, ok := incoming.(store.Scalar); ok {
			if n, ok := in.V.(int); ok {
				sum += n
			}
		}
		return store.Scalar{V: sum}
	}
	e := newEngine(policy.Config{Types: map[string]policy.TypePolicy{
		"Counter": {Merge: map[string]policy.MergeFunc{"count": add}},
	}}, Options{})
	mem := store.NewMemory()

	query := `{ viewer { id __typename counters { __typename count } } }`
	data := func(counts ...any) map[string]any {
		items := make([]any, len(counts))
		for i, c := range counts {
			items[i] = map[string]any{"__typename": "Counter", "count": c}
		}
		return map[string]any{"viewer": map[string]any{
			"id": "1", "__typename": "User", "counters": items,
		}}
	}
	write(t, e, mem, query, data(1, 10), nil)
	write(t, e, mem, query, data(2, 20), nil)

	user := entity(t, mem, "User:1")
	want := store.List{
		store.Object{"__typename": store.Scalar{V: "Counter"}, "count": store.Scalar{V: 3}},
		store.Object{"__typename": store.Scalar{V: "Counter"}, "count": store.Scalar{V: 30}},
	}
	if diff := cmp.Diff(want, user["counters"]); diff != "" {
		t.Fatalf("counters (-want +got):\n%s", diff)
	}
}

func TestMergeFunctionMutationIsDetected(t *testing.T) {
	mutate := func(existing, incoming store.Value) store.Value {
		if ex, ok := existing.(store.Scalar); ok {
			if xs, ok := ex.V.([]any); ok && len(xs) > 0 {
				xs[0] = 99
			}
		}
		return incoming
	}
	cfg := policy.Config{Types: map[string]policy.TypePolicy{
		"Hero": {Merge: map[string]policy.MergeFunc{"powers": mutate}},
	}}
	data := map[string]any{
		"hero": map[string]any{"id": "1", "__typename": "Hero", "powers": []any{1, 2}},
	}
	query := `{ hero { id __typename powers } }`

	t.Run("strict profile fails the write", func(t *testing.T) {
		e := newEngine(cfg, Options{})
		mem := store.NewMemory()
		write(t, e, mem, query, data, nil)
		_, err := e.Write(context.Background(), Request{
			Document: mustParseQuery(t, query),
			Result:   data,
			Store:    mem,
		})
		var ce *ContractError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("unchecked profile skips detection", func(t *testing.T) {
		e := newEngine(cfg, Options{Unchecked: true})
		mem := store.NewMemory()
		write(t, e, mem, query, data, nil)
		_, err := e.Write(context.Background(), Request{
			Document: mustParseQuery(t, query),
			Result:   data,
			Store:    mem,
		})
		require.NoError(t, err)
	})
}
