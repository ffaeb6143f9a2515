package store

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeValues(t *testing.T) {
	t.Run("objects merge key by key", func(t *testing.T) {
		existing := Object{"a": Scalar{V: 1}, "b": Scalar{V: 2}}
		incoming := Object{"b": Scalar{V: 3}, "c": Scalar{V: 4}}
		got := MergeValues(existing, incoming)
		want := Object{"a": Scalar{V: 1}, "b": Scalar{V: 3}, "c": Scalar{V: 4}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("merged object mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("lists merge by position, incoming decides length", func(t *testing.T) {
		existing := List{Object{"a": Scalar{V: 1}}, Scalar{V: "x"}, Scalar{V: "y"}}
		incoming := List{Object{"b": Scalar{V: 2}}, Scalar{V: "z"}}
		got := MergeValues(existing, incoming)
		want := List{Object{"a": Scalar{V: 1}, "b": Scalar{V: 2}}, Scalar{V: "z"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("merged list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("scalars and refs are replaced", func(t *testing.T) {
		if got := MergeValues(Scalar{V: 1}, Scalar{V: 2}); !Equal(got, Scalar{V: 2}) {
			t.Fatalf("scalar not replaced: %#v", got)
		}
		if got := MergeValues(Ref{Key: "A:1"}, Ref{Key: "A:2"}); !Equal(got, Ref{Key: "A:2"}) {
			t.Fatalf("ref not replaced: %#v", got)
		}
	})

	t.Run("kind mismatch replaces", func(t *testing.T) {
		got := MergeValues(Object{"a": Scalar{V: 1}}, Scalar{V: "now a leaf"})
		if !Equal(got, Scalar{V: "now a leaf"}) {
			t.Fatalf("mismatched kinds not replaced: %#v", got)
		}
	})

	t.Run("nil sides", func(t *testing.T) {
		if got := MergeValues(nil, Scalar{V: 1}); !Equal(got, Scalar{V: 1}) {
			t.Fatalf("nil existing: %#v", got)
		}
		if got := MergeValues(Scalar{V: 1}, nil); !Equal(got, Scalar{V: 1}) {
			t.Fatalf("nil incoming: %#v", got)
		}
	})
}

func TestCopyDoesNotAlias(t *testing.T) {
	leaf := map[string]any{"nested": []any{1, 2}}
	original := Object{"a": Scalar{V: leaf}, "l": List{Scalar{V: "x"}}}
	copied := Copy(original).(Object)

	leaf["nested"].([]any)[0] = 99
	leaf["mutated"] = true

	want := Object{
		"a": Scalar{V: map[string]any{"nested": []any{1, 2}}},
		"l": List{Scalar{V: "x"}},
	}
	if diff := cmp.Diff(want, copied); diff != "" {
		t.Fatalf("copy aliases original (-want +got):\n%s", diff)
	}
}

func TestValueJSON(t *testing.T) {
	obj := Object{
		"name": Scalar{V: "A"},
		"pet":  Ref{Key: "Pet:9"},
		"tags": List{Scalar{V: "x"}},
	}
	b, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"A","pet":{"__ref":"Pet:9"},"tags":["x"]}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}
