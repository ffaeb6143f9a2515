package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryMergeOnWrite(t *testing.T) {
	m := NewMemory()
	m.Merge("User:1", Object{"name": Scalar{V: "A"}, "pet": Ref{Key: "Pet:9"}})
	m.Merge("User:1", Object{"name": Scalar{V: "B"}})

	obj, ok := m.Get("User:1")
	if !ok {
		t.Fatal("User:1 not stored")
	}
	want := Object{"name": Scalar{V: "B"}, "pet": Ref{Key: "Pet:9"}}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Fatalf("merged entity mismatch (-want +got):\n%s", diff)
	}

	v, ok := m.GetField("User:1", "pet")
	if !ok || !Equal(v, Ref{Key: "Pet:9"}) {
		t.Fatalf("GetField pet = %#v, %v", v, ok)
	}
	if _, ok := m.GetField("User:1", "missing"); ok {
		t.Fatal("GetField reported a missing field as present")
	}
	if _, ok := m.GetField("User:2", "name"); ok {
		t.Fatal("GetField reported a missing entity as present")
	}
}

func TestMemoryGC(t *testing.T) {
	m := NewMemory()
	m.Merge(RootQuery, Object{"user": Ref{Key: "User:1"}})
	m.Merge("User:1", Object{"pets": List{Ref{Key: "Pet:9"}}})
	m.Merge("Pet:9", Object{"kind": Scalar{V: "cat"}})
	m.Merge("Orphan:1", Object{"x": Scalar{V: 1}})
	m.RetainRoot(RootQuery)

	removed := m.GC()
	if diff := cmp.Diff([]string{"Orphan:1"}, removed); diff != "" {
		t.Fatalf("gc removed mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.Get("Pet:9"); !ok {
		t.Fatal("reachable entity was collected")
	}

	m.ReleaseRoot(RootQuery)
	removed = m.GC()
	if len(removed) != 3 {
		t.Fatalf("expected full collection after release, removed %v", removed)
	}
}

func TestMemoryExtractIsDetached(t *testing.T) {
	m := NewMemory()
	m.Merge("User:1", Object{"name": Scalar{V: "A"}})
	snapshot := m.Extract()
	snapshot["User:1"]["name"] = Scalar{V: "mutated"}

	v, _ := m.GetField("User:1", "name")
	if !Equal(v, Scalar{V: "A"}) {
		t.Fatalf("mutating the extract leaked into the store: %#v", v)
	}
}
