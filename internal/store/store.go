// Package store holds the normalized entity store: the Value variant that
// field maps are built from, the EntityStore contract the write engine
// targets, and an in-memory reference implementation.
package store

// Well-known root entity keys. Top-level results of an operation are written
// under these keys unless the caller chooses its own target.
const (
	RootQuery        = "ROOT_QUERY"
	RootMutation     = "ROOT_MUTATION"
	RootSubscription = "ROOT_SUBSCRIPTION"
)

// TypenameKey is the storage key holding an entity's concrete type name.
const TypenameKey = "__typename"

// EntityStore maps entity keys to field maps. The write engine only ever
// performs point reads and merge-on-write commits; eviction, compaction, and
// concurrency control beyond that are the store's own concern. Operations
// must complete synchronously and be linearizable with respect to each other
// within one write.
type EntityStore interface {
	// Get returns the field map stored under key. The returned object is
	// owned by the store; callers must not mutate it.
	Get(key string) (Object, bool)

	// GetField returns a single field of the entity stored under key.
	GetField(key, storageKey string) (Value, bool)

	// Merge commits fields under key with merge-on-write semantics: new
	// fields overwrite scalars and references, nested objects merge key by
	// key, lists merge by position. The store takes ownership of fields.
	Merge(key string, fields Object)

	// RetainRoot marks key as externally anchored so that eviction keeps it
	// and everything reachable from it.
	RetainRoot(key string)
}
