// Package writer implements the normalizing write path: it walks a GraphQL
// result tree in lock-step with the query's selection sets and commits the
// data into a flat, reference-linked entity store.
//
// # Overview
//
// A write turns a (query shape, result tree, variable bindings) triple into
// a set of store mutations. Objects carrying a stable identity are pulled
// out of the tree and written as top-level entities; the position they came
// from keeps a reference by key. The same logical entity reached through two
// different queries therefore ends up as one store record whose fields
// accumulate across writes.
//
// # Components
//
// The engine is a recursive co-traversal with four cooperating parts:
//
//   - Selection-set writer: commits one entity's contribution for one
//     selection set. It resolves the concrete type name, delegates to the
//     processor, runs the override pass when needed, and merges the result
//     into the store. A per-write dedup table makes revisiting the same
//     (entity key, selection set) pair a strict no-op, not merely cheap;
//     the same fragment is commonly reachable through two branches of a
//     polymorphic field.
//
//   - Selection-set processor: folds all fields and fragments of one
//     selection set into a single field map plus a sparse tree of
//     custom-merge obligations. Fields are gated by @skip/@include (with
//     variable-valued arguments), fragments by type-condition matching
//     through the policy provider. A fragment that does not match
//     contributes nothing, including diagnostics. Values accumulate
//     structurally: objects key by key, lists by position, scalars replaced.
//
//   - Field-value processor: classifies a single value. A value without a
//     sub-selection (or null) is a scalar leaf, deep-copied by default so
//     stored data never aliases the caller's input. Lists recurse
//     element-wise, sharing the field's selection set. Objects with a
//     sub-selection are offered to the policy provider for identification:
//     with an entity key the object is normalized out and replaced by a
//     reference, without one it is embedded in place.
//
//   - Merge-override walker: a post-pass applying custom merge functions
//     after the structural merge has produced default values. It walks the
//     overrides tree depth-first, children before parents, handing each
//     function the true pre-write stored value and the incoming value. In
//     the default profile the engine snapshots the existing value and fails
//     the write if the function mutated it.
//
// # Error model
//
// Two tiers only. A field absent from a result object is expected on
// heterogeneous shapes and surfaces, at most, as a warning diagnostic (and a
// FieldSkipped event), never as a failure. Contract violations (a merge
// function mutating its existing argument, a malformed selection node) fail
// fast with a *ContractError; detection of the former is skipped when
// Options.Unchecked is set. The engine performs no I/O and never retries.
// Entities committed by earlier sub-calls of the same write are not rolled
// back when a later sibling fails.
//
// # Concurrency
//
// One write is a single synchronous unit of work with no internal
// concurrency and no suspension points. The write context, its dedup table
// and its override trees are exclusively owned by the call that created
// them. Callers must serialize writes against a shared store, or rely on
// the store's own locking.
package writer
