package writer

import (
	policy "github.com/hanpama/normgraph/internal/policy"
	store "github.com/hanpama/normgraph/internal/store"
)

// overrideNode is a sparse tree mirroring the field map under construction.
// A node may carry a merge function for its position, children keyed by
// storage key for object fields, and children keyed by index for list
// elements. It exists only between the structural-merge pass and the
// override-application pass of one write.
type overrideNode struct {
	fn     policy.MergeFunc
	fields map[string]*overrideNode
	items  map[int]*overrideNode
}

func newOverrideNode() *overrideNode {
	return &overrideNode{
		fields: make(map[string]*overrideNode),
		items:  make(map[int]*overrideNode),
	}
}

func (n *overrideNode) field(key string) *overrideNode {
	child := n.fields[key]
	if child == nil {
		child = newOverrideNode()
		n.fields[key] = child
	}
	return child
}

func (n *overrideNode) item(i int) *overrideNode {
	child := n.items[i]
	if child == nil {
		child = newOverrideNode()
		n.items[i] = child
	}
	return child
}

// absorb merges another node into n. Used when several selections (e.g. two
// fragments) contribute to the same storage key.
func (n *overrideNode) absorb(other *overrideNode) {
	if other == nil {
		return
	}
	if other.fn != nil {
		n.fn = other.fn
	}
	for key, child := range other.fields {
		n.field(key).absorb(child)
	}
	for i, child := range other.items {
		n.item(i).absorb(child)
	}
}

// applyOverrides walks the overrides tree depth-first and rewrites incoming
// in place. Children resolve before the node's own function, so a parent
// merge function sees finalized child values. Each function receives the
// true pre-write existing value at its position (nil on first write); its
// return value replaces the incoming position.
func (cx *writeContext) applyOverrides(existing, incoming store.Value, node *overrideNode) (store.Value, error) {
	if len(node.fields) > 0 {
		if in, ok := incoming.(store.Object); ok {
			ex, _ := existing.(store.Object)
			for key, child := range node.fields {
				resolved, err := cx.applyOverrides(ex[key], in[key], child)
				if err != nil {
					return nil, err
				}
				in[key] = resolved
			}
		}
	}
	if len(node.items) > 0 {
		if in, ok := incoming.(store.List); ok {
			ex, _ := existing.(store.List)
			for i, child := range node.items {
				if i < 0 || i >= len(in) {
					continue
				}
				var exAt store.Value
				if i < len(ex) {
					exAt = ex[i]
				}
				resolved, err := cx.applyOverrides(exAt, in[i], child)
				if err != nil {
					return nil, err
				}
				in[i] = resolved
			}
		}
	}

	if node.fn == nil {
		return incoming, nil
	}
	var snapshot store.Value
	if !cx.opts.Unchecked && existing != nil {
		snapshot = store.Copy(existing)
	}
	out := node.fn(existing, incoming)
	if snapshot != nil && !store.Equal(existing, snapshot) {
		return nil, &ContractError{Reason: "merge function mutated its existing argument"}
	}
	return out, nil
}
