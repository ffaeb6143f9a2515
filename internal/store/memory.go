package store

import (
	"sort"
	"sync"
)

// Memory is the in-memory EntityStore. It guards itself with a mutex so a
// store instance may be shared, but the write engine still assumes logical
// exclusivity for the duration of one write; callers overlapping writes must
// serialize them.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
	roots   map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]Object),
		roots:   make(map[string]int),
	}
}

func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func (m *Memory) GetField(key, storageKey string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	v, ok := obj[storageKey]
	return v, ok
}

func (m *Memory) Merge(key string, fields Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.objects[key]
	if !ok {
		m.objects[key] = fields
		return
	}
	for k, v := range fields {
		existing[k] = MergeValues(existing[k], v)
	}
}

func (m *Memory) RetainRoot(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roots[key]++
}

// ReleaseRoot undoes one RetainRoot. A key whose retain count drops to zero
// becomes reclaimable by GC unless another root still reaches it.
func (m *Memory) ReleaseRoot(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roots[key] > 1 {
		m.roots[key]--
	} else {
		delete(m.roots, key)
	}
}

// GC removes every entity unreachable from the retained roots and returns
// the removed keys in sorted order.
func (m *Memory) GC() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := make(map[string]bool, len(m.roots))
	var visit func(key string)
	visit = func(key string) {
		if live[key] {
			return
		}
		live[key] = true
		var follow func(v Value)
		follow = func(v Value) {
			switch t := v.(type) {
			case Ref:
				visit(t.Key)
			case List:
				for _, e := range t {
					follow(e)
				}
			case Object:
				for _, e := range t {
					follow(e)
				}
			}
		}
		for _, v := range m.objects[key] {
			follow(v)
		}
	}
	for key := range m.roots {
		visit(key)
	}

	var removed []string
	for key := range m.objects {
		if !live[key] {
			removed = append(removed, key)
			delete(m.objects, key)
		}
	}
	sort.Strings(removed)
	return removed
}

// Extract returns a deep copy of the whole store contents, keyed by entity
// key. Intended for inspection and serialization.
func (m *Memory) Extract() map[string]Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Object, len(m.objects))
	for key, obj := range m.objects {
		out[key] = Copy(obj).(Object)
	}
	return out
}
