package policy

import (
	"encoding/json"
	"fmt"

	language "github.com/hanpama/normgraph/internal/language"
	store "github.com/hanpama/normgraph/internal/store"
)

// TypePolicy configures normalization for one object type.
type TypePolicy struct {
	// KeyFields are the fields whose values identify an entity of this
	// type. Empty means the default: "id", then "_id".
	KeyFields []string

	// Merge maps field names to custom merge functions.
	Merge map[string]MergeFunc
}

// Config configures a TypePolicies provider.
type Config struct {
	// Types maps concrete type names to their policies.
	Types map[string]TypePolicy

	// PossibleTypes maps an interface or union name to its concrete member
	// type names, used for fragment type matching.
	PossibleTypes map[string][]string

	// StrictPossibleTypes enables missing-field warnings.
	StrictPossibleTypes bool
}

// TypePolicies is the default Provider: key-field identity, canonical
// argument encoding for storage keys, and table-driven abstract-type
// matching.
type TypePolicies struct {
	types    map[string]TypePolicy
	possible map[string]map[string]bool
	strict   bool
}

func NewTypePolicies(cfg Config) *TypePolicies {
	possible := make(map[string]map[string]bool, len(cfg.PossibleTypes))
	for abstract, members := range cfg.PossibleTypes {
		set := make(map[string]bool, len(members))
		for _, m := range members {
			set[m] = true
		}
		possible[abstract] = set
	}
	return &TypePolicies{types: cfg.Types, possible: possible, strict: cfg.StrictPossibleTypes}
}

func (p *TypePolicies) DefaultTypeName(key string) (string, bool) {
	switch key {
	case store.RootQuery:
		return "Query", true
	case store.RootMutation:
		return "Mutation", true
	case store.RootSubscription:
		return "Subscription", true
	}
	return "", false
}

func (p *TypePolicies) Identify(obj map[string]any, selections language.SelectionSet, fragments language.FragmentDefinitionList) (string, bool) {
	typeName := typenameOf(obj, selections)
	if typeName == "" {
		return "", false
	}

	keyFields := p.types[typeName].KeyFields
	if len(keyFields) == 0 {
		keyFields = p.defaultKeyFields(typeName, obj, selections, fragments)
		if len(keyFields) == 0 {
			return "", false
		}
	}

	values := make(map[string]any, len(keyFields))
	for _, f := range keyFields {
		v, ok := p.resultFieldValue(obj, selections, fragments, typeName, f)
		if !ok {
			return "", false
		}
		values[f] = v
	}

	if len(keyFields) == 1 {
		if s, ok := values[keyFields[0]].(string); ok {
			return typeName + ":" + s, true
		}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", false
	}
	return typeName + ":" + string(encoded), true
}

// typenameOf reads __typename from a result object, also accepting an
// aliased occurrence from this query's selections.
func typenameOf(obj map[string]any, selections language.SelectionSet) string {
	if tn, ok := obj[store.TypenameKey].(string); ok && tn != "" {
		return tn
	}
	for _, sel := range selections {
		f, ok := sel.(*language.Field)
		if !ok || f.Name != store.TypenameKey || f.Alias == "" {
			continue
		}
		if tn, ok := obj[f.Alias].(string); ok && tn != "" {
			return tn
		}
	}
	return ""
}

// defaultKeyFields picks "id" or "_id" when the object carries one.
func (p *TypePolicies) defaultKeyFields(typeName string, obj map[string]any, selections language.SelectionSet, fragments language.FragmentDefinitionList) []string {
	for _, candidate := range []string{"id", "_id"} {
		if _, ok := p.resultFieldValue(obj, selections, fragments, typeName, candidate); ok {
			return []string{candidate}
		}
	}
	return nil
}

// resultFieldValue finds the value of the logical field name in a result
// object, following the alias used by this query occurrence and descending
// into matching fragments.
func (p *TypePolicies) resultFieldValue(obj map[string]any, selections language.SelectionSet, fragments language.FragmentDefinitionList, typeName, name string) (any, bool) {
	for _, sel := range selections {
		switch s := sel.(type) {
		case *language.Field:
			if s.Name != name {
				continue
			}
			key := s.Alias
			if key == "" {
				key = s.Name
			}
			if v, ok := obj[key]; ok {
				return v, true
			}
		case *language.InlineFragment:
			if s.TypeCondition != "" && !p.FragmentMatches(s.TypeCondition, typeName) {
				continue
			}
			if v, ok := p.resultFieldValue(obj, s.SelectionSet, fragments, typeName, name); ok {
				return v, true
			}
		case *language.FragmentSpread:
			frag := fragments.ForName(s.Name)
			if frag == nil || !p.FragmentMatches(frag.TypeCondition, typeName) {
				continue
			}
			if v, ok := p.resultFieldValue(obj, frag.SelectionSet, fragments, typeName, name); ok {
				return v, true
			}
		}
	}
	// Unaliased occurrence may not appear in the selection set at all (e.g.
	// identity supplied by the caller); fall back to the plain field name.
	if v, ok := obj[name]; ok {
		return v, true
	}
	return nil, false
}

func (p *TypePolicies) StorageKey(typeName string, field *language.Field, variables map[string]any) string {
	key := field.Name
	if len(field.Arguments) > 0 {
		args := make(map[string]any, len(field.Arguments))
		for _, a := range field.Arguments {
			args[a.Name] = language.ValueToGo(a.Value, variables)
		}
		// json.Marshal sorts map keys, giving an order-independent encoding.
		encoded, err := json.Marshal(args)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%v", args))
		}
		key += "(" + string(encoded) + ")"
	}
	if field.Alias != "" && field.Alias != field.Name {
		key = field.Alias + ":" + key
	}
	return key
}

func (p *TypePolicies) MergeFunc(typeName string, field *language.Field, variables map[string]any) (MergeFunc, bool) {
	fn, ok := p.types[typeName].Merge[field.Name]
	return fn, ok && fn != nil
}

func (p *TypePolicies) FragmentMatches(condition, typeName string) bool {
	if condition == "" {
		return true
	}
	if typeName == "" {
		return false
	}
	if condition == typeName {
		return true
	}
	return p.possible[condition][typeName]
}

func (p *TypePolicies) StrictPossibleTypes() bool { return p.strict }
