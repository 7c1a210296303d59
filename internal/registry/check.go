package registry

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Check verifies that every type reference resolves and that federation keys
// name real fields. All problems are reported together.
func (r *Registry) Check() error {
	var result *multierror.Error

	if r.QueryType == "" || r.Types[r.QueryType] == nil {
		result = multierror.Append(result, fmt.Errorf("query root type %q is not registered", r.QueryType))
	}
	for _, root := range []string{r.MutationType, r.SubscriptionType} {
		if root != "" && r.Types[root] == nil {
			result = multierror.Append(result, fmt.Errorf("root type %q is not registered", root))
		}
	}

	names := make([]string, 0, len(r.Types))
	for name := range r.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := r.Types[name]
		for _, f := range t.Fields {
			if err := r.checkRef(f.Type, false); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s.%s: %w", name, f.Name, err))
			}
			for _, a := range f.Args {
				if err := r.checkRef(a.Type, true); err != nil {
					result = multierror.Append(result, fmt.Errorf("%s.%s(%s): %w", name, f.Name, a.Name, err))
				}
			}
		}
		for _, f := range t.InputFields {
			if err := r.checkRef(f.Type, true); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s.%s: %w", name, f.Name, err))
			}
		}
		if t.Kind == TypeKindUnion {
			for _, member := range t.PossibleTypes {
				if mt := r.Types[member]; mt == nil || mt.Kind != TypeKindObject {
					result = multierror.Append(result, fmt.Errorf("union %s: member %q is not an object type", name, member))
				}
			}
		}
		for _, key := range t.Keys {
			for _, field := range KeyFields(key) {
				if t.Field(field) == nil {
					result = multierror.Append(result, fmt.Errorf("entity %s: key field %q is not defined", name, field))
				}
			}
		}
		for _, iface := range r.Interfaces(name) {
			if it := r.Types[iface]; it == nil || it.Kind != TypeKindInterface {
				result = multierror.Append(result, fmt.Errorf("%s implements %q which is not an interface", name, iface))
			}
		}
	}
	return result.ErrorOrNil()
}

func (r *Registry) checkRef(ref *TypeRef, input bool) error {
	if ref == nil {
		return fmt.Errorf("missing type")
	}
	named := ref.NamedType()
	t := r.Types[named]
	if t == nil {
		return fmt.Errorf("unknown type %q", named)
	}
	if input && !t.IsInput() {
		return fmt.Errorf("type %q is not an input type", named)
	}
	if !input && t.Kind == TypeKindInputObject {
		return fmt.Errorf("type %q is an input type", named)
	}
	return nil
}
