package registry

import "strings"

// CreateFederationTypes adds the federation support types and root fields.
// `_service` is always added to the query root; `_Entity` and `_entities`
// only when at least one entity has been registered. Call it after every
// user type is registered.
func (r *Registry) CreateFederationTypes() {
	r.CreateType("String", func(*Registry) *MetaType { return BuiltinScalar("String") })
	r.CreateType("_Any", func(*Registry) *MetaType { return AnyScalar() })
	r.CreateType("_Service", func(*Registry) *MetaType {
		return &MetaType{
			Kind: TypeKindObject,
			Name: "_Service",
			Fields: []*MetaField{
				{Name: "sdl", Type: NamedType("String")},
			},
		}
	})

	query := r.Types[r.QueryType]
	if query == nil {
		return
	}
	query.AddField(&MetaField{Name: "_service", Type: NonNullType(NamedType("_Service"))})

	entities := r.Entities()
	if len(entities) == 0 {
		return
	}
	r.Types["_Entity"] = &MetaType{
		Kind:          TypeKindUnion,
		Name:          "_Entity",
		PossibleTypes: entities,
	}
	query.AddField(&MetaField{
		Name: "_entities",
		Args: []*MetaInputValue{
			{Name: "representations", Type: NonNullType(ListType(NonNullType(NamedType("_Any"))))},
		},
		Type: NonNullType(ListType(NamedType("_Entity"))),
	})
}

// AnyScalar returns the metadata of the federation `_Any` scalar.
func AnyScalar() *MetaType {
	return &MetaType{
		Kind:        TypeKindScalar,
		Name:        "_Any",
		Description: "The `_Any` scalar is used to pass representations of entities from external services into the root `_entities` field for execution.",
		IsValid:     func(any) bool { return true },
	}
}

// KeyFields returns the top-level field names of a @key field set such as
// "upc sku" or "id organization { id }".
func KeyFields(fieldSet string) []string {
	var out []string
	depth := 0
	for _, tok := range strings.FieldsFunc(fieldSet, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' }) {
		for tok != "" {
			switch {
			case strings.HasPrefix(tok, "{"):
				depth++
				tok = tok[1:]
			case strings.HasPrefix(tok, "}"):
				depth--
				tok = tok[1:]
			default:
				name := tok
				if i := strings.IndexAny(tok, "{}"); i >= 0 {
					name, tok = tok[:i], tok[i:]
				} else {
					tok = ""
				}
				if depth == 0 {
					out = append(out, name)
				}
			}
		}
	}
	return out
}
