package introspection

import "github.com/hanpama/graphcore/internal/registry"

// registerTypes adds the introspection types and the scalars they use.
func registerTypes(r *registry.Registry) {
	for _, name := range []string{"String", "Boolean"} {
		r.CreateType(name, func(*registry.Registry) *registry.MetaType { return registry.BuiltinScalar(name) })
	}
	for _, build := range []func() *registry.MetaType{
		schemaType,
		typeType,
		fieldType,
		inputValueType,
		enumValueType,
		directiveType,
		typeKindEnum,
		directiveLocationEnum,
	} {
		t := build()
		r.CreateType(t.Name, func(*registry.Registry) *registry.MetaType { return t })
	}
}

// schemaType returns the __Schema introspection type definition
func schemaType() *registry.MetaType {
	return &registry.MetaType{
		Name:        "__Schema",
		Kind:        registry.TypeKindObject,
		Description: "A GraphQL Schema defines the capabilities of a GraphQL server.",
		Fields: []*registry.MetaField{
			{
				Name:        "types",
				Description: "A list of all types supported by this server.",
				Type:        registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType("__Type")))),
			},
			{
				Name:        "queryType",
				Description: "The type that query operations will be rooted at.",
				Type:        registry.NonNullType(registry.NamedType("__Type")),
			},
			{
				Name:        "mutationType",
				Description: "If this server supports mutation, the type that mutation operations will be rooted at.",
				Type:        registry.NamedType("__Type"),
			},
			{
				Name:        "subscriptionType",
				Description: "If this server support subscription, the type that subscription operations will be rooted at.",
				Type:        registry.NamedType("__Type"),
			},
			{
				Name:        "directives",
				Description: "A list of all directives supported by this server.",
				Type:        registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType("__Directive")))),
			},
			{
				Name:        "description",
				Description: "A description of the schema.",
				Type:        registry.NamedType("String"),
			},
		},
	}
}

// typeType returns the __Type introspection type definition
func typeType() *registry.MetaType {
	return &registry.MetaType{
		Name:        "__Type",
		Kind:        registry.TypeKindObject,
		Description: "The fundamental unit of any GraphQL Schema is the type.",
		Fields: []*registry.MetaField{
			{
				Name:        "kind",
				Description: "The kind of type.",
				Type:        registry.NonNullType(registry.NamedType("__TypeKind")),
			},
			{
				Name:        "name",
				Description: "The name of the type.",
				Type:        registry.NamedType("String"),
			},
			{
				Name:        "description",
				Description: "The description of the type.",
				Type:        registry.NamedType("String"),
			},
			{
				Name: "fields",
				Args: []*registry.MetaInputValue{
					{
						Name:         "includeDeprecated",
						Type:         registry.NamedType("Boolean"),
						DefaultValue: false,
					},
				},
				Type: registry.ListType(registry.NonNullType(registry.NamedType("__Field"))),
			},
			{
				Name: "interfaces",
				Type: registry.ListType(registry.NonNullType(registry.NamedType("__Type"))),
			},
			{
				Name: "possibleTypes",
				Type: registry.ListType(registry.NonNullType(registry.NamedType("__Type"))),
			},
			{
				Name: "enumValues",
				Args: []*registry.MetaInputValue{
					{
						Name:         "includeDeprecated",
						Type:         registry.NamedType("Boolean"),
						DefaultValue: false,
					},
				},
				Type: registry.ListType(registry.NonNullType(registry.NamedType("__EnumValue"))),
			},
			{
				Name: "inputFields",
				Args: []*registry.MetaInputValue{
					{
						Name:         "includeDeprecated",
						Type:         registry.NamedType("Boolean"),
						DefaultValue: false,
					},
				},
				Type: registry.ListType(registry.NonNullType(registry.NamedType("__InputValue"))),
			},
			{
				Name: "ofType",
				Type: registry.NamedType("__Type"),
			},
			{
				Name: "specifiedByURL",
				Type: registry.NamedType("String"),
			},
		},
	}
}

// fieldType returns the __Field introspection type definition
func fieldType() *registry.MetaType {
	return &registry.MetaType{
		Name: "__Field",
		Kind: registry.TypeKindObject,
		Fields: []*registry.MetaField{
			{Name: "name", Type: registry.NonNullType(registry.NamedType("String"))},
			{Name: "description", Type: registry.NamedType("String")},
			{
				Name: "args",
				Args: []*registry.MetaInputValue{
					{Name: "includeDeprecated", Type: registry.NamedType("Boolean"), DefaultValue: false},
				},
				Type: registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType("__InputValue")))),
			},
			{Name: "type", Type: registry.NonNullType(registry.NamedType("__Type"))},
			{Name: "isDeprecated", Type: registry.NonNullType(registry.NamedType("Boolean"))},
			{Name: "deprecationReason", Type: registry.NamedType("String")},
		},
	}
}

// inputValueType returns the __InputValue introspection type definition
func inputValueType() *registry.MetaType {
	return &registry.MetaType{
		Name: "__InputValue",
		Kind: registry.TypeKindObject,
		Fields: []*registry.MetaField{
			{Name: "name", Type: registry.NonNullType(registry.NamedType("String"))},
			{Name: "description", Type: registry.NamedType("String")},
			{Name: "type", Type: registry.NonNullType(registry.NamedType("__Type"))},
			{Name: "defaultValue", Type: registry.NamedType("String")},
			{Name: "isDeprecated", Type: registry.NonNullType(registry.NamedType("Boolean"))},
			{Name: "deprecationReason", Type: registry.NamedType("String")},
		},
	}
}

// enumValueType returns the __EnumValue introspection type definition
func enumValueType() *registry.MetaType {
	return &registry.MetaType{
		Name: "__EnumValue",
		Kind: registry.TypeKindObject,
		Fields: []*registry.MetaField{
			{Name: "name", Type: registry.NonNullType(registry.NamedType("String"))},
			{Name: "description", Type: registry.NamedType("String")},
			{Name: "isDeprecated", Type: registry.NonNullType(registry.NamedType("Boolean"))},
			{Name: "deprecationReason", Type: registry.NamedType("String")},
		},
	}
}

// directiveType returns the __Directive introspection type definition
func directiveType() *registry.MetaType {
	return &registry.MetaType{
		Name: "__Directive",
		Kind: registry.TypeKindObject,
		Fields: []*registry.MetaField{
			{Name: "name", Type: registry.NonNullType(registry.NamedType("String"))},
			{Name: "description", Type: registry.NamedType("String")},
			{Name: "isRepeatable", Type: registry.NonNullType(registry.NamedType("Boolean"))},
			{Name: "locations", Type: registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType("__DirectiveLocation"))))},
			{
				Name: "args",
				Args: []*registry.MetaInputValue{
					{Name: "includeDeprecated", Type: registry.NamedType("Boolean"), DefaultValue: false},
				},
				Type: registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType("__InputValue")))),
			},
		},
	}
}

// typeKindEnum returns the __TypeKind enum type definition
func typeKindEnum() *registry.MetaType {
	return &registry.MetaType{
		Name: "__TypeKind",
		Kind: registry.TypeKindEnum,
		EnumValues: []*registry.MetaEnumValue{
			{Name: "SCALAR"},
			{Name: "OBJECT"},
			{Name: "INTERFACE"},
			{Name: "UNION"},
			{Name: "ENUM"},
			{Name: "INPUT_OBJECT"},
			{Name: "LIST"},
			{Name: "NON_NULL"},
		},
	}
}

// directiveLocationEnum returns the __DirectiveLocation enum type definition
func directiveLocationEnum() *registry.MetaType {
	return &registry.MetaType{
		Name: "__DirectiveLocation",
		Kind: registry.TypeKindEnum,
		EnumValues: []*registry.MetaEnumValue{
			{Name: "QUERY"},
			{Name: "MUTATION"},
			{Name: "SUBSCRIPTION"},
			{Name: "FIELD"},
			{Name: "FRAGMENT_DEFINITION"},
			{Name: "FRAGMENT_SPREAD"},
			{Name: "INLINE_FRAGMENT"},
			{Name: "VARIABLE_DEFINITION"},
			{Name: "SCHEMA"},
			{Name: "SCALAR"},
			{Name: "OBJECT"},
			{Name: "FIELD_DEFINITION"},
			{Name: "ARGUMENT_DEFINITION"},
			{Name: "INTERFACE"},
			{Name: "UNION"},
			{Name: "ENUM"},
			{Name: "ENUM_VALUE"},
			{Name: "INPUT_OBJECT"},
			{Name: "INPUT_FIELD_DEFINITION"},
		},
	}
}
