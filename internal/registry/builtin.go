package registry

import (
	"encoding/json"
	"math"
)

var builtinScalarDescriptions = map[string]string{
	"String":  "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
	"Int":     "The `Int` scalar type represents non-fractional signed whole numeric values.",
	"Float":   "The `Float` scalar type represents signed double-precision fractional values.",
	"Boolean": "The `Boolean` scalar type represents `true` or `false`.",
	"ID":      "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
}

// IsBuiltinScalar reports whether name is one of the five specified scalars.
func IsBuiltinScalar(name string) bool {
	_, ok := builtinScalarDescriptions[name]
	return ok
}

// BuiltinScalar returns the metadata of a specified scalar, or nil for any
// other name.
func BuiltinScalar(name string) *MetaType {
	desc, ok := builtinScalarDescriptions[name]
	if !ok {
		return nil
	}
	return &MetaType{
		Kind:        TypeKindScalar,
		Name:        name,
		Description: desc,
		IsValid:     builtinValidators[name],
	}
}

var builtinValidators = map[string]func(any) bool{
	"String": func(v any) bool {
		_, ok := v.(string)
		return ok
	},
	"Int": func(v any) bool {
		n, ok := asInt64(v)
		return ok && n >= math.MinInt32 && n <= math.MaxInt32
	},
	"Float": func(v any) bool {
		_, ok := asFloat64(v)
		return ok
	},
	"Boolean": func(v any) bool {
		_, ok := v.(bool)
		return ok
	},
	"ID": func(v any) bool {
		if _, ok := v.(string); ok {
			return true
		}
		_, ok := asInt64(v)
		return ok
	},
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

var builtinDirectiveNames = map[string]struct{}{
	"include":     {},
	"skip":        {},
	"deprecated":  {},
	"specifiedBy": {},
}

func builtinDirectives() []*MetaDirective {
	return []*MetaDirective{
		{
			Name:        "include",
			Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
			Args: []*MetaInputValue{
				{Name: "if", Description: "Included when true.", Type: NonNullType(NamedType("Boolean"))},
			},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		},
		{
			Name:        "skip",
			Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
			Args: []*MetaInputValue{
				{Name: "if", Description: "Skipped when true.", Type: NonNullType(NamedType("Boolean"))},
			},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		},
		{
			Name:        "deprecated",
			Description: "Marks an element of a GraphQL schema as no longer supported.",
			Args: []*MetaInputValue{
				{Name: "reason", Type: NamedType("String"), DefaultValue: "No longer supported"},
			},
			Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
		},
	}
}
