package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// CoerceVariables checks the supplied variables against the operation's
// variable definitions, applies defaults and converts the values to their
// declared types.
func CoerceVariables(reg *registry.Registry, operation *ast.OperationDefinition, variableValues map[string]any) (map[string]any, *Error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, variableError(varDef, "Variable \"$%s\" of required type \"%s\" was not provided.", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, variableError(varDef, "Variable \"$%s\" of non-null type \"%s\" must not be null.", name, t.String())
		}
		cv, err := coerceValue(reg, val, typeRefFromAST(t))
		if err != nil {
			return nil, variableError(varDef, "Variable \"$%s\" got invalid value: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

func variableError(def *ast.VariableDefinition, format string, args ...any) *Error {
	return NewQueryError(QueryErrVariable, posOf(def.Position), nil, format, args...)
}

// valueFromAST converts an AST value to a Go value, substituting variables.
func valueFromAST(value *ast.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case ast.Variable:
		return variableValues[value.Raw]
	case ast.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, variableValues)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = valueFromAST(f.Value, variableValues)
		}
		return m
	default:
		return astValueToGo(value)
	}
}

// astValueToGo converts a constant AST value to a Go value
func astValueToGo(value *ast.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case ast.IntValue:
		iv, err := strconv.ParseInt(value.Raw, 10, 64)
		if err != nil {
			fv, _ := strconv.ParseFloat(value.Raw, 64)
			return fv
		}
		return int(iv)
	case ast.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case ast.StringValue, ast.BlockValue:
		return value.Raw
	case ast.BooleanValue:
		return value.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.EnumValue:
		return EnumValue(value.Raw)
	case ast.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

func typeRefFromAST(t *ast.Type) *registry.TypeRef {
	var ref *registry.TypeRef
	if t.Elem != nil {
		ref = registry.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = registry.NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = registry.NonNullType(ref)
	}
	return ref
}

// coerceValue coerces a value to the specified GraphQL type
func coerceValue(reg *registry.Registry, value any, targetType *registry.TypeRef) (any, error) {
	if targetType.IsNonNull() {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(reg, value, targetType.OfType)
	}
	if value == nil {
		return nil, nil
	}
	if targetType.Kind == registry.TypeRefKindList {
		return coerceListValue(reg, value, targetType)
	}

	namedType := targetType.NamedType()
	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	t := reg.Types[namedType]
	if t == nil {
		return nil, fmt.Errorf("unknown type %q", namedType)
	}
	switch t.Kind {
	case registry.TypeKindEnum:
		return coerceToEnum(t, value)
	case registry.TypeKindInputObject:
		return coerceInputObject(reg, t, value)
	case registry.TypeKindScalar:
		if t.IsValid != nil && !t.IsValid(value) {
			return nil, fmt.Errorf("invalid value %s for scalar %s", registry.RenderValue(value), t.Name)
		}
		return value, nil
	}
	return nil, fmt.Errorf("type %s is not an input type", namedType)
}

// coerceListValue coerces a value to a list
func coerceListValue(reg *registry.Registry, value any, listType *registry.TypeRef) (any, error) {
	innerType := listType.OfType
	if slice, ok := value.([]any); ok {
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(reg, item, innerType)
			if err != nil {
				return nil, err
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	// Single value becomes a list of one
	coercedItem, err := coerceValue(reg, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func coerceInputObject(reg *registry.Registry, t *registry.MetaType, value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for %s", t.Name)
	}
	for key := range m {
		if t.InputField(key) == nil {
			return nil, fmt.Errorf("field %q is not defined by type %s", key, t.Name)
		}
	}
	out := make(map[string]any, len(t.InputFields))
	for _, f := range t.InputFields {
		v, present := m[f.Name]
		if !present {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if f.Type.IsNonNull() {
				return nil, fmt.Errorf("field %s.%s of required type %s was not provided", t.Name, f.Name, f.Type)
			}
			continue
		}
		cv, err := coerceValue(reg, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name, f.Name, err)
		}
		out[f.Name] = cv
	}
	return out, nil
}

func coerceToEnum(t *registry.MetaType, value any) (any, error) {
	var name string
	switch v := value.(type) {
	case EnumValue:
		name = string(v)
	case string:
		name = v
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, t.Name)
	}
	if t.EnumValue(name) == nil {
		return nil, fmt.Errorf("value %q does not exist in enum %s", name, t.Name)
	}
	return EnumValue(name), nil
}

func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot coerce %v to int", v)
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %v to int", v)
		}
		n = i
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("%d is out of range for Int", n)
	}
	return int(n), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to string", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return v.String(), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
