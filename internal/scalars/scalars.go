// Package scalars implements the built-in GraphQL scalars and the `_Any`
// and Upload scalars as executor input and output types.
package scalars

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

func builtin(r *registry.Registry, name string) string {
	return r.CreateType(name, func(*registry.Registry) *registry.MetaType {
		return registry.BuiltinScalar(name)
	})
}

// String is the GraphQL String scalar.
type String string

var (
	_ executor.InputType  = (*String)(nil)
	_ executor.OutputType = String("")
)

func (String) TypeName() string                           { return "String" }
func (String) CreateTypeInfo(r *registry.Registry) string { return builtin(r, "String") }
func (s String) ToValue() any                             { return string(s) }

func (s String) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return string(s), nil
}

func (s *String) ParseValue(v any) error {
	str, ok := v.(string)
	if !ok {
		return executor.ExpectedType(v)
	}
	*s = String(str)
	return nil
}

// Int is the GraphQL Int scalar, a signed 32-bit integer.
type Int int32

var (
	_ executor.InputType  = (*Int)(nil)
	_ executor.OutputType = Int(0)
)

func (Int) TypeName() string                           { return "Int" }
func (Int) CreateTypeInfo(r *registry.Registry) string { return builtin(r, "Int") }
func (i Int) ToValue() any                             { return int(i) }

func (i Int) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return int(i), nil
}

func (i *Int) ParseValue(v any) error {
	n, ok := toInt64(v)
	if !ok {
		return executor.ExpectedType(v)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return executor.NewInputValueError("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	*i = Int(n)
	return nil
}

// Float is the GraphQL Float scalar.
type Float float64

var (
	_ executor.InputType  = (*Float)(nil)
	_ executor.OutputType = Float(0)
)

func (Float) TypeName() string                           { return "Float" }
func (Float) CreateTypeInfo(r *registry.Registry) string { return builtin(r, "Float") }
func (f Float) ToValue() any                             { return float64(f) }

func (f Float) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return float64(f), nil
}

func (f *Float) ParseValue(v any) error {
	switch x := v.(type) {
	case float64:
		*f = Float(x)
	case float32:
		*f = Float(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return executor.ExpectedType(v)
		}
		*f = Float(n)
	default:
		n, ok := toInt64(v)
		if !ok {
			return executor.ExpectedType(v)
		}
		*f = Float(n)
	}
	return nil
}

// Boolean is the GraphQL Boolean scalar.
type Boolean bool

var (
	_ executor.InputType  = (*Boolean)(nil)
	_ executor.OutputType = Boolean(false)
)

func (Boolean) TypeName() string                           { return "Boolean" }
func (Boolean) CreateTypeInfo(r *registry.Registry) string { return builtin(r, "Boolean") }
func (b Boolean) ToValue() any                             { return bool(b) }

func (b Boolean) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return bool(b), nil
}

func (b *Boolean) ParseValue(v any) error {
	x, ok := v.(bool)
	if !ok {
		return executor.ExpectedType(v)
	}
	*b = Boolean(x)
	return nil
}

// ID is the GraphQL ID scalar. It accepts string and integer input and
// always serializes as a string.
type ID string

var (
	_ executor.InputType  = (*ID)(nil)
	_ executor.OutputType = ID("")
)

func (ID) TypeName() string                           { return "ID" }
func (ID) CreateTypeInfo(r *registry.Registry) string { return builtin(r, "ID") }
func (id ID) ToValue() any                            { return string(id) }

func (id ID) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return string(id), nil
}

func (id *ID) ParseValue(v any) error {
	if s, ok := v.(string); ok {
		*id = ID(s)
		return nil
	}
	if _, isFloat := v.(float64); !isFloat {
		if n, ok := toInt64(v); ok {
			*id = ID(strconv.FormatInt(n, 10))
			return nil
		}
	}
	return executor.ExpectedType(v)
}

func toInt64(v any) (int64, bool) {
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
