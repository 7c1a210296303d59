package executor

import (
	"iter"

	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// Type is implemented by every type taking part in a schema.
//
// Contract
//   - TypeName returns the stable GraphQL name of the type.
//   - CreateTypeInfo registers the type's metadata through
//     registry.CreateType and returns the registered name. It is called on
//     zero values, so it must not depend on receiver state, and calling it
//     more than once for the same registry must be harmless.
type Type interface {
	TypeName() string
	CreateTypeInfo(r *registry.Registry) string
}

// OutputType converts a value into its JSON-shaped result.
//
// Leaf types return their serialized value directly. Composite types
// resolve the selection set of ctx, usually through ResolveObject. The
// returned value must be safe to marshal with encoding/json.
type OutputType interface {
	Type
	Resolve(ctx *SelectionContext, field *ast.Field) (any, error)
}

// InputType parses input values. ParseValue is called on a pointer to a zero
// value; nil stands for an absent or null input. ToValue is the inverse and
// must round-trip every accepted value, except for write-only types, which
// return nil.
type InputType interface {
	Type
	ParseValue(value any) error
	ToValue() any
}

// ObjectType resolves the individual fields of a composite value.
//
// ResolveField is called once per requested field with the field's context.
// A returned error makes the field null when its type is nullable and fails
// the enclosing object otherwise. Implementations must not retain ctx.
type ObjectType interface {
	OutputType
	ResolveField(ctx *FieldContext) (any, error)
}

// SubscriptionType produces event streams for the root fields of a
// subscription operation.
//
// The stream yields resolved values or errors; it ends when the producer
// returns or the consumer stops iterating. IsEmpty reports a placeholder
// root that has no fields.
type SubscriptionType interface {
	Type
	IsEmpty() bool
	CreateFieldStream(ctx *FieldContext) iter.Seq2[any, error]
}

// EntityResolver is implemented by a query root serving federated entities.
//
// FindEntity receives one representation from `_entities`, which always
// carries the entity type name under "__typename", and returns the resolved
// entity, typically via ResolveOutput.
type EntityResolver interface {
	FindEntity(ctx *FieldContext, representation map[string]any) (any, error)
}

// Emptiable is implemented by placeholder root types without fields.
type Emptiable interface {
	IsEmpty() bool
}

// RegisterType registers T's metadata and returns its name.
func RegisterType[T Type](r *registry.Registry) string {
	var zero T
	return zero.CreateTypeInfo(r)
}

// EnumValue is an enum literal taken from a query document or coerced from
// a variable.
type EnumValue string
