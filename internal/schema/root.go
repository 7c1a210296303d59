package schema

import (
	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/introspection"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/vektah/gqlparser/v2/ast"
)

// QueryRoot wraps the user's query object and serves the root fields the
// schema adds to it: `__schema`, `__type`, `_entities` and `_service`.
// Every other field is delegated to the inner object.
type QueryRoot struct {
	inner         executor.ObjectType
	introspection bool
}

var _ executor.ObjectType = (*QueryRoot)(nil)

// NewQueryRoot wraps inner. With introspection disabled, `__schema` stays
// declared but resolves to an unknown-field error. `__type` always resolves.
func NewQueryRoot(inner executor.ObjectType, introspection bool) *QueryRoot {
	return &QueryRoot{inner: inner, introspection: introspection}
}

func (q *QueryRoot) TypeName() string { return q.inner.TypeName() }

// CreateTypeInfo registers the introspection types, then the inner type,
// then adds the introspection fields to the inner type.
func (q *QueryRoot) CreateTypeInfo(r *registry.Registry) string {
	executor.RegisterType[*introspection.Schema](r)
	name := q.inner.CreateTypeInfo(r)
	t := r.Types[name]
	t.AddField(&registry.MetaField{
		Name:        "__schema",
		Description: "Access the current type schema of this server.",
		Type:        registry.NonNullType(registry.NamedType("__Schema")),
	})
	t.AddField(&registry.MetaField{
		Name:        "__type",
		Description: "Request the type information of a single type.",
		Args: []*registry.MetaInputValue{
			{Name: "name", Description: "The name of the type to look up.", Type: registry.NonNullType(registry.NamedType("String"))},
		},
		Type: registry.NamedType("__Type"),
	})
	return name
}

func (q *QueryRoot) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, q)
}

func (q *QueryRoot) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "__schema":
		if !q.introspection {
			return nil, unknownField(fc)
		}
		return executor.ResolveOutput(fc, introspection.NewSchema(fc.Registry()))
	case "__type":
		name, err := executor.ParamValue[scalars.String](fc, "name", nil)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, introspection.LookupType(fc.Registry(), string(name)))
	case "_service":
		return executor.ResolveOutput(fc, service{sdl: fc.Registry().ExportSDL(true)})
	case "_entities":
		return q.resolveEntities(fc)
	}
	return q.inner.ResolveField(fc)
}

// resolveEntities resolves each representation in input order. A failing
// element becomes null with its own error.
func (q *QueryRoot) resolveEntities(fc *executor.FieldContext) (any, error) {
	raw, _ := fc.Arg("representations")
	var reps []any
	switch v := raw.(type) {
	case nil:
	case []any:
		reps = v
	default:
		// A single representation coerces to a one-element list.
		reps = []any{v}
	}
	finder, _ := q.inner.(executor.EntityResolver)
	reg := fc.Registry()

	return executor.ResolveEach(fc, len(reps), func(item *executor.FieldContext, i int) (any, error) {
		var rep scalars.Any
		if err := rep.ParseValue(reps[i]); err != nil {
			return nil, item.Errorf(executor.QueryErrEntityNotFound, "Entity representation must be an object.")
		}
		typeName, ok := rep.Typename()
		if !ok {
			return nil, item.Errorf(executor.QueryErrEntityNotFound, "Entity representation is missing \"__typename\".")
		}
		if t := reg.Types[typeName]; t == nil || len(t.Keys) == 0 {
			return nil, item.Errorf(executor.QueryErrEntityNotFound, "Type %q is not an entity.", typeName)
		}
		if finder == nil {
			return nil, item.Errorf(executor.QueryErrEntityNotFound, "Entity %q has no resolver.", typeName)
		}
		return finder.FindEntity(item, rep)
	})
}

func unknownField(fc *executor.FieldContext) error {
	return fc.Errorf(executor.QueryErrFieldNotFound, "Unknown field %q on type %q.", fc.Field.Name, fc.ParentType)
}

// service is the value of `_service`.
type service struct {
	sdl string
}

func (service) TypeName() string { return "_Service" }

func (service) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("_Service", func(*registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind:   registry.TypeKindObject,
			Fields: []*registry.MetaField{{Name: "sdl", Type: registry.NamedType("String")}},
		}
	})
}

func (s service) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, s)
}

func (s service) ResolveField(fc *executor.FieldContext) (any, error) {
	if fc.Field.Name == "sdl" {
		return s.sdl, nil
	}
	return nil, unknownField(fc)
}
