package extensions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/hanpama/graphcore/internal/schema"
)

var errBoom = errors.New("boom")

type testQuery struct{}

func (testQuery) TypeName() string { return "Query" }

func (testQuery) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Query", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "hello", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.String](r)))},
				{Name: "fail", Type: registry.Ref("String")},
				{Name: "user", Type: registry.NamedType(executor.RegisterType[testUser](r))},
			},
		}
	})
}

func (q testQuery) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, q)
}

func (testQuery) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "hello":
		return "world", nil
	case "fail":
		return nil, errBoom
	case "user":
		return executor.ResolveOutput(fc, testUser{})
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

type testUser struct{}

func (testUser) TypeName() string { return "User" }

func (testUser) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("User", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind:   registry.TypeKindObject,
			Fields: []*registry.MetaField{{Name: "name", Type: registry.Ref("String!")}},
		}
	})
}

func (u testUser) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, u)
}

func (testUser) ResolveField(*executor.FieldContext) (any, error) { return "ada", nil }

func newTestSchema(t *testing.T, ext executor.ExtensionFactory) *schema.Schema {
	t.Helper()
	s, err := schema.New(testQuery{}, executor.EmptyMutation{}, executor.EmptySubscription{}, schema.WithExtension(ext))
	require.NoError(t, err)
	return s
}

func execute(ctx context.Context, s *schema.Schema, query string) *executor.Response {
	return s.Execute(ctx, &schema.Request{Query: query})
}
