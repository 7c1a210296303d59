package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sync"
	"testing"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

type greeting string

// testQuery is the query root of the test schema.
type testQuery struct{}

func (testQuery) TypeName() string { return "Query" }

func (testQuery) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Query", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "hello", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.String](r)))},
				{Name: "greeting", Type: registry.NamedType("String")},
				{
					Name:         "user",
					Args:         []*registry.MetaInputValue{{Name: "id", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.ID](r)))}},
					Type:         registry.NamedType(executor.RegisterType[*testUser](r)),
					CacheControl: registry.CacheControl{MaxAge: 60, Private: true},
				},
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
	case "greeting":
		g, err := executor.Data[greeting](fc)
		if err != nil {
			return nil, err
		}
		return string(g), nil
	case "user":
		id, err := executor.ParamValue[scalars.ID](fc, "id", nil)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, &testUser{id: string(id)})
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

func (testQuery) FindEntity(fc *executor.FieldContext, rep map[string]any) (any, error) {
	id, _ := rep["id"].(string)
	if id == "" {
		return nil, executor.NewFieldError("User representation needs an id")
	}
	return executor.ResolveOutput(fc, &testUser{id: id})
}

// testUser is an entity keyed by id.
type testUser struct{ id string }

func (*testUser) TypeName() string { return "User" }

func (*testUser) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("User", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "id", Type: registry.Ref("ID!")},
				{Name: "name", Type: registry.Ref("String!")},
			},
			Keys:         []string{"id"},
			CacheControl: registry.CacheControl{MaxAge: 30},
		}
	})
}

func (u *testUser) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, u)
}

func (u *testUser) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "id":
		return u.id, nil
	case "name":
		return "user-" + u.id, nil
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

// testMutation records the order its fields run in.
type testMutation struct {
	mu    *sync.Mutex
	calls *[]string
}

func newTestMutation() testMutation {
	return testMutation{mu: &sync.Mutex{}, calls: &[]string{}}
}

func (testMutation) TypeName() string { return "Mutation" }

func (testMutation) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Mutation", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{{
				Name: "setName",
				Args: []*registry.MetaInputValue{{Name: "name", Type: registry.Ref("String!")}},
				Type: registry.Ref("String!"),
			}},
		}
	})
}

func (m testMutation) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObjectSerial(ctx, m)
}

func (m testMutation) ResolveField(fc *executor.FieldContext) (any, error) {
	name, err := executor.ParamValue[scalars.String](fc, "name", nil)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	*m.calls = append(*m.calls, string(name))
	m.mu.Unlock()
	return string(name), nil
}

// testSubscription streams 1..count.
type testSubscription struct{}

func (testSubscription) TypeName() string { return "Subscription" }

func (testSubscription) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Subscription", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{{
				Name: "ticks",
				Args: []*registry.MetaInputValue{{Name: "count", Type: registry.NamedType(executor.RegisterType[scalars.Int](r)), DefaultValue: 3}},
				Type: registry.Ref("Int!"),
			}},
		}
	})
}

func (testSubscription) IsEmpty() bool { return false }

func (testSubscription) CreateFieldStream(fc *executor.FieldContext) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		count, err := executor.ParamValue[scalars.Int](fc, "count", nil)
		if err != nil {
			yield(nil, err)
			return
		}
		for i := 1; i <= int(count); i++ {
			if !yield(i, nil) {
				return
			}
		}
	}
}

// hookRecorder records the phase hooks of one operation.
type hookRecorder struct {
	executor.ExtensionBase
	events []string
}

func (h *hookRecorder) Name() string                      { return "hooks" }
func (h *hookRecorder) ParseStart(string, map[string]any) { h.add("ParseStart") }
func (h *hookRecorder) ParseEnd(*ast.QueryDocument)       { h.add("ParseEnd") }
func (h *hookRecorder) ValidationStart()                  { h.add("ValidationStart") }
func (h *hookRecorder) ValidationEnd()                    { h.add("ValidationEnd") }
func (h *hookRecorder) ExecutionStart()                   { h.add("ExecutionStart") }
func (h *hookRecorder) ExecutionEnd()                     { h.add("ExecutionEnd") }
func (h *hookRecorder) ResolveStart(i *executor.ResolveInfo) {
	h.add("ResolveStart " + i.Path.String())
}
func (h *hookRecorder) ResolveEnd(i *executor.ResolveInfo) { h.add("ResolveEnd " + i.Path.String()) }
func (h *hookRecorder) Error(e *executor.Error)            { h.add("Error " + e.Message) }
func (h *hookRecorder) Result() any                        { return h.events }
func (h *hookRecorder) add(e string)                       { h.events = append(h.events, e) }

func newTestSchema(t *testing.T, opts ...Option) *Schema {
	t.Helper()
	s, err := New(testQuery{}, newTestMutation(), testSubscription{}, opts...)
	require.NoError(t, err)
	return s
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func exec(t *testing.T, s *Schema, query string, vars map[string]any) string {
	t.Helper()
	return mustJSON(t, s.Execute(context.Background(), &Request{Query: query, Variables: vars}))
}
