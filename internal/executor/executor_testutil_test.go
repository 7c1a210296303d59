package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/hanpama/graphcore/internal/language"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// mustJSON marshals v compactly and fails the test on error.
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	return string(b)
}

// MockResolver resolves one field of a mockObject.
type MockResolver func(fc *FieldContext) (any, error)

// NewMockValueResolver returns a MockResolver that always returns the provided value.
func NewMockValueResolver(val any) MockResolver {
	return func(*FieldContext) (any, error) { return val, nil }
}

// NewMockErrorResolver returns a MockResolver that always returns the provided error.
func NewMockErrorResolver(err error) MockResolver {
	return func(*FieldContext) (any, error) { return nil, err }
}

// NewMockObjectResolver resolves the field to child against the field's sub-selection.
func NewMockObjectResolver(child *mockObject) MockResolver {
	return func(fc *FieldContext) (any, error) { return ResolveOutput(fc, child) }
}

// NewMockListResolver resolves the field to items against the field's sub-selection.
func NewMockListResolver(items ...*mockObject) MockResolver {
	return func(fc *FieldContext) (any, error) { return ResolveList(fc, items) }
}

// Call records one ResolveField invocation.
type Call struct {
	ObjectType string
	Field      string
	Path       string
}

type callLog struct {
	mu    sync.Mutex
	calls []Call
}

func (l *callLog) add(c Call) {
	l.mu.Lock()
	l.calls = append(l.calls, c)
	l.mu.Unlock()
}

// mockObject is an ObjectType whose fields are served by MockResolvers keyed
// by field name.
type mockObject struct {
	name      string
	resolvers map[string]MockResolver
	log       *callLog
}

func newMockObject(name string, resolvers map[string]MockResolver) *mockObject {
	return &mockObject{name: name, resolvers: resolvers, log: &callLog{}}
}

func (m *mockObject) TypeName() string { return m.name }

func (m *mockObject) CreateTypeInfo(*registry.Registry) string { return m.name }

func (m *mockObject) Resolve(ctx *SelectionContext, _ *ast.Field) (any, error) {
	return ResolveObject(ctx, m)
}

func (m *mockObject) ResolveField(fc *FieldContext) (any, error) {
	m.log.add(Call{ObjectType: m.name, Field: fc.Field.Name, Path: fc.Path().String()})
	r := m.resolvers[fc.Field.Name]
	if r == nil {
		return nil, fmt.Errorf("no resolver for %s.%s", m.name, fc.Field.Name)
	}
	return r(fc)
}

func (m *mockObject) calls() []Call {
	m.log.mu.Lock()
	defer m.log.mu.Unlock()
	return append([]Call(nil), m.log.calls...)
}

// testRegistry returns the registry shared by the executor tests.
//
//	type Query {
//	  a: String  b: String  c: String
//	  user: User  requiredUser: User!
//	  users: [User!]  maybeUsers: [User]!
//	  node: Node
//	  echo(value: Int = 7): Int
//	}
//	interface Node { id: ID! }
//	type User implements Node { id: ID!  name: String  email: String!  friend: User }
//	type Mutation { first: String  second: String! }
func testRegistry() *registry.Registry {
	r := registry.New()
	for _, name := range []string{"String", "Int", "Boolean", "ID"} {
		r.Types[name] = registry.BuiltinScalar(name)
	}
	r.Types["Query"] = &registry.MetaType{
		Kind: registry.TypeKindObject,
		Name: "Query",
		Fields: []*registry.MetaField{
			{Name: "a", Type: registry.Ref("String")},
			{Name: "b", Type: registry.Ref("String")},
			{Name: "c", Type: registry.Ref("String")},
			{Name: "user", Type: registry.Ref("User")},
			{Name: "requiredUser", Type: registry.Ref("User!")},
			{Name: "users", Type: registry.Ref("[User!]")},
			{Name: "maybeUsers", Type: registry.Ref("[User]!")},
			{Name: "node", Type: registry.Ref("Node")},
			{
				Name: "echo",
				Args: []*registry.MetaInputValue{{Name: "value", Type: registry.Ref("Int"), DefaultValue: 7}},
				Type: registry.Ref("Int"),
			},
		},
	}
	r.Types["Node"] = &registry.MetaType{
		Kind:   registry.TypeKindInterface,
		Name:   "Node",
		Fields: []*registry.MetaField{{Name: "id", Type: registry.Ref("ID!")}},
	}
	r.Types["User"] = &registry.MetaType{
		Kind: registry.TypeKindObject,
		Name: "User",
		Fields: []*registry.MetaField{
			{Name: "id", Type: registry.Ref("ID!")},
			{Name: "name", Type: registry.Ref("String")},
			{Name: "email", Type: registry.Ref("String!")},
			{Name: "friend", Type: registry.Ref("User")},
		},
	}
	r.Types["Mutation"] = &registry.MetaType{
		Kind: registry.TypeKindObject,
		Name: "Mutation",
		Fields: []*registry.MetaField{
			{Name: "first", Type: registry.Ref("String")},
			{Name: "second", Type: registry.Ref("String!")},
		},
	}
	r.AddImplements("User", "Node")
	r.QueryType = "Query"
	r.MutationType = "Mutation"
	return r
}

type execOptions struct {
	ctx        context.Context
	variables  map[string]any
	extensions []Extension
	queryData  DataMap
	schemaData DataMap
	serial     bool
}

// execute runs query against root the way the schema package does, without
// parse and validation hooks.
func execute(t *testing.T, reg *registry.Registry, root ObjectType, query string, opts execOptions) *Response {
	t.Helper()
	doc := mustParseQuery(t, query)
	op, err := GetOperation(doc, "")
	if err != nil {
		t.Fatalf("operation: %v", err)
	}
	vars, verr := CoerceVariables(reg, op, opts.variables)
	if verr != nil {
		return ErrorResponse(verr)
	}
	ctx := opts.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	chain := NewExtensions(opts.extensions...)
	q := NewQueryEnv(QueryEnvConfig{
		Document:   doc,
		Operation:  op,
		Variables:  vars,
		Data:       opts.queryData,
		Extensions: chain,
	})
	sc := NewSelectionContext(ctx, NewSchemaEnv(reg, opts.schemaData), q, op.SelectionSet)
	chain.ExecutionStart()
	resp := ExecuteRoot(sc, root, opts.serial)
	chain.ExecutionEnd()
	resp.Extensions = chain.Results()
	return resp
}

// newUser returns a User mock with fixed id and name and the given email resolver.
func newUser(id string, email MockResolver) *mockObject {
	return newMockObject("User", map[string]MockResolver{
		"id":    NewMockValueResolver(id),
		"name":  NewMockValueResolver("user-" + id),
		"email": email,
	})
}
