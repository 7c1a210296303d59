package server

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"testing"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/reqid"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/hanpama/graphcore/internal/schema"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

type testQuery struct{}

func (testQuery) TypeName() string { return "Query" }

func (testQuery) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Query", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "hello", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.String](r)))},
				{Name: "cached", Type: registry.Ref("String!"), CacheControl: registry.CacheControl{MaxAge: 60}},
				{
					Name: "header",
					Args: []*registry.MetaInputValue{{Name: "name", Type: registry.Ref("String!")}},
					Type: registry.Ref("String"),
				},
				{Name: "requestId", Type: registry.Ref("String")},
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
	case "cached":
		return "static", nil
	case "header":
		name, err := executor.ParamValue[scalars.String](fc, "name", nil)
		if err != nil {
			return nil, err
		}
		h, ok := executor.DataOpt[Headers](fc)
		if !ok || h.Get(string(name)) == "" {
			return nil, nil
		}
		return h.Get(string(name)), nil
	case "requestId":
		id, _ := reqid.FromContext(fc.Context())
		return id, nil
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

type testMutation struct{}

func (testMutation) TypeName() string { return "Mutation" }

func (testMutation) CreateTypeInfo(r *registry.Registry) string {
	executor.RegisterType[scalars.Upload](r)
	return r.CreateType("Mutation", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{
					Name: "upload",
					Args: []*registry.MetaInputValue{{Name: "file", Type: registry.Ref("Upload!")}},
					Type: registry.Ref("String!"),
				},
				{
					Name: "uploadMany",
					Args: []*registry.MetaInputValue{{Name: "files", Type: registry.Ref("[Upload!]!")}},
					Type: registry.Ref("String!"),
				},
			},
		}
	})
}

func (m testMutation) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObjectSerial(ctx, m)
}

func (testMutation) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "upload":
		u, err := executor.ParamValue[scalars.Upload](fc, "file", nil)
		if err != nil {
			return nil, err
		}
		return describeUpload(u)
	case "uploadMany":
		raw, _ := fc.Arg("files")
		list, _ := raw.([]any)
		var out []string
		for _, v := range list {
			var u scalars.Upload
			if err := u.ParseValue(v); err != nil {
				return nil, err
			}
			s, err := describeUpload(u)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return strings.Join(out, ","), nil
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

func describeUpload(u scalars.Upload) (string, error) {
	rd, err := u.Open()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", u.Filename(), b), nil
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
				Args: []*registry.MetaInputValue{{Name: "count", Type: registry.NamedType(executor.RegisterType[scalars.Int](r)), DefaultValue: 2}},
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

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	s, err := schema.New(testQuery{}, testMutation{}, testSubscription{})
	require.NoError(t, err)
	return New(s, opts...)
}
