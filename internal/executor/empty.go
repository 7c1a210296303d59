package executor

import (
	"iter"

	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// EmptyMutation is the mutation root of a schema without mutations.
type EmptyMutation struct{}

var _ ObjectType = EmptyMutation{}

func (EmptyMutation) TypeName() string { return "EmptyMutation" }

func (EmptyMutation) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("EmptyMutation", func(*registry.Registry) *registry.MetaType {
		return &registry.MetaType{Kind: registry.TypeKindObject}
	})
}

func (EmptyMutation) IsEmpty() bool { return true }

func (m EmptyMutation) Resolve(ctx *SelectionContext, _ *ast.Field) (any, error) {
	return ResolveObject(ctx, m)
}

func (EmptyMutation) ResolveField(ctx *FieldContext) (any, error) {
	return nil, ctx.Errorf(QueryErrNotConfiguredMutations, "Schema is not configured for mutations.")
}

// EmptySubscription is the subscription root of a schema without
// subscriptions. Its only stream fails immediately.
type EmptySubscription struct{}

var _ SubscriptionType = EmptySubscription{}

func (EmptySubscription) TypeName() string { return "EmptySubscription" }

func (EmptySubscription) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("EmptySubscription", func(*registry.Registry) *registry.MetaType {
		return &registry.MetaType{Kind: registry.TypeKindObject}
	})
}

func (EmptySubscription) IsEmpty() bool { return true }

func (EmptySubscription) CreateFieldStream(*FieldContext) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		yield(nil, NewQueryError(QueryErrNotConfiguredSubscriptions, Pos{}, nil, "Schema is not configured for subscriptions."))
	}
}
