package catalog

import (
	"iter"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/scalars"
)

// Subscription is the subscription root of the catalog.
type Subscription struct{}

var _ executor.SubscriptionType = Subscription{}

func (Subscription) TypeName() string { return "Subscription" }

func (Subscription) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Subscription", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{{
				Name:        "reviewAdded",
				Description: "Reviews added from now on, optionally for one product.",
				Args:        []*registry.MetaInputValue{{Name: "productId", Type: registry.NamedType(executor.RegisterType[scalars.ID](r))}},
				Type:        registry.NonNullType(registry.NamedType(executor.RegisterType[*Review](r))),
			}},
		}
	})
}

func (Subscription) IsEmpty() bool { return false }

func (Subscription) CreateFieldStream(fc *executor.FieldContext) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		broker, err := executor.Data[*Broker](fc)
		if err != nil {
			yield(nil, err)
			return
		}
		var productID scalars.ID
		if raw, ok := fc.Arg("productId"); ok && raw != nil {
			if err := productID.ParseValue(raw); err != nil {
				yield(nil, err)
				return
			}
		}
		for review := range broker.Reviews(fc.Context(), string(productID)) {
			if !yield(executor.ResolveOutput(fc, review)) {
				return
			}
		}
	}
}
