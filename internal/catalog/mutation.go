package catalog

import (
	"fmt"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/logging"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// Mutation is the mutation root of the catalog.
type Mutation struct{}

var _ executor.ObjectType = Mutation{}

func (Mutation) TypeName() string { return "Mutation" }

func (Mutation) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Mutation", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{{
				Name: "addReview",
				Args: []*registry.MetaInputValue{{Name: "input", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[ReviewInput](r)))}},
				Type: registry.NonNullType(registry.NamedType(executor.RegisterType[*Review](r))),
			}},
		}
	})
}

func (m Mutation) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObjectSerial(ctx, m)
}

func (Mutation) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "addReview":
		in, err := executor.ParamValue[ReviewInput](fc, "input", nil)
		if err != nil {
			return nil, err
		}
		if in.Rating < 1 || in.Rating > 5 {
			return nil, executor.NewFieldError("rating must be between 1 and 5, got %d", in.Rating).WithExtension("code", "BAD_USER_INPUT")
		}
		store, err := executor.Data[*Store](fc)
		if err != nil {
			return nil, err
		}
		review, err := store.AddReview(in)
		if err != nil {
			return nil, executor.NewFieldError("%s", err.Error()).WithExtension("code", "NOT_FOUND")
		}
		logging.FromContext(fc.Context()).Info("review added", "review", review.ID, "product", review.ProductID)
		if broker, ok := executor.DataOpt[*Broker](fc); ok {
			broker.Publish(fc.Context(), review)
		}
		return executor.ResolveOutput(fc, review)
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}
