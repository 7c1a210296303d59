package catalog

import (
	"fmt"
	"strings"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/vektah/gqlparser/v2/ast"
)

// Query is the query root of the catalog.
type Query struct{}

var (
	_ executor.ObjectType     = Query{}
	_ executor.EntityResolver = Query{}
)

func (Query) TypeName() string { return "Query" }

func (Query) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Query", func(r *registry.Registry) *registry.MetaType {
		id := []*registry.MetaInputValue{{Name: "id", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.ID](r)))}}
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "node", Args: id, Type: registry.NamedType(executor.RegisterType[Node](r))},
				{Name: "user", Args: id, Type: registry.NamedType(executor.RegisterType[*User](r))},
				{Name: "users", Type: registry.Ref("[User!]!")},
				{Name: "product", Args: id, Type: registry.NamedType(executor.RegisterType[*Product](r))},
				{
					Name: "products",
					Args: []*registry.MetaInputValue{
						{Name: "category", Type: registry.NamedType(executor.RegisterType[Category](r))},
						{Name: "first", Type: registry.NamedType(executor.RegisterType[scalars.Int](r)), DefaultValue: 10},
					},
					Type: registry.Ref("[Product!]!"),
				},
				{Name: "review", Args: id, Type: registry.NamedType(executor.RegisterType[*Review](r))},
				{
					Name:              "topProduct",
					Type:              registry.Ref("Product"),
					IsDeprecated:      true,
					DeprecationReason: "Use products(first: 1).",
				},
			},
		}
	})
}

func (q Query) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, q)
}

func (Query) ResolveField(fc *executor.FieldContext) (any, error) {
	store, err := executor.Data[*Store](fc)
	if err != nil {
		return nil, err
	}
	switch fc.Field.Name {
	case "node":
		id, err := executor.ParamValue[scalars.ID](fc, "id", nil)
		if err != nil {
			return nil, err
		}
		typeName, key, ok := strings.Cut(string(id), ":")
		if !ok {
			return nil, executor.NewFieldError("malformed node id %q", id).WithExtension("code", "BAD_USER_INPUT")
		}
		return executor.ResolveOutput(fc, lookup(store, typeName, key))
	case "user":
		id, err := executor.ParamValue[scalars.ID](fc, "id", nil)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, store.User(string(id)))
	case "users":
		return executor.ResolveList(fc, store.Users())
	case "product":
		id, err := executor.ParamValue[scalars.ID](fc, "id", nil)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, store.Product(string(id)))
	case "products":
		var category Category
		if raw, ok := fc.Arg("category"); ok && raw != nil {
			if err := category.ParseValue(raw); err != nil {
				return nil, err
			}
		}
		first, err := executor.ParamValue[scalars.Int](fc, "first", nil)
		if err != nil {
			return nil, err
		}
		return executor.ResolveList(fc, store.Products(category, int(first)))
	case "review":
		id, err := executor.ParamValue[scalars.ID](fc, "id", nil)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, store.Review(string(id)))
	case "topProduct":
		products := store.Products("", 1)
		if len(products) == 0 {
			return nil, nil
		}
		return executor.ResolveOutput(fc, products[0])
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

// lookup returns the object of typeName with the given key, or nil.
func lookup(store *Store, typeName, key string) executor.OutputType {
	switch typeName {
	case "User":
		if u := store.User(key); u != nil {
			return u
		}
	case "Product":
		if p := store.Product(key); p != nil {
			return p
		}
	case "Review":
		if r := store.Review(key); r != nil {
			return r
		}
	}
	return nil
}

// FindEntity resolves User and Product representations by id.
func (Query) FindEntity(fc *executor.FieldContext, rep map[string]any) (any, error) {
	store, err := executor.Data[*Store](fc)
	if err != nil {
		return nil, err
	}
	var id scalars.ID
	if err := id.ParseValue(rep["id"]); err != nil {
		return nil, executor.NewFieldError("representation needs an id")
	}
	typeName, _ := rep["__typename"].(string)
	obj := lookup(store, typeName, string(id))
	if obj == nil {
		return nil, executor.NewFieldError("%s %q not found", typeName, id)
	}
	return executor.ResolveOutput(fc, obj)
}
