package catalog

import (
	"fmt"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/vektah/gqlparser/v2/ast"
)

// Node is the interface of objects addressable by a global id.
type Node struct{}

func (Node) TypeName() string { return "Node" }

func (Node) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Node", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind:        registry.TypeKindInterface,
			Description: "An object with a global id of the form Type:id.",
			Fields: []*registry.MetaField{
				{Name: "id", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.ID](r)))},
			},
		}
	})
}

func implementsNode(r *registry.Registry, typeName string) {
	r.AddImplements(typeName, executor.RegisterType[Node](r))
}

// Category is the department a product is sold in.
type Category string

const (
	CategoryBooks Category = "BOOKS"
	CategoryGames Category = "GAMES"
	CategoryMusic Category = "MUSIC"
)

var (
	_ executor.InputType  = (*Category)(nil)
	_ executor.OutputType = Category("")
)

func (Category) TypeName() string { return "Category" }

func (Category) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Category", func(*registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindEnum,
			EnumValues: []*registry.MetaEnumValue{
				{Name: string(CategoryBooks)},
				{Name: string(CategoryGames)},
				{Name: string(CategoryMusic)},
				{Name: "VINYL", IsDeprecated: true, DeprecationReason: "Use MUSIC."},
			},
		}
	})
}

func (c Category) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return string(c), nil
}

func (c Category) ToValue() any { return executor.EnumValue(c) }

func (c *Category) ParseValue(v any) error {
	var name string
	switch x := v.(type) {
	case executor.EnumValue:
		name = string(x)
	case string:
		name = x
	default:
		return executor.ExpectedType(v)
	}
	switch Category(name) {
	case CategoryBooks, CategoryGames, CategoryMusic:
		*c = Category(name)
	case "VINYL":
		*c = CategoryMusic
	default:
		return executor.NewInputValueError("unknown category %q", name)
	}
	return nil
}

// User is a customer writing reviews. It is a federated entity keyed by id.
type User struct {
	ID    string
	Name  string
	Email string
}

func (*User) TypeName() string { return "User" }

func (*User) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("User", func(r *registry.Registry) *registry.MetaType {
		implementsNode(r, "User")
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "id", Type: registry.Ref("ID!")},
				{Name: "name", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.String](r)))},
				{Name: "email", Type: registry.Ref("String!"), CacheControl: registry.CacheControl{Private: true}},
				{Name: "reviews", Type: registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType(executor.RegisterType[*Review](r)))))},
			},
			Keys:         []string{"id"},
			CacheControl: registry.CacheControl{MaxAge: 60},
		}
	})
}

func (u *User) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, u)
}

func (u *User) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "id":
		return u.ID, nil
	case "name":
		return u.Name, nil
	case "email":
		return u.Email, nil
	case "reviews":
		store, err := executor.Data[*Store](fc)
		if err != nil {
			return nil, err
		}
		return executor.ResolveList(fc, store.ReviewsBy(u.ID))
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

// Product is an item for sale. It is a federated entity keyed by id.
type Product struct {
	ID       string
	Name     string
	Price    float64
	Category Category
	InStock  bool
}

func (*Product) TypeName() string { return "Product" }

func (*Product) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Product", func(r *registry.Registry) *registry.MetaType {
		implementsNode(r, "Product")
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "id", Type: registry.Ref("ID!")},
				{Name: "name", Type: registry.Ref("String!")},
				{Name: "price", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.Float](r)))},
				{Name: "category", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[Category](r)))},
				{Name: "inStock", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.Boolean](r))), CacheControl: registry.CacheControl{MaxAge: 10}},
				{
					Name:        "reviews",
					Description: "Reviews of the product, oldest first.",
					Args: []*registry.MetaInputValue{
						{Name: "first", Type: registry.NamedType(executor.RegisterType[scalars.Int](r)), DefaultValue: 10},
					},
					Type: registry.NonNullType(registry.ListType(registry.NonNullType(registry.NamedType(executor.RegisterType[*Review](r))))),
				},
				{Name: "averageRating", Type: registry.Ref("Float")},
			},
			Keys:         []string{"id"},
			CacheControl: registry.CacheControl{MaxAge: 300},
		}
	})
}

func (p *Product) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, p)
}

func (p *Product) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "id":
		return p.ID, nil
	case "name":
		return p.Name, nil
	case "price":
		return p.Price, nil
	case "category":
		return string(p.Category), nil
	case "inStock":
		return p.InStock, nil
	case "reviews":
		first, err := executor.ParamValue[scalars.Int](fc, "first", nil)
		if err != nil {
			return nil, err
		}
		store, err := executor.Data[*Store](fc)
		if err != nil {
			return nil, err
		}
		reviews := store.ReviewsOf(p.ID)
		if n := int(first); n >= 0 && n < len(reviews) {
			reviews = reviews[:n]
		}
		return executor.ResolveList(fc, reviews)
	case "averageRating":
		store, err := executor.Data[*Store](fc)
		if err != nil {
			return nil, err
		}
		reviews := store.ReviewsOf(p.ID)
		if len(reviews) == 0 {
			return nil, nil
		}
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		return float64(sum) / float64(len(reviews)), nil
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

// Review is a user's rating of a product.
type Review struct {
	ID        string
	ProductID string
	AuthorID  string
	Rating    int
	Body      string
}

func (*Review) TypeName() string { return "Review" }

func (*Review) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Review", func(r *registry.Registry) *registry.MetaType {
		implementsNode(r, "Review")
		return &registry.MetaType{
			Kind: registry.TypeKindObject,
			Fields: []*registry.MetaField{
				{Name: "id", Type: registry.Ref("ID!")},
				{Name: "rating", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[scalars.Int](r)))},
				{Name: "body", Type: registry.Ref("String!")},
				{Name: "product", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[*Product](r)))},
				{Name: "author", Type: registry.NonNullType(registry.NamedType(executor.RegisterType[*User](r)))},
			},
		}
	})
}

func (rv *Review) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, rv)
}

func (rv *Review) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "id":
		return rv.ID, nil
	case "rating":
		return rv.Rating, nil
	case "body":
		return rv.Body, nil
	case "product":
		store, err := executor.Data[*Store](fc)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, store.Product(rv.ProductID))
	case "author":
		store, err := executor.Data[*Store](fc)
		if err != nil {
			return nil, err
		}
		return executor.ResolveOutput(fc, store.User(rv.AuthorID))
	}
	return nil, fmt.Errorf("unexpected field %s", fc.Field.Name)
}

// ReviewInput is the input of addReview.
type ReviewInput struct {
	ProductID string
	AuthorID  string
	Rating    int
	Body      string
}

var _ executor.InputType = (*ReviewInput)(nil)

func (ReviewInput) TypeName() string { return "ReviewInput" }

func (ReviewInput) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("ReviewInput", func(r *registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind: registry.TypeKindInputObject,
			InputFields: []*registry.MetaInputValue{
				{Name: "productId", Type: registry.Ref("ID!")},
				{Name: "authorId", Type: registry.Ref("ID!")},
				{Name: "rating", Type: registry.Ref("Int!"), Description: "From 1 to 5."},
				{Name: "body", Type: registry.Ref("String!"), DefaultValue: ""},
			},
		}
	})
}

func (in *ReviewInput) ParseValue(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return executor.ExpectedType(v)
	}
	var productID, authorID scalars.ID
	var rating scalars.Int
	if err := productID.ParseValue(m["productId"]); err != nil {
		return fmt.Errorf("productId: %w", err)
	}
	if err := authorID.ParseValue(m["authorId"]); err != nil {
		return fmt.Errorf("authorId: %w", err)
	}
	if err := rating.ParseValue(m["rating"]); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	var body scalars.String
	if raw, ok := m["body"]; ok {
		if err := body.ParseValue(raw); err != nil {
			return fmt.Errorf("body: %w", err)
		}
	}
	*in = ReviewInput{
		ProductID: string(productID),
		AuthorID:  string(authorID),
		Rating:    int(rating),
		Body:      string(body),
	}
	return nil
}

func (in ReviewInput) ToValue() any {
	return map[string]any{
		"productId": in.ProductID,
		"authorId":  in.AuthorID,
		"rating":    in.Rating,
		"body":      in.Body,
	}
}
