package scalars

import (
	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// Any is the federation `_Any` scalar: an entity representation passed to
// `_entities`. Representations are objects and always carry `__typename`.
type Any map[string]any

var (
	_ executor.InputType  = (*Any)(nil)
	_ executor.OutputType = Any(nil)
)

func (Any) TypeName() string { return "_Any" }

func (Any) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("_Any", func(*registry.Registry) *registry.MetaType {
		return registry.AnyScalar()
	})
}

func (a Any) ToValue() any { return map[string]any(a) }

func (a Any) Resolve(*executor.SelectionContext, *ast.Field) (any, error) {
	return map[string]any(a), nil
}

func (a *Any) ParseValue(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return executor.ExpectedType(v)
	}
	*a = Any(m)
	return nil
}

// Typename returns the `__typename` of the representation.
func (a Any) Typename() (string, bool) {
	s, ok := a["__typename"].(string)
	return s, ok
}
