package schema

import (
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// cacheControl merges the hints of every field selected by op and of the
// types those fields return. @skip and @include are not evaluated, so the
// hint is computed over the widest possible selection.
func cacheControl(reg *registry.Registry, doc *ast.QueryDocument, op *ast.OperationDefinition) registry.CacheControl {
	var cc registry.CacheControl
	visited := map[string]bool{}

	var walk func(t *registry.MetaType, set ast.SelectionSet)
	walk = func(t *registry.MetaType, set ast.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *ast.Field:
				meta := t.Field(sel.Name)
				if meta == nil {
					continue
				}
				cc = cc.Merge(meta.CacheControl)
				if ft := reg.Types[meta.Type.NamedType()]; ft != nil {
					cc = cc.Merge(ft.CacheControl)
					if len(sel.SelectionSet) > 0 {
						walk(ft, sel.SelectionSet)
					}
				}
			case *ast.InlineFragment:
				walk(conditionType(reg, t, sel.TypeCondition), sel.SelectionSet)
			case *ast.FragmentSpread:
				if visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				if def := doc.Fragments.ForName(sel.Name); def != nil {
					walk(conditionType(reg, t, def.TypeCondition), def.SelectionSet)
				}
			}
		}
	}

	if root := reg.RootType(string(op.Operation)); root != nil {
		walk(root, op.SelectionSet)
	}
	return cc
}

func conditionType(reg *registry.Registry, current *registry.MetaType, cond string) *registry.MetaType {
	if t := reg.Types[cond]; t != nil {
		return t
	}
	return current
}
