package executor

import (
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// collectedFieldMap preserves field order from the original query
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*ast.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{
		fields: make([]collectedField, 0),
		index:  make(map[string]int),
	}
}

func (cfm *collectedFieldMap) add(responseName string, field *ast.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
	} else {
		cfm.index[responseName] = len(cfm.fields)
		cfm.fields = append(cfm.fields, collectedField{
			ResponseName: responseName,
			Fields:       []*ast.Field{field},
		})
	}
}

// field returns the field to resolve for the group. Repeated selections of
// one response name are merged into a single field whose sub-selection is
// the concatenation of theirs.
func (cf collectedField) field() *ast.Field {
	if len(cf.Fields) == 1 {
		return cf.Fields[0]
	}
	merged := *cf.Fields[0]
	merged.SelectionSet = mergeSelectionSets(cf.Fields)
	return &merged
}

func mergeSelectionSets(fields []*ast.Field) ast.SelectionSet {
	var merged ast.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// collectFields groups the fields of selectionSet that apply to objectType
// by response name, in first-occurrence order.
func collectFields(reg *registry.Registry, q *QueryEnv, objectType *registry.MetaType, selectionSet ast.SelectionSet) []collectedField {
	groupedFields := newCollectedFieldMap()
	visitedFragments := make(map[string]bool)
	collectFieldsImpl(reg, q, objectType, selectionSet, groupedFields, visitedFragments)
	return groupedFields.fields
}

func collectFieldsImpl(reg *registry.Registry, q *QueryEnv, objectType *registry.MetaType, selectionSet ast.SelectionSet, groupedFields *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *ast.Field:
			if !shouldIncludeNode(q.Variables, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			groupedFields.add(responseName, sel)

		case *ast.InlineFragment:
			if !shouldIncludeNode(q.Variables, sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && !reg.IsPossibleType(sel.TypeCondition, objectType.Name) {
				continue
			}
			collectFieldsImpl(reg, q, objectType, sel.SelectionSet, groupedFields, visitedFragments)

		case *ast.FragmentSpread:
			if !shouldIncludeNode(q.Variables, sel.Directives) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragmentDef := getFragmentDefinition(q.Document, sel.Name)
			if fragmentDef == nil {
				continue
			}
			if fragmentDef.TypeCondition != "" && !reg.IsPossibleType(fragmentDef.TypeCondition, objectType.Name) {
				continue
			}
			if !shouldIncludeNode(q.Variables, fragmentDef.Directives) {
				continue
			}
			collectFieldsImpl(reg, q, objectType, fragmentDef.SelectionSet, groupedFields, visitedFragments)
		}
	}
}

// shouldIncludeNode evaluates @skip and @include.
func shouldIncludeNode(variables map[string]any, directives ast.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgument(variables, skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgument(variables, include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgument(variables map[string]any, directive *ast.Directive, name string) any {
	if arg := directive.Arguments.ForName(name); arg != nil {
		return valueFromAST(arg.Value, variables)
	}
	return nil
}

func getFragmentDefinition(document *ast.QueryDocument, name string) *ast.FragmentDefinition {
	if document == nil {
		return nil
	}
	return document.Fragments.ForName(name)
}
