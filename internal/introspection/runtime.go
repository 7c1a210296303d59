// Package introspection serves the GraphQL introspection types from a
// registry.
package introspection

import (
	"sort"
	"strings"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// Schema resolves `__Schema` over a registry.
type Schema struct {
	reg *registry.Registry
}

var _ executor.ObjectType = (*Schema)(nil)

// NewSchema returns the `__Schema` value of reg.
func NewSchema(reg *registry.Registry) *Schema { return &Schema{reg: reg} }

func (*Schema) TypeName() string { return "__Schema" }

// CreateTypeInfo registers `__Schema` together with the rest of the
// introspection types.
func (*Schema) CreateTypeInfo(r *registry.Registry) string {
	registerTypes(r)
	return "__Schema"
}

func (s *Schema) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, s)
}

func (s *Schema) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "types":
		return executor.ResolveList(fc, s.types())
	case "queryType":
		return executor.ResolveOutput(fc, s.named(s.reg.QueryType))
	case "mutationType":
		return executor.ResolveOutput(fc, s.named(s.reg.MutationType))
	case "subscriptionType":
		return executor.ResolveOutput(fc, s.named(s.reg.SubscriptionType))
	case "directives":
		return executor.ResolveList(fc, s.directives())
	case "description":
		return optionalString(s.reg.Description), nil
	}
	return nil, fieldNotFound(fc)
}

func (s *Schema) named(name string) *Type {
	if name == "" {
		return nil
	}
	return LookupType(s.reg, name)
}

func (s *Schema) types() []*Type {
	names := make([]string, 0, len(s.reg.Types))
	for name := range s.reg.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Type, 0, len(names))
	for _, name := range names {
		out = append(out, &Type{reg: s.reg, def: s.reg.Types[name]})
	}
	return out
}

func (s *Schema) directives() []*Directive {
	out := make([]*Directive, 0, len(s.reg.Directives))
	for _, d := range s.reg.Directives {
		out = append(out, &Directive{reg: s.reg, def: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
	return out
}

// Type resolves `__Type`. A Type is either a named type of the registry or
// a LIST or NON_NULL wrapper built from a type reference.
type Type struct {
	reg *registry.Registry
	def *registry.MetaType
	ref *registry.TypeRef
}

var _ executor.ObjectType = (*Type)(nil)

// LookupType returns the `__Type` of a registered named type, or nil.
func LookupType(reg *registry.Registry, name string) *Type {
	def := reg.Types[name]
	if def == nil {
		return nil
	}
	return &Type{reg: reg, def: def}
}

// typeOf returns the `__Type` of a type reference. Named references resolve
// to the registered type.
func typeOf(reg *registry.Registry, ref *registry.TypeRef) *Type {
	if ref == nil {
		return nil
	}
	if ref.Kind == registry.TypeRefKindNamed {
		return LookupType(reg, ref.Named)
	}
	return &Type{reg: reg, ref: ref}
}

func (*Type) TypeName() string { return "__Type" }

func (*Type) CreateTypeInfo(r *registry.Registry) string {
	registerTypes(r)
	return "__Type"
}

func (t *Type) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, t)
}

func (t *Type) ResolveField(fc *executor.FieldContext) (any, error) {
	if t.ref != nil {
		switch fc.Field.Name {
		case "kind":
			return string(t.ref.Kind), nil
		case "ofType":
			return executor.ResolveOutput(fc, typeOf(t.reg, t.ref.OfType))
		case "name", "description", "specifiedByURL", "fields", "interfaces",
			"possibleTypes", "enumValues", "inputFields":
			return nil, nil
		}
		return nil, fieldNotFound(fc)
	}

	includeDeprecated := boolArg(fc, "includeDeprecated")
	switch fc.Field.Name {
	case "kind":
		return string(t.def.Kind), nil
	case "name":
		return t.def.Name, nil
	case "description":
		return optionalString(t.def.Description), nil
	case "specifiedByURL":
		return optionalString(t.def.SpecifiedByURL), nil
	case "ofType":
		return nil, nil
	case "fields":
		if t.def.Kind != registry.TypeKindObject && t.def.Kind != registry.TypeKindInterface {
			return nil, nil
		}
		return executor.ResolveList(fc, t.fields(includeDeprecated))
	case "interfaces":
		if t.def.Kind != registry.TypeKindObject && t.def.Kind != registry.TypeKindInterface {
			return nil, nil
		}
		return executor.ResolveList(fc, t.namedTypes(t.reg.Interfaces(t.def.Name)))
	case "possibleTypes":
		if !t.def.IsAbstract() {
			return nil, nil
		}
		return executor.ResolveList(fc, t.namedTypes(t.reg.PossibleTypes(t.def)))
	case "enumValues":
		if t.def.Kind != registry.TypeKindEnum {
			return nil, nil
		}
		return executor.ResolveList(fc, t.enumValues(includeDeprecated))
	case "inputFields":
		if t.def.Kind != registry.TypeKindInputObject {
			return nil, nil
		}
		return executor.ResolveList(fc, inputValues(t.reg, t.def.InputFields, includeDeprecated))
	}
	return nil, fieldNotFound(fc)
}

func (t *Type) fields(includeDeprecated bool) []*Field {
	out := []*Field{}
	for _, f := range t.def.Fields {
		if strings.HasPrefix(f.Name, "__") || (!includeDeprecated && f.IsDeprecated) {
			continue
		}
		out = append(out, &Field{reg: t.reg, def: f})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
	return out
}

func (t *Type) namedTypes(names []string) []*Type {
	out := []*Type{}
	for _, name := range names {
		if def := LookupType(t.reg, name); def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
	return out
}

func (t *Type) enumValues(includeDeprecated bool) []*EnumValue {
	out := []*EnumValue{}
	for _, ev := range t.def.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, &EnumValue{def: ev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
	return out
}

// Field resolves `__Field`.
type Field struct {
	reg *registry.Registry
	def *registry.MetaField
}

var _ executor.ObjectType = (*Field)(nil)

func (*Field) TypeName() string { return "__Field" }

func (*Field) CreateTypeInfo(r *registry.Registry) string {
	registerTypes(r)
	return "__Field"
}

func (f *Field) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, f)
}

func (f *Field) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "name":
		return f.def.Name, nil
	case "description":
		return optionalString(f.def.Description), nil
	case "args":
		return executor.ResolveList(fc, inputValues(f.reg, f.def.Args, boolArg(fc, "includeDeprecated")))
	case "type":
		return executor.ResolveOutput(fc, typeOf(f.reg, f.def.Type))
	case "isDeprecated":
		return f.def.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(f.def.IsDeprecated, f.def.DeprecationReason), nil
	}
	return nil, fieldNotFound(fc)
}

// InputValue resolves `__InputValue`.
type InputValue struct {
	reg *registry.Registry
	def *registry.MetaInputValue
}

var _ executor.ObjectType = (*InputValue)(nil)

func inputValues(reg *registry.Registry, defs []*registry.MetaInputValue, includeDeprecated bool) []*InputValue {
	out := []*InputValue{}
	for _, d := range defs {
		if !includeDeprecated && d.IsDeprecated {
			continue
		}
		out = append(out, &InputValue{reg: reg, def: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
	return out
}

func (*InputValue) TypeName() string { return "__InputValue" }

func (*InputValue) CreateTypeInfo(r *registry.Registry) string {
	registerTypes(r)
	return "__InputValue"
}

func (v *InputValue) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, v)
}

func (v *InputValue) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "name":
		return v.def.Name, nil
	case "description":
		return optionalString(v.def.Description), nil
	case "type":
		return executor.ResolveOutput(fc, typeOf(v.reg, v.def.Type))
	case "defaultValue":
		if v.def.DefaultValue == nil {
			return nil, nil
		}
		return registry.RenderValue(v.def.DefaultValue), nil
	case "isDeprecated":
		return v.def.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(v.def.IsDeprecated, v.def.DeprecationReason), nil
	}
	return nil, fieldNotFound(fc)
}

// EnumValue resolves `__EnumValue`.
type EnumValue struct {
	def *registry.MetaEnumValue
}

var _ executor.ObjectType = (*EnumValue)(nil)

func (*EnumValue) TypeName() string { return "__EnumValue" }

func (*EnumValue) CreateTypeInfo(r *registry.Registry) string {
	registerTypes(r)
	return "__EnumValue"
}

func (v *EnumValue) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, v)
}

func (v *EnumValue) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "name":
		return v.def.Name, nil
	case "description":
		return optionalString(v.def.Description), nil
	case "isDeprecated":
		return v.def.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(v.def.IsDeprecated, v.def.DeprecationReason), nil
	}
	return nil, fieldNotFound(fc)
}

// Directive resolves `__Directive`.
type Directive struct {
	reg *registry.Registry
	def *registry.MetaDirective
}

var _ executor.ObjectType = (*Directive)(nil)

func (*Directive) TypeName() string { return "__Directive" }

func (*Directive) CreateTypeInfo(r *registry.Registry) string {
	registerTypes(r)
	return "__Directive"
}

func (d *Directive) Resolve(ctx *executor.SelectionContext, _ *ast.Field) (any, error) {
	return executor.ResolveObject(ctx, d)
}

func (d *Directive) ResolveField(fc *executor.FieldContext) (any, error) {
	switch fc.Field.Name {
	case "name":
		return d.def.Name, nil
	case "description":
		return optionalString(d.def.Description), nil
	case "isRepeatable":
		return d.def.IsRepeatable, nil
	case "locations":
		locs := append([]string{}, d.def.Locations...)
		sort.Strings(locs)
		return locs, nil
	case "args":
		return executor.ResolveList(fc, inputValues(d.reg, d.def.Args, boolArg(fc, "includeDeprecated")))
	}
	return nil, fieldNotFound(fc)
}

// --- helpers ---

func fieldNotFound(fc *executor.FieldContext) error {
	return fc.Errorf(executor.QueryErrFieldNotFound, "Unknown field %q on type %q.", fc.Field.Name, fc.ParentType)
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func boolArg(fc *executor.FieldContext, name string) bool {
	v, _ := fc.Arg(name)
	b, _ := v.(bool)
	return b
}
