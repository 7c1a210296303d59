package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var federationTypes = map[string]struct{}{
	"_Any":     {},
	"_Entity":  {},
	"_Service": {},
}

// ExportSDL renders the registry as schema definition language. Type and
// directive names are sorted; built-in scalars, built-in directives and
// introspection types are omitted.
//
// With federation set the output is the service SDL a federation gateway
// expects: federation types and fields are left out, extended types are
// rendered as "extend type", and @key, @external, @requires and @provides are
// emitted. Without it the output is a standalone schema with a schema block.
func (r *Registry) ExportSDL(federation bool) string {
	var b strings.Builder

	names := make([]string, 0, len(r.Types))
	for name := range r.Types {
		if strings.HasPrefix(name, "__") || IsBuiltinScalar(name) {
			continue
		}
		if _, ok := federationTypes[name]; ok && federation {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := r.Types[name]
		switch t.Kind {
		case TypeKindScalar:
			renderScalar(&b, t)
		case TypeKindEnum:
			renderEnum(&b, t)
		case TypeKindInputObject:
			renderInputObject(&b, t)
		case TypeKindObject, TypeKindInterface:
			r.renderComposite(&b, t, federation)
		case TypeKindUnion:
			renderUnion(&b, t)
		}
	}

	directiveNames := make([]string, 0, len(r.Directives))
	for name := range r.Directives {
		if _, ok := builtinDirectiveNames[name]; ok {
			continue
		}
		directiveNames = append(directiveNames, name)
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		renderDirective(&b, r.Directives[name])
	}

	if !federation && r.QueryType != "" {
		b.WriteString("schema {\n")
		b.WriteString("  query: " + r.QueryType + "\n")
		if r.MutationType != "" {
			b.WriteString("  mutation: " + r.MutationType + "\n")
		}
		if r.SubscriptionType != "" {
			b.WriteString("  subscription: " + r.SubscriptionType + "\n")
		}
		b.WriteString("}\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderDescription(b *strings.Builder, desc, indent string) {
	if desc == "" {
		return
	}
	b.WriteString(indent)
	b.WriteString("\"\"\"\n")
	for _, line := range strings.Split(strings.ReplaceAll(desc, `"""`, `\"""`), "\n") {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(indent)
	b.WriteString("\"\"\"\n")
}

func renderDeprecation(b *strings.Builder, deprecated bool, reason string) {
	if !deprecated {
		return
	}
	b.WriteString(" @deprecated")
	if reason != "" {
		b.WriteString("(reason: ")
		b.WriteString(strconv.Quote(reason))
		b.WriteString(")")
	}
}

func renderScalar(b *strings.Builder, t *MetaType) {
	renderDescription(b, t.Description, "")
	b.WriteString("scalar ")
	b.WriteString(t.Name)
	if t.SpecifiedByURL != "" {
		b.WriteString(" @specifiedBy(url: ")
		b.WriteString(strconv.Quote(t.SpecifiedByURL))
		b.WriteString(")")
	}
	b.WriteString("\n\n")
}

func renderEnum(b *strings.Builder, t *MetaType) {
	renderDescription(b, t.Description, "")
	b.WriteString("enum ")
	b.WriteString(t.Name)
	b.WriteString(" {\n")
	for _, v := range t.EnumValues {
		renderDescription(b, v.Description, "  ")
		b.WriteString("  ")
		b.WriteString(v.Name)
		renderDeprecation(b, v.IsDeprecated, v.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderInputObject(b *strings.Builder, t *MetaType) {
	renderDescription(b, t.Description, "")
	b.WriteString("input ")
	b.WriteString(t.Name)
	b.WriteString(" {\n")
	for _, f := range t.InputFields {
		renderDescription(b, f.Description, "  ")
		b.WriteString("  ")
		renderInputValue(b, f)
		renderDeprecation(b, f.IsDeprecated, f.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func (r *Registry) renderComposite(b *strings.Builder, t *MetaType, federation bool) {
	fields := make([]*MetaField, 0, len(t.Fields))
	for _, f := range t.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		if federation && (f.Name == "_service" || f.Name == "_entities") {
			continue
		}
		fields = append(fields, f)
	}
	// An object left without fields cannot be expressed in SDL.
	if len(fields) == 0 {
		return
	}

	renderDescription(b, t.Description, "")
	if federation && t.Extends {
		b.WriteString("extend ")
	}
	if t.Kind == TypeKindInterface {
		b.WriteString("interface ")
	} else {
		b.WriteString("type ")
	}
	b.WriteString(t.Name)
	if ifaces := r.Interfaces(t.Name); len(ifaces) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(ifaces, " & "))
	}
	if federation {
		for _, key := range t.Keys {
			b.WriteString(" @key(fields: ")
			b.WriteString(strconv.Quote(key))
			b.WriteString(")")
		}
	}
	b.WriteString(" {\n")
	for _, f := range fields {
		renderField(b, f, federation)
	}
	b.WriteString("}\n\n")
}

func renderUnion(b *strings.Builder, t *MetaType) {
	if len(t.PossibleTypes) == 0 {
		return
	}
	renderDescription(b, t.Description, "")
	b.WriteString("union ")
	b.WriteString(t.Name)
	b.WriteString(" = ")
	b.WriteString(strings.Join(t.PossibleTypes, " | "))
	b.WriteString("\n\n")
}

func renderField(b *strings.Builder, f *MetaField, federation bool) {
	renderDescription(b, f.Description, "  ")
	b.WriteString("  ")
	b.WriteString(f.Name)
	renderArgs(b, f.Args)
	b.WriteString(": ")
	b.WriteString(f.Type.String())
	renderDeprecation(b, f.IsDeprecated, f.DeprecationReason)
	if federation {
		if f.External {
			b.WriteString(" @external")
		}
		if f.Requires != "" {
			b.WriteString(" @requires(fields: ")
			b.WriteString(strconv.Quote(f.Requires))
			b.WriteString(")")
		}
		if f.Provides != "" {
			b.WriteString(" @provides(fields: ")
			b.WriteString(strconv.Quote(f.Provides))
			b.WriteString(")")
		}
	}
	b.WriteString("\n")
}

func renderArgs(b *strings.Builder, args []*MetaInputValue) {
	if len(args) == 0 {
		return
	}
	b.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		renderInputValue(b, arg)
	}
	b.WriteString(")")
}

func renderInputValue(b *strings.Builder, v *MetaInputValue) {
	b.WriteString(v.Name)
	b.WriteString(": ")
	b.WriteString(v.Type.String())
	if v.DefaultValue != nil {
		b.WriteString(" = ")
		b.WriteString(RenderValue(v.DefaultValue))
	}
}

func renderDirective(b *strings.Builder, d *MetaDirective) {
	renderDescription(b, d.Description, "")
	b.WriteString("directive @")
	b.WriteString(d.Name)
	renderArgs(b, d.Args)
	if d.IsRepeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	b.WriteString(strings.Join(d.Locations, " | "))
	b.WriteString("\n\n")
}

// EnumLiteral marks a default value that renders as a bare enum name.
type EnumLiteral string

// RenderValue renders a Go value as a GraphQL literal. Object keys are
// sorted so the output is deterministic.
func RenderValue(value any) string {
	if value == nil {
		return "null"
	}
	switch v := value.(type) {
	case EnumLiteral:
		return string(v)
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, RenderValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+RenderValue(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
