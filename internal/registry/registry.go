// Package registry holds the schema-lifetime catalog of type metadata.
//
// A Registry is populated once while a schema is built: every type that takes
// part in the schema registers its MetaType through CreateType. After the build
// the registry is read-only and may be shared by concurrent resolutions.
package registry

import (
	"sort"
	"strconv"
	"strings"
)

// Registry maps type names to their metadata.
type Registry struct {
	Types            map[string]*MetaType
	Directives       map[string]*MetaDirective
	QueryType        string
	MutationType     string
	SubscriptionType string
	Description      string

	implements map[string][]string
}

// New returns a registry holding only the built-in directives.
func New() *Registry {
	r := &Registry{
		Types:      make(map[string]*MetaType),
		Directives: make(map[string]*MetaDirective),
		implements: make(map[string][]string),
	}
	for _, d := range builtinDirectives() {
		r.Directives[d.Name] = d
	}
	return r
}

// CreateType registers the type produced by build under name unless a type of
// that name is already present, and returns name. A placeholder is stored
// before build runs so self-referencing types terminate.
func (r *Registry) CreateType(name string, build func(r *Registry) *MetaType) string {
	if _, ok := r.Types[name]; ok {
		return name
	}
	r.Types[name] = &MetaType{Kind: TypeKindObject, Name: name}
	t := build(r)
	if t.Name == "" {
		t.Name = name
	}
	r.Types[name] = t
	return name
}

// Lookup returns the named type or nil.
func (r *Registry) Lookup(name string) *MetaType { return r.Types[name] }

// AddImplements records that typeName implements the interface iface.
func (r *Registry) AddImplements(typeName, iface string) {
	for _, existing := range r.implements[typeName] {
		if existing == iface {
			return
		}
	}
	r.implements[typeName] = append(r.implements[typeName], iface)
}

// Interfaces returns the interfaces implemented by typeName in registration order.
func (r *Registry) Interfaces(typeName string) []string {
	return r.implements[typeName]
}

// PossibleTypes returns the sorted concrete types of an abstract type. For a
// union these are its members; for an interface they are its declared
// possible types plus every type registered as implementing it.
func (r *Registry) PossibleTypes(t *MetaType) []string {
	if t == nil || !t.IsAbstract() {
		return nil
	}
	seen := make(map[string]struct{}, len(t.PossibleTypes))
	for _, name := range t.PossibleTypes {
		seen[name] = struct{}{}
	}
	if t.Kind == TypeKindInterface {
		for typeName, ifaces := range r.implements {
			for _, iface := range ifaces {
				if iface == t.Name {
					seen[typeName] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsPossibleType reports whether concrete satisfies the type condition named
// by cond.
func (r *Registry) IsPossibleType(cond, concrete string) bool {
	if cond == concrete {
		return true
	}
	t := r.Types[cond]
	if t == nil {
		return false
	}
	for _, name := range r.PossibleTypes(t) {
		if name == concrete {
			return true
		}
	}
	return false
}

// Entities returns the sorted names of object types declaring key fields.
func (r *Registry) Entities() []string {
	var out []string
	for name, t := range r.Types {
		if t.Kind == TypeKindObject && len(t.Keys) > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// RootType returns the root type for an operation keyword ("query",
// "mutation" or "subscription").
func (r *Registry) RootType(operation string) *MetaType {
	switch operation {
	case "", "query":
		return r.Types[r.QueryType]
	case "mutation":
		if r.MutationType == "" {
			return nil
		}
		return r.Types[r.MutationType]
	case "subscription":
		if r.SubscriptionType == "" {
			return nil
		}
		return r.Types[r.SubscriptionType]
	}
	return nil
}

// MetaType describes a named type of any kind.
type MetaType struct {
	Kind           TypeKind
	Name           string
	Description    string
	Fields         []*MetaField      // OBJECT and INTERFACE
	PossibleTypes  []string          // INTERFACE and UNION
	EnumValues     []*MetaEnumValue  // ENUM
	InputFields    []*MetaInputValue // INPUT_OBJECT
	SpecifiedByURL string            // SCALAR
	CacheControl   CacheControl
	// Extends marks an object owned by another federated service.
	Extends bool
	// Keys lists the @key field sets of a federated entity.
	Keys []string
	// IsValid reports whether a raw input value is acceptable for a scalar.
	IsValid func(value any) bool `json:"-"`
}

// TypeKind is the introspection kind of a named type.
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// Field returns the field with the exact name or nil.
func (t *MetaType) Field(name string) *MetaField {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddField appends f, replacing an existing field of the same name in place.
func (t *MetaType) AddField(f *MetaField) *MetaType {
	for i, existing := range t.Fields {
		if existing.Name == f.Name {
			t.Fields[i] = f
			return t
		}
	}
	t.Fields = append(t.Fields, f)
	return t
}

// InputField returns the input field with the exact name or nil.
func (t *MetaType) InputField(name string) *MetaInputValue {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnumValue returns the enum value with the exact name or nil.
func (t *MetaType) EnumValue(name string) *MetaEnumValue {
	for _, v := range t.EnumValues {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (t *MetaType) IsComposite() bool {
	return t.Kind == TypeKindObject || t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

func (t *MetaType) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

func (t *MetaType) IsLeaf() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum
}

func (t *MetaType) IsInput() bool {
	return t.IsLeaf() || t.Kind == TypeKindInputObject
}

// MetaField describes a field of an object or interface.
type MetaField struct {
	Name              string
	Description       string
	Args              []*MetaInputValue
	Type              *TypeRef
	IsDeprecated      bool
	DeprecationReason string
	CacheControl      CacheControl
	// Federation directives.
	External bool
	Requires string
	Provides string
}

// Arg returns the argument with the exact name or nil.
func (f *MetaField) Arg(name string) *MetaInputValue {
	for _, a := range f.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type MetaInputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type MetaEnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type MetaDirective struct {
	Name         string
	Description  string
	Locations    []string
	Args         []*MetaInputValue
	IsRepeatable bool
}

// CacheControl is a cache hint attached to types and fields. The zero value
// means public and uncached.
type CacheControl struct {
	Private bool
	MaxAge  int
}

// Merge combines two hints: the result is private if either is, and its
// max age is the smallest non-zero age.
func (c CacheControl) Merge(o CacheControl) CacheControl {
	out := CacheControl{Private: c.Private || o.Private}
	switch {
	case c.MaxAge == 0:
		out.MaxAge = o.MaxAge
	case o.MaxAge == 0:
		out.MaxAge = c.MaxAge
	default:
		out.MaxAge = min(c.MaxAge, o.MaxAge)
	}
	return out
}

// Value renders the hint as a Cache-Control header value, or "" when the
// hint does not allow caching.
func (c CacheControl) Value() string {
	if c.MaxAge <= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("max-age=")
	b.WriteString(strconv.Itoa(c.MaxAge))
	if c.Private {
		b.WriteString(", private")
	}
	return b.String()
}
