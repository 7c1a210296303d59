package executor

import (
	"context"
	"errors"
	"reflect"

	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// ResolveID identifies one field resolution within an operation. Current is
// unique per operation; Parent is the id of the enclosing field, or zero for
// root fields.
type ResolveID struct {
	Parent  uint64
	Current uint64
}

// resolveContext is the state shared by selection and field contexts.
type resolveContext struct {
	ctx       context.Context
	path      *PathNode
	schemaEnv *SchemaEnv
	queryEnv  *QueryEnv
}

// Context returns the request context.
func (c *resolveContext) Context() context.Context { return c.ctx }

// Path returns the response path of the value being resolved.
func (c *resolveContext) Path() *PathNode { return c.path }

func (c *resolveContext) SchemaEnv() *SchemaEnv { return c.schemaEnv }

func (c *resolveContext) QueryEnv() *QueryEnv { return c.queryEnv }

func (c *resolveContext) Registry() *registry.Registry { return c.schemaEnv.Registry }

func (c *resolveContext) lookupData(t reflect.Type) (any, bool) {
	return lookupLayered(t, c.queryEnv, c.schemaEnv)
}

func (c *resolveContext) extensions() *Extensions { return c.queryEnv.extensions }

// SelectionContext is the input of OutputType.Resolve: the selection set to
// resolve against a value and the path that value sits at.
type SelectionContext struct {
	resolveContext
	SelectionSet ast.SelectionSet

	// parentID is the resolve id of the field owning the selection set.
	parentID uint64
}

// NewSelectionContext returns the context for an operation's root selection
// set.
func NewSelectionContext(ctx context.Context, schemaEnv *SchemaEnv, queryEnv *QueryEnv, selectionSet ast.SelectionSet) *SelectionContext {
	return &SelectionContext{
		resolveContext: resolveContext{
			ctx:       ctx,
			schemaEnv: schemaEnv,
			queryEnv:  queryEnv,
		},
		SelectionSet: selectionSet,
	}
}

// FieldContext is the input of ObjectType.ResolveField.
type FieldContext struct {
	resolveContext
	Field *ast.Field
	// ParentType is the name of the object type the field is resolved on.
	ParentType string

	resolveID ResolveID
	meta      *registry.MetaField
}

func (c *FieldContext) ResolveID() ResolveID { return c.resolveID }

// Meta returns the registered definition of the field, or nil.
func (c *FieldContext) Meta() *registry.MetaField { return c.meta }

// Position returns the source position of the field.
func (c *FieldContext) Position() Pos { return posOf(c.Field.Position) }

// WithSelectionSet returns the context for resolving the field's value
// against the field's sub-selection.
func (c *FieldContext) WithSelectionSet() *SelectionContext {
	return &SelectionContext{
		resolveContext: c.resolveContext,
		SelectionSet:   c.Field.SelectionSet,
		parentID:       c.resolveID.Current,
	}
}

// Index returns the context of the i-th element of a list value.
func (c *FieldContext) Index(i int) *FieldContext {
	out := *c
	out.path = c.path.Index(i)
	return &out
}

// Arg returns the value of an argument with variables substituted. An
// argument missing from the query falls back to its registered default.
func (c *FieldContext) Arg(name string) (any, bool) {
	if arg := c.Field.Arguments.ForName(name); arg != nil {
		if arg.Value.Kind == ast.Variable {
			if v, ok := c.queryEnv.Variables[arg.Value.Raw]; ok {
				return v, true
			}
		} else {
			return valueFromAST(arg.Value, c.queryEnv.Variables), true
		}
	}
	if c.meta != nil {
		if def := c.meta.Arg(name); def != nil && def.DefaultValue != nil {
			return def.DefaultValue, true
		}
	}
	return nil, false
}

// Errorf returns a resolver error located at the field.
func (c *FieldContext) Errorf(kind QueryErrorKind, format string, args ...any) *Error {
	return NewQueryError(kind, c.Position(), c.path, format, args...)
}

// ParamValue parses the argument name into T. When the argument is absent
// and def is non-nil, def supplies the value; otherwise the absent value is
// parsed as null.
func ParamValue[T any, PT interface {
	*T
	InputType
}](c *FieldContext, name string, def func() T) (T, error) {
	var out T
	raw, ok := c.Arg(name)
	if !ok && def != nil {
		return def(), nil
	}
	p := PT(&out)
	if err := p.ParseValue(raw); err != nil {
		msg := err.Error()
		if ive, ok := err.(*InputValueError); ok {
			msg = ive.Describe(p.TypeName())
		}
		e := c.Errorf(QueryErrInvalidArgument, "Invalid value for argument %q: %s", name, msg)
		e.Err = err
		return out, e
	}
	return out, nil
}

// toError converts an error returned by a resolver into an *Error located
// at the field.
func (c *FieldContext) toError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	out := &Error{
		Kind:      ErrQuery,
		QueryKind: QueryErrResolver,
		Message:   err.Error(),
		Pos:       c.Position(),
		Path:      c.path.Segments(),
		Err:       err,
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		out.Extensions = fe.Extensions
	}
	if isCanceled(err) {
		out.QueryKind = QueryErrCanceled
	}
	return out
}

// fail reports a fresh error to the extensions, unless it is already
// unwinding, and returns it as a failure.
func (c *FieldContext) fail(err error) *fieldFailure {
	var failure *fieldFailure
	if errors.As(err, &failure) {
		return failure
	}
	e := c.toError(err)
	c.extensions().Error(e)
	return &fieldFailure{err: e}
}

// absorb stops a failure at a nullable position by recording it and
// resolving to null. At a non-null position the failure continues upward.
func (c *FieldContext) absorb(err error, nonNull bool) (any, error) {
	failure := c.fail(err)
	if nonNull || failure.fatal() {
		return nil, failure
	}
	c.queryEnv.addError(failure.err)
	return nil, nil
}

func (c *FieldContext) nonNullError() *Error {
	return c.Errorf(QueryErrNonNull, "Cannot return null for non-nullable field %s.%s.", c.ParentType, c.Field.Name)
}

func (c *FieldContext) resolveInfo() *ResolveInfo {
	info := &ResolveInfo{
		ResolveID:  c.resolveID,
		Path:       c.path,
		FieldName:  c.Field.Name,
		ParentType: c.ParentType,
		SchemaEnv:  c.schemaEnv,
		QueryEnv:   c.queryEnv,
	}
	if c.meta != nil {
		info.ReturnType = c.meta.Type.String()
	}
	return info
}
