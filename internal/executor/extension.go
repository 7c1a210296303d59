package executor

import (
	"context"
	"reflect"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
)

// Extension observes the phases of an operation. It never changes the
// result; it may contribute a named entry to the response extensions.
//
// ResolveStart and ResolveEnd for different fields interleave when fields
// resolve concurrently. Extensions that correlate the two must key their
// state by ResolveInfo.ResolveID.
type Extension interface {
	// Name is the key of the Result entry; extensions without a result
	// return "".
	Name() string
	ParseStart(query string, variables map[string]any)
	ParseEnd(doc *ast.QueryDocument)
	ValidationStart()
	ValidationEnd()
	ExecutionStart()
	ExecutionEnd()
	ResolveStart(info *ResolveInfo)
	ResolveEnd(info *ResolveInfo)
	Error(err *Error)
	// Result is called once when the operation finishes.
	Result() any
}

// ExtensionFactory creates the extension instance of one operation.
type ExtensionFactory func(ctx context.Context) Extension

// ExtensionBase implements every Extension hook as a no-op. Embed it and
// override the hooks you need.
type ExtensionBase struct{}

func (ExtensionBase) Name() string                      { return "" }
func (ExtensionBase) ParseStart(string, map[string]any) {}
func (ExtensionBase) ParseEnd(*ast.QueryDocument)       {}
func (ExtensionBase) ValidationStart()                  {}
func (ExtensionBase) ValidationEnd()                    {}
func (ExtensionBase) ExecutionStart()                   {}
func (ExtensionBase) ExecutionEnd()                     {}
func (ExtensionBase) ResolveStart(*ResolveInfo)         {}
func (ExtensionBase) ResolveEnd(*ResolveInfo)           {}
func (ExtensionBase) Error(*Error)                      {}
func (ExtensionBase) Result() any                       { return nil }

// ResolveInfo describes the field being resolved to ResolveStart and
// ResolveEnd. It is valid only for the duration of those calls.
type ResolveInfo struct {
	ResolveID  ResolveID
	Path       *PathNode
	FieldName  string
	ParentType string
	// ReturnType is the declared type in SDL notation, e.g. "[User!]!".
	ReturnType string
	SchemaEnv  *SchemaEnv
	QueryEnv   *QueryEnv
}

func (i *ResolveInfo) lookupData(t reflect.Type) (any, bool) {
	return lookupLayered(t, i.QueryEnv, i.SchemaEnv)
}

// Extensions is the ordered chain of an operation's extensions. Every hook
// is forwarded to each member in registration order while holding one lock,
// so members need no synchronization of their own. A nil chain is valid and
// does nothing.
type Extensions struct {
	mu   sync.Mutex
	list []Extension
}

var _ Extension = (*Extensions)(nil)

func NewExtensions(list ...Extension) *Extensions {
	return &Extensions{list: list}
}

// NewExtensionsFrom instantiates the factories for one operation.
func NewExtensionsFrom(ctx context.Context, factories []ExtensionFactory) *Extensions {
	list := make([]Extension, 0, len(factories))
	for _, f := range factories {
		list = append(list, f(ctx))
	}
	return NewExtensions(list...)
}

func (e *Extensions) each(fn func(Extension)) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ext := range e.list {
		fn(ext)
	}
}

func (e *Extensions) Name() string { return "" }

func (e *Extensions) ParseStart(query string, variables map[string]any) {
	e.each(func(x Extension) { x.ParseStart(query, variables) })
}

func (e *Extensions) ParseEnd(doc *ast.QueryDocument) {
	e.each(func(x Extension) { x.ParseEnd(doc) })
}

func (e *Extensions) ValidationStart() { e.each(func(x Extension) { x.ValidationStart() }) }
func (e *Extensions) ValidationEnd()   { e.each(func(x Extension) { x.ValidationEnd() }) }
func (e *Extensions) ExecutionStart()  { e.each(func(x Extension) { x.ExecutionStart() }) }
func (e *Extensions) ExecutionEnd()    { e.each(func(x Extension) { x.ExecutionEnd() }) }

func (e *Extensions) ResolveStart(info *ResolveInfo) {
	e.each(func(x Extension) { x.ResolveStart(info) })
}

func (e *Extensions) ResolveEnd(info *ResolveInfo) {
	e.each(func(x Extension) { x.ResolveEnd(info) })
}

func (e *Extensions) Error(err *Error) { e.each(func(x Extension) { x.Error(err) }) }

// Result returns the map of named member results, or nil when no member
// contributed.
func (e *Extensions) Result() any {
	if m := e.Results(); m != nil {
		return m
	}
	return nil
}

// Results collects the non-nil results of named members. It returns nil,
// not an empty map, when there are none.
func (e *Extensions) Results() map[string]any {
	var out map[string]any
	e.each(func(x Extension) {
		name := x.Name()
		if name == "" {
			return
		}
		v := x.Result()
		if v == nil {
			return
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[name] = v
	})
	return out
}
