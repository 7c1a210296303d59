package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Pos is a 1-based position in the query source. The zero Pos means the
// error has no location.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) IsZero() bool { return p.Line == 0 && p.Column == 0 }

func posOf(p *ast.Position) Pos {
	if p == nil {
		return Pos{}
	}
	return Pos{Line: p.Line, Column: p.Column}
}

// ErrorKind distinguishes the phase an Error originates from.
type ErrorKind int

const (
	// ErrParse is a syntax error in the query document.
	ErrParse ErrorKind = iota + 1
	// ErrValidation is a violated validation rule.
	ErrValidation
	// ErrQuery is a failure while executing an operation.
	ErrQuery
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parse"
	case ErrValidation:
		return "validation"
	case ErrQuery:
		return "query"
	}
	return "unknown"
}

// QueryErrorKind classifies ErrQuery errors.
type QueryErrorKind int

const (
	QueryErrNone QueryErrorKind = iota
	QueryErrFieldNotFound
	QueryErrNotConfiguredMutations
	QueryErrNotConfiguredSubscriptions
	QueryErrOperationNotFound
	QueryErrNotSupported
	QueryErrVariable
	QueryErrInvalidArgument
	QueryErrNonNull
	QueryErrEntityNotFound
	QueryErrResolver
	QueryErrCanceled
)

// Error is the structured error produced by parsing, validation and
// execution. Query errors carry the position of the field that failed and,
// when known, its response path.
type Error struct {
	Kind       ErrorKind
	QueryKind  QueryErrorKind
	Message    string
	Pos        Pos
	Path       []any
	Extensions map[string]any
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if !e.Pos.IsZero() {
		fmt.Fprintf(&b, "[%d:%d] ", e.Pos.Line, e.Pos.Column)
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// MarshalJSON renders the error in the GraphQL response format.
func (e *Error) MarshalJSON() ([]byte, error) {
	type location struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	}
	out := struct {
		Message    string         `json:"message"`
		Locations  []location     `json:"locations,omitempty"`
		Path       []any          `json:"path,omitempty"`
		Extensions map[string]any `json:"extensions,omitempty"`
	}{
		Message:    e.Message,
		Path:       e.Path,
		Extensions: e.Extensions,
	}
	if !e.Pos.IsZero() {
		out.Locations = []location{{Line: e.Pos.Line, Column: e.Pos.Column}}
	}
	return json.Marshal(out)
}

// NewQueryError builds an ErrQuery error.
func NewQueryError(kind QueryErrorKind, pos Pos, path *PathNode, format string, args ...any) *Error {
	return &Error{
		Kind:      ErrQuery,
		QueryKind: kind,
		Message:   fmt.Sprintf(format, args...),
		Pos:       pos,
		Path:      path.Segments(),
	}
}

// FromGQLError converts a parser or validator error.
func FromGQLError(kind ErrorKind, err *gqlerror.Error) *Error {
	out := &Error{Kind: kind, Message: err.Message, Extensions: err.Extensions, Err: err}
	if len(err.Locations) > 0 {
		out.Pos = Pos{Line: err.Locations[0].Line, Column: err.Locations[0].Column}
	}
	for _, seg := range err.Path {
		switch s := seg.(type) {
		case ast.PathName:
			out.Path = append(out.Path, string(s))
		case ast.PathIndex:
			out.Path = append(out.Path, int(s))
		}
	}
	return out
}

// FromGQLErrors converts a parser or validator error list.
func FromGQLErrors(kind ErrorKind, list gqlerror.List) []*Error {
	out := make([]*Error, 0, len(list))
	for _, err := range list {
		out = append(out, FromGQLError(kind, err))
	}
	return out
}

// IsQueryError reports whether err is an ErrQuery error of the given kind.
func IsQueryError(err error, kind QueryErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrQuery && e.QueryKind == kind
}

func IsFieldNotFound(err error) bool { return IsQueryError(err, QueryErrFieldNotFound) }

func IsNotConfiguredSubscriptions(err error) bool {
	return IsQueryError(err, QueryErrNotConfiguredSubscriptions)
}

// FieldError is an application error returned by a resolver. Its extensions
// are copied into the response error.
type FieldError struct {
	Message    string
	Extensions map[string]any
}

func (e *FieldError) Error() string { return e.Message }

// NewFieldError returns a FieldError with a formatted message.
func NewFieldError(format string, args ...any) *FieldError {
	return &FieldError{Message: fmt.Sprintf(format, args...)}
}

// WithExtension sets one extension entry and returns e.
func (e *FieldError) WithExtension(key string, value any) *FieldError {
	if e.Extensions == nil {
		e.Extensions = make(map[string]any)
	}
	e.Extensions[key] = value
	return e
}

// InputValueError is returned by InputType.ParseValue when a value cannot be
// accepted.
type InputValueError struct {
	// Value is the rejected input when the error is a type mismatch.
	Value  any
	custom string
}

// ExpectedType reports that value does not match the input type.
func ExpectedType(value any) *InputValueError {
	return &InputValueError{Value: value}
}

// NewInputValueError reports a custom parse failure.
func NewInputValueError(format string, args ...any) *InputValueError {
	return &InputValueError{custom: fmt.Sprintf(format, args...)}
}

func (e *InputValueError) Error() string { return e.Describe("") }

// Describe renders the error for an input of the named type.
func (e *InputValueError) Describe(typeName string) string {
	if e.custom != "" {
		return e.custom
	}
	if typeName == "" {
		return fmt.Sprintf("Expected input type, found %s.", registry.RenderValue(e.Value))
	}
	return fmt.Sprintf("Expected input type %q, found %s.", typeName, registry.RenderValue(e.Value))
}

// fieldFailure is an error that has already been reported to the extensions
// and is unwinding toward the nearest nullable ancestor.
type fieldFailure struct {
	err *Error
}

func (f *fieldFailure) Error() string { return f.err.Error() }
func (f *fieldFailure) Unwrap() error { return f.err }

// fatal failures ignore nullable boundaries and abort the operation.
func (f *fieldFailure) fatal() bool { return f.err.QueryKind == QueryErrCanceled }

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// sortErrors orders errors by position, then path.
func sortErrors(errs []*Error) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		if a.Pos.Column != b.Pos.Column {
			return a.Pos.Column < b.Pos.Column
		}
		return fmt.Sprint(a.Path...) < fmt.Sprint(b.Path...)
	})
}
