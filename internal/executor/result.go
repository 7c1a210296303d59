package executor

import "github.com/hanpama/graphcore/internal/registry"

// Response is the outcome of one operation, or of one subscription event.
// Data is absent when the operation failed before or during execution as a
// whole; Extensions is absent when no extension contributed a result.
type Response struct {
	Data       any            `json:"data,omitempty"`
	Errors     []*Error       `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
	// CacheControl is the merged cache hint of the selected fields.
	CacheControl registry.CacheControl `json:"-"`
}

// ErrorResponse returns a response carrying only errs.
func ErrorResponse(errs ...*Error) *Response {
	return &Response{Errors: errs}
}

// IsOK reports whether the response has no errors.
func (r *Response) IsOK() bool { return len(r.Errors) == 0 }
