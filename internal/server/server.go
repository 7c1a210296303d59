// Package server serves a schema over HTTP: GET and POST requests, batched
// POST requests, multipart file uploads, subscriptions over server-sent
// events and the GraphiQL IDE.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hanpama/graphcore/internal/eventbus"
	"github.com/hanpama/graphcore/internal/events"
	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/logging"
	"github.com/hanpama/graphcore/internal/reqid"
	"github.com/hanpama/graphcore/internal/schema"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
type Handler struct {
	schema *schema.Schema
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// Subscriptions are not subject to it. 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body, uploads included.
	// 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// ForwardHeaders lists HTTP headers made available to resolvers as
	// Headers in the query data. Header names are case-insensitive.
	ForwardHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// Logger is the base request logger. Defaults to slog.Default.
	Logger *logging.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithForwardHeaders(headers ...string) Option {
	return func(o *Options) { o.ForwardHeaders = headers }
}
func WithGraphiQL(enable bool) Option          { return func(o *Options) { o.GraphiQL = enable } }
func WithLogger(logger *logging.Logger) Option { return func(o *Options) { o.Logger = logger } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// Headers are the forwarded request headers, available to resolvers with
// executor.Data[server.Headers].
type Headers http.Header

// Get returns the first value of the header key.
func (h Headers) Get(key string) string { return http.Header(h).Get(key) }

// New creates a new GraphQL HTTP handler serving s.
func New(s *schema.Schema, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = logging.FromContext(context.Background())
	}
	return &Handler{schema: s, opt: op}
}

// statusRecorder remembers the status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, rid := reqid.NewContext(r.Context(), r.Header.Get(reqid.Header))
	ctx = logging.WithLogger(ctx, h.opt.Logger.WithRequestID(rid))
	w.Header().Set(reqid.Header, rid)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: rec.status, Duration: time.Since(start)})
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(rec, r, h.opt.CORS)
	}
	if r.Method == http.MethodOptions {
		rec.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		h.writeJSON(rec, http.StatusMethodNotAllowed, badRequest("method not allowed"))
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		rec.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = rec.Write(graphiqlPage)
		return
	}

	reqs, batch, cleanup, berr := parseRequest(rec, r, h.opt.MaxBodyBytes)
	defer cleanup()
	if berr != nil {
		status := http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeJSON(rec, status, executor.ErrorResponse(berr))
		return
	}
	data := h.forwardedHeaders(r)
	for _, req := range reqs {
		req.Data = data
	}

	if !batch && acceptsEventStream(r.Header.Get("Accept")) {
		h.serveStream(ctx, rec, r, reqs[0])
		return
	}

	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	if batch {
		out := make([]*executor.Response, len(reqs))
		for i, req := range reqs {
			out[i] = h.executeOne(ctx, r.Method, req)
		}
		h.writeJSON(rec, http.StatusOK, out)
		return
	}

	resp := h.executeOne(ctx, r.Method, reqs[0])
	if r.Method == http.MethodGet {
		if v := resp.CacheControl.Value(); v != "" {
			rec.Header().Set("Cache-Control", v)
		}
	}
	h.writeJSON(rec, http.StatusOK, resp)
}

func (h *Handler) forwardedHeaders(r *http.Request) executor.DataMap {
	hdr := Headers{}
	for _, name := range h.opt.ForwardHeaders {
		if v := r.Header.Values(name); len(v) > 0 {
			hdr[http.CanonicalHeaderKey(name)] = v
		}
	}
	data := executor.DataMap{}
	data.Insert(hdr)
	return data
}

func (h *Handler) executeOne(ctx context.Context, method string, req *schema.Request) *executor.Response {
	opType := h.schema.OperationType(req)
	if opType == "subscription" {
		return executor.ErrorResponse(&executor.Error{
			Kind:      executor.ErrQuery,
			QueryKind: executor.QueryErrNotSupported,
			Message:   "Subscriptions require an Accept: text/event-stream request.",
		})
	}
	if opType == "mutation" {
		if method == http.MethodGet {
			return executor.ErrorResponse(&executor.Error{
				Kind:      executor.ErrQuery,
				QueryKind: executor.QueryErrNotSupported,
				Message:   "Mutations cannot be sent with GET.",
			})
		}
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	resp := h.schema.Execute(ctx, req)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        resp.Errors,
		Duration:      time.Since(start),
	})
	return resp
}

// ------------------ Response formatting ------------------

func badRequest(message string) *executor.Response {
	return executor.ErrorResponse(&executor.Error{Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	wildcard := false
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			wildcard = true
		}
		if o == "*" || o == origin {
			allowed = true
		}
	}
	if !allowed {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Expose-Headers", reqid.Header)
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func acceptsHTML(accept string) bool {
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}

func acceptsEventStream(accept string) bool {
	for _, p := range strings.Split(accept, ",") {
		if strings.HasPrefix(strings.TrimSpace(p), "text/event-stream") {
			return true
		}
	}
	return false
}
