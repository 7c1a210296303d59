package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/graphcore/internal/eventbus"
	"github.com/hanpama/graphcore/internal/events"
	"github.com/hanpama/graphcore/internal/reqid"
	"github.com/stretchr/testify/require"
)

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func get(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(query), nil)
}

func TestServeHTTP_Result(t *testing.T) {
	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
		wantBody   string
	}{
		{
			name:       "post query",
			req:        func() *http.Request { return postJSON(`{"query":"{ hello }"}`) },
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"hello":"world"}}`,
		},
		{
			name:       "get query",
			req:        func() *http.Request { return get("{ hello }") },
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"hello":"world"}}`,
		},
		{
			name: "get with variables",
			req: func() *http.Request {
				q := url.Values{}
				q.Set("query", "query($n: String!) { header(name: $n) }")
				q.Set("variables", `{"n":"X-None"}`)
				return httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"header":null}}`,
		},
		{
			name: "batch",
			req: func() *http.Request {
				return postJSON(`[{"query":"{ hello }"},{"query":"{ cached }"}]`)
			},
			wantStatus: http.StatusOK,
			wantBody:   `[{"data":{"hello":"world"}},{"data":{"cached":"static"}}]`,
		},
		{
			name: "content type with charset",
			req: func() *http.Request {
				r := postJSON(`{"query":"{ hello }"}`)
				r.Header.Set("Content-Type", "application/json; charset=utf-8")
				return r
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"hello":"world"}}`,
		},
		{
			name:       "invalid json",
			req:        func() *http.Request { return postJSON(`{"query":`) },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":[{"message":"invalid JSON"}]}`,
		},
		{
			name:       "missing query",
			req:        func() *http.Request { return postJSON(`{"variables":{}}`) },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":[{"message":"missing 'query'"}]}`,
		},
		{
			name:       "empty batch",
			req:        func() *http.Request { return postJSON(`[]`) },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":[{"message":"empty batch"}]}`,
		},
		{
			name: "unsupported content type",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{ hello }"))
				r.Header.Set("Content-Type", "text/plain")
				return r
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":[{"message":"unsupported Content-Type"}]}`,
		},
		{
			name:       "method not allowed",
			req:        func() *http.Request { return httptest.NewRequest(http.MethodPut, "/graphql", nil) },
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"errors":[{"message":"method not allowed"}]}`,
		},
		{
			name:       "mutation over get",
			req:        func() *http.Request { return get(`mutation { upload(file: null) }`) },
			wantStatus: http.StatusOK,
			wantBody:   `{"errors":[{"message":"Mutations cannot be sent with GET."}]}`,
		},
		{
			name:       "subscription without event stream",
			req:        func() *http.Request { return postJSON(`{"query":"subscription { ticks }"}`) },
			wantStatus: http.StatusOK,
			wantBody:   `{"errors":[{"message":"Subscriptions require an Accept: text/event-stream request."}]}`,
		},
		{
			name:       "validation error",
			req:        func() *http.Request { return postJSON(`{"query":"{ nope }"}`) },
			wantStatus: http.StatusOK,
			wantBody:   `{"errors":[{"message":"Cannot query field \"nope\" on type \"Query\".","locations":[{"line":1,"column":3}]}]}`,
		},
	}
	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tt.req())

			// Pattern: Result comparison
			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			if diff := cmp.Diff(tt.wantBody, strings.TrimSpace(w.Body.String())); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	h := newTestHandler(t, WithPretty())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON(`{"query":"{ hello }"}`))
	require.Equal(t, "{\n  \"data\": {\n    \"hello\": \"world\"\n  }\n}\n", w.Body.String())
}

func TestCacheControlHeader(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, get("{ cached }"))
	require.Equal(t, "max-age=60", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON(`{"query":"{ cached }"}`))
	require.Empty(t, w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, get("{ hello }"))
	require.Empty(t, w.Header().Get("Cache-Control"))
}

func TestForwardedHeaders(t *testing.T) {
	h := newTestHandler(t, WithForwardHeaders("x-test"))

	req := postJSON(`{"query":"{ a: header(name: \"X-Test\") b: header(name: \"X-Other\") }"}`)
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"a":"abc","b":null}}`, w.Body.String())
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	h := newTestHandler(t)

	req := postJSON(`{"query":"{ header(name: \"X-Test\") }"}`)
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.JSONEq(t, `{"data":{"header":null}}`, w.Body.String())
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("*"))

	// simple request
	req := postJSON(`{"query":"{ hello }"}`)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight
	pre := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
	require.Equal(t, "GET,POST,OPTIONS", pw.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSOriginList(t *testing.T) {
	h := newTestHandler(t, WithCORS("http://a.example"))

	req := postJSON(`{"query":"{ hello }"}`)
	req.Header.Set("Origin", "http://a.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "http://a.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))

	req = postJSON(`{"query":"{ hello }"}`)
	req.Header.Set("Origin", "http://b.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(10))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postJSON(`{"query":"1234567890"}`))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(t)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, postJSON(`{"query":"{ requestId }"}`))
		id := w.Header().Get(reqid.Header)
		require.NotEmpty(t, id)
		require.JSONEq(t, fmt.Sprintf(`{"data":{"requestId":%q}}`, id), w.Body.String())
	})
	t.Run("propagated", func(t *testing.T) {
		req := postJSON(`{"query":"{ requestId }"}`)
		req.Header.Set(reqid.Header, "req-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, "req-1", w.Header().Get(reqid.Header))
		require.JSONEq(t, `{"data":{"requestId":"req-1"}}`, w.Body.String())
	})
}

func TestGraphiQL(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "GraphiQL")

	off := newTestHandler(t, WithGraphiQL(false))
	w = httptest.NewRecorder()
	off.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

type multipartFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, operations, fileMap string, files ...multipartFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("operations", operations))
	require.NoError(t, mw.WriteField("map", fileMap))
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/graphql", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload_Result(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantBody   string
	}{
		{
			name: "single file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t,
					`{"query":"mutation($f: Upload!) { upload(file: $f) }","variables":{"f":null}}`,
					`{"0":["variables.f"]}`,
					multipartFile{"0", "a.txt", "hello"})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"upload":"a.txt:hello"}}`,
		},
		{
			name: "file list in batch",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t,
					`[{"query":"mutation($fs: [Upload!]!) { uploadMany(files: $fs) }","variables":{"fs":[null,null]}}]`,
					`{"a":["0.variables.fs.0"],"b":["0.variables.fs.1"]}`,
					multipartFile{"a", "a.txt", "A"},
					multipartFile{"b", "b.txt", "B"})
			},
			wantStatus: http.StatusOK,
			wantBody:   `[{"data":{"uploadMany":"a.txt:A,b.txt:B"}}]`,
		},
		{
			name: "one file at two paths",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t,
					`{"query":"mutation($fs: [Upload!]!) { uploadMany(files: $fs) }","variables":{"fs":[null,null]}}`,
					`{"0":["variables.fs.0","variables.fs.1"]}`,
					multipartFile{"0", "a.txt", "A"})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"uploadMany":"a.txt:A,a.txt:A"}}`,
		},
		{
			name: "path outside variables",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t,
					`{"query":"mutation($f: Upload!) { upload(file: $f) }","variables":{"f":null}}`,
					`{"0":["query"]}`,
					multipartFile{"0", "a.txt", "hello"})
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":[{"message":"invalid file map path \"query\""}]}`,
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t,
					`{"query":"mutation($f: Upload!) { upload(file: $f) }","variables":{"f":null}}`,
					`{"0":["variables.f"]}`)
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":[{"message":"missing file field \"0\""}]}`,
		},
	}
	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tt.req(t))

			// Pattern: Result comparison
			require.Equal(t, tt.wantStatus, w.Code)
			if diff := cmp.Diff(tt.wantBody, strings.TrimSpace(w.Body.String())); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEventStream_Result(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "subscription",
			query: `subscription { ticks }`,
			want: "event: next\ndata: {\"data\":{\"ticks\":1}}\n\n" +
				"event: next\ndata: {\"data\":{\"ticks\":2}}\n\n" +
				"event: complete\ndata: \n\n",
		},
		{
			name:  "query",
			query: `{ hello }`,
			want:  "event: next\ndata: {\"data\":{\"hello\":\"world\"}}\n\nevent: complete\ndata: \n\n",
		},
		{
			name:  "validation error",
			query: `subscription { nope }`,
			want: "event: next\ndata: {\"errors\":[{\"message\":\"Cannot query field \\\"nope\\\" on type \\\"Subscription\\\".\",\"locations\":[{\"line\":1,\"column\":16}]}]}\n\n" +
				"event: complete\ndata: \n\n",
		},
	}
	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"query": tt.query})
			require.NoError(t, err)
			req := postJSON(string(body))
			req.Header.Set("Accept", "text/event-stream")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			// Pattern: Result comparison
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
			if diff := cmp.Diff(tt.want, w.Body.String()); diff != "" {
				t.Errorf("stream mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvents_Calls(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var calls []string
	eventbus.On(bus, func(_ context.Context, e events.HTTPStart) {
		calls = append(calls, "http start "+e.Request.Method)
	})
	eventbus.On(bus, func(_ context.Context, e events.HTTPFinish) {
		calls = append(calls, fmt.Sprintf("http finish %d", e.Status))
	})
	eventbus.On(bus, func(_ context.Context, e events.GraphQLStart) {
		calls = append(calls, "graphql start "+e.OperationType+" "+e.OperationName)
	})
	eventbus.On(bus, func(_ context.Context, e events.GraphQLFinish) {
		calls = append(calls, fmt.Sprintf("graphql finish %s %d errors", e.OperationName, len(e.Errors)))
	})
	eventbus.On(bus, func(_ context.Context, e events.SubscriptionStart) {
		calls = append(calls, "subscription start "+e.OperationName)
	})
	eventbus.On(bus, func(_ context.Context, e events.SubscriptionEvent) {
		calls = append(calls, "subscription event "+e.OperationName)
	})
	eventbus.On(bus, func(_ context.Context, e events.SubscriptionFinish) {
		calls = append(calls, fmt.Sprintf("subscription finish %s %d events", e.OperationName, e.Events))
	})

	h := newTestHandler(t)
	h.ServeHTTP(httptest.NewRecorder(), postJSON(`{"query":"query Q { hello }"}`))
	h.ServeHTTP(httptest.NewRecorder(), postJSON(`{"query":"{ nope }"}`))
	sub := postJSON(`{"query":"subscription S { ticks }"}`)
	sub.Header.Set("Accept", "text/event-stream")
	h.ServeHTTP(httptest.NewRecorder(), sub)
	h.ServeHTTP(httptest.NewRecorder(), postJSON(`{"query":`))

	// Pattern: Calls comparison
	want := []string{
		"http start POST",
		"graphql start query Q",
		"graphql finish Q 0 errors",
		"http finish 200",
		"http start POST",
		"graphql start query ",
		"graphql finish  1 errors",
		"http finish 200",
		"http start POST",
		"subscription start S",
		"subscription event S",
		"subscription event S",
		"subscription finish S 2 events",
		"http finish 200",
		"http start POST",
		"http finish 400",
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
