// Package schema assembles the root types of a GraphQL service into an
// executable schema and runs operations against it.
package schema

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/language"
	"github.com/hanpama/graphcore/internal/registry"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Request is one GraphQL operation request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`

	// Data holds query-scoped values, looked up before the schema's own.
	Data executor.DataMap `json:"-"`
}

// Schema is an executable schema. It is safe for concurrent use.
type Schema struct {
	reg          *registry.Registry
	env          *executor.SchemaEnv
	query        *QueryRoot
	mutation     executor.ObjectType
	subscription executor.SubscriptionType
	validation   *ast.Schema
	opts         options
	cache        *lru.Cache[string, *document]
}

// document is a parsed query and the outcome of validating it. Validation
// annotates the AST, so a cached document is validated exactly once.
type document struct {
	doc  *ast.QueryDocument
	once sync.Once
	errs gqlerror.List
}

func (d *document) validate(schema *ast.Schema) gqlerror.List {
	d.once.Do(func() { d.errs = language.Validate(schema, d.doc) })
	return d.errs
}

// New builds a schema from its root types. mutation and subscription may be
// executor.EmptyMutation and executor.EmptySubscription.
func New(query executor.ObjectType, mutation executor.ObjectType, subscription executor.SubscriptionType, opts ...Option) (*Schema, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	reg := registry.New()
	root := NewQueryRoot(query, o.introspection)
	reg.QueryType = root.CreateTypeInfo(reg)
	if mutation != nil {
		name := mutation.CreateTypeInfo(reg)
		if !isEmpty(mutation) {
			reg.MutationType = name
		}
	}
	if subscription != nil {
		name := subscription.CreateTypeInfo(reg)
		if !subscription.IsEmpty() {
			reg.SubscriptionType = name
		}
	}
	if o.federation {
		reg.CreateFederationTypes()
	}
	if err := reg.Check(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	validation, err := language.LoadSchema("schema.graphql", reg.ExportSDL(false))
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	s := &Schema{
		reg:          reg,
		env:          executor.NewSchemaEnv(reg, o.data),
		query:        root,
		mutation:     mutation,
		subscription: subscription,
		validation:   validation,
		opts:         o,
	}
	if o.queryCacheSize > 0 {
		s.cache, err = lru.New[string, *document](o.queryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
	}
	return s, nil
}

func isEmpty(v any) bool {
	e, ok := v.(executor.Emptiable)
	return ok && e.IsEmpty()
}

// Registry returns the type registry. It must not be modified.
func (s *Schema) Registry() *registry.Registry { return s.reg }

// SDL exports the schema definition language of the schema. With
// federation set it is the service SDL served by `_service`.
func (s *Schema) SDL(federation bool) string { return s.reg.ExportSDL(federation) }

// OperationType returns the type of the operation req selects: "query",
// "mutation" or "subscription". It returns "" when the query does not parse
// or selects no operation. Parsed queries go through the query cache.
func (s *Schema) OperationType(req *Request) string {
	d, err := s.parse(req.Query)
	if err != nil {
		return ""
	}
	op, operr := executor.GetOperation(d.doc, req.OperationName)
	if operr != nil {
		return ""
	}
	return string(op.Operation)
}

// Execute runs a query or mutation operation.
func (s *Schema) Execute(ctx context.Context, req *Request) *executor.Response {
	chain := executor.NewExtensionsFrom(ctx, s.opts.extensions)
	resp := s.execute(ctx, req, chain)
	resp.Extensions = chain.Results()
	return resp
}

func (s *Schema) execute(ctx context.Context, req *Request, chain *executor.Extensions) *executor.Response {
	q, fail := s.prepare(req, chain)
	if fail != nil {
		return fail
	}

	var root executor.ObjectType
	serial := false
	switch q.Operation.Operation {
	case ast.Query:
		root = s.query
	case ast.Mutation:
		if s.reg.MutationType == "" {
			return s.reject(chain, executor.NewQueryError(executor.QueryErrNotConfiguredMutations, executor.Pos{}, nil, "Schema is not configured for mutations."))
		}
		root = s.mutation
		serial = true
	default:
		return s.reject(chain, executor.NewQueryError(executor.QueryErrNotSupported, executor.Pos{}, nil, "Subscription operations are served by Subscribe."))
	}

	sc := executor.NewSelectionContext(ctx, s.env, q, q.Operation.SelectionSet)
	chain.ExecutionStart()
	resp := executor.ExecuteRoot(sc, root, serial)
	chain.ExecutionEnd()
	if q.Operation.Operation == ast.Query && resp.IsOK() {
		resp.CacheControl = cacheControl(s.reg, q.Document, q.Operation)
	}
	return resp
}

// Subscribe runs a subscription operation. The returned sequence is lazy:
// nothing runs until it is iterated, and stopping the iteration closes the
// underlying stream. Failures before the stream opens are yielded as a
// single error response carrying the extension results. Streamed events
// carry no extension results.
func (s *Schema) Subscribe(ctx context.Context, req *Request) iter.Seq[*executor.Response] {
	return func(yield func(*executor.Response) bool) {
		chain := executor.NewExtensionsFrom(ctx, s.opts.extensions)
		q, fail := s.prepare(req, chain)
		if fail != nil {
			fail.Extensions = chain.Results()
			yield(fail)
			return
		}
		if q.Operation.Operation != ast.Subscription {
			fail := s.reject(chain, executor.NewQueryError(executor.QueryErrNotSupported, executor.Pos{}, nil, "Only subscription operations can be subscribed to."))
			fail.Extensions = chain.Results()
			yield(fail)
			return
		}
		if s.reg.SubscriptionType == "" {
			fail := s.reject(chain, executor.NewQueryError(executor.QueryErrNotConfiguredSubscriptions, executor.Pos{}, nil, "Schema is not configured for subscriptions."))
			fail.Extensions = chain.Results()
			yield(fail)
			return
		}

		sc := executor.NewSelectionContext(ctx, s.env, q, q.Operation.SelectionSet)
		chain.ExecutionStart()
		defer chain.ExecutionEnd()
		for resp := range executor.ResolveSubscription(sc, s.subscription) {
			if !yield(resp) {
				return
			}
		}
	}
}

// prepare runs the parse, validation and variable phases and returns the
// query scope of the selected operation, or the response ending the
// request.
func (s *Schema) prepare(req *Request, chain *executor.Extensions) (*executor.QueryEnv, *executor.Response) {
	chain.ParseStart(req.Query, req.Variables)
	d, err := s.parse(req.Query)
	if err != nil {
		return nil, s.reject(chain, err)
	}
	chain.ParseEnd(d.doc)

	chain.ValidationStart()
	verrs := d.validate(s.validation)
	chain.ValidationEnd()
	if len(verrs) > 0 {
		return nil, s.reject(chain, executor.FromGQLErrors(executor.ErrValidation, verrs)...)
	}

	op, operr := executor.GetOperation(d.doc, req.OperationName)
	if operr != nil {
		return nil, s.reject(chain, operr)
	}
	vars, verr := executor.CoerceVariables(s.reg, op, req.Variables)
	if verr != nil {
		return nil, s.reject(chain, verr)
	}

	return executor.NewQueryEnv(executor.QueryEnvConfig{
		Document:       d.doc,
		Operation:      op,
		Variables:      vars,
		Data:           req.Data,
		Extensions:     chain,
		MaxConcurrency: s.opts.maxConcurrency,
	}), nil
}

// parse returns the parsed document of query, from the cache when possible.
func (s *Schema) parse(query string) (*document, *executor.Error) {
	if s.cache != nil {
		if d, ok := s.cache.Get(query); ok {
			return d, nil
		}
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		var gqlErr *gqlerror.Error
		if errors.As(err, &gqlErr) {
			return nil, executor.FromGQLError(executor.ErrParse, gqlErr)
		}
		return nil, &executor.Error{Kind: executor.ErrParse, Message: err.Error(), Err: err}
	}
	d := &document{doc: doc}
	if s.cache != nil {
		s.cache.Add(query, d)
	}
	return d, nil
}

// reject reports errs to the extensions and returns them as the response.
func (s *Schema) reject(chain *executor.Extensions, errs ...*executor.Error) *executor.Response {
	for _, e := range errs {
		chain.Error(e)
	}
	return executor.ErrorResponse(errs...)
}
