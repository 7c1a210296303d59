package schema

import "github.com/hanpama/graphcore/internal/executor"

type options struct {
	data           executor.DataMap
	extensions     []executor.ExtensionFactory
	introspection  bool
	federation     bool
	queryCacheSize int
	maxConcurrency int
}

// Option configures a Schema.
type Option func(*options)

func defaultOptions() options {
	return options{
		data:           executor.DataMap{},
		introspection:  true,
		queryCacheSize: 1000,
	}
}

// WithData adds a schema-scoped value, looked up by its dynamic type.
func WithData(v any) Option { return func(o *options) { o.data.Insert(v) } }

// WithExtension adds an extension factory. Factories run once per operation
// in the order they were added.
func WithExtension(f executor.ExtensionFactory) Option {
	return func(o *options) { o.extensions = append(o.extensions, f) }
}

// WithoutIntrospection makes `__schema` fail as an unknown field.
func WithoutIntrospection() Option { return func(o *options) { o.introspection = false } }

// WithFederation adds the federation types and the `_service` and
// `_entities` root fields.
func WithFederation() Option { return func(o *options) { o.federation = true } }

// WithQueryCacheSize sets the number of parsed documents kept. Zero
// disables the cache.
func WithQueryCacheSize(n int) Option { return func(o *options) { o.queryCacheSize = n } }

// WithMaxConcurrency bounds the goroutines resolving one selection set or
// list. Zero means unbounded.
func WithMaxConcurrency(n int) Option { return func(o *options) { o.maxConcurrency = n } }

// WithDataAs adds a schema-scoped value under the static type T, typically
// an interface.
func WithDataAs[T any](v T) Option {
	return func(o *options) { executor.InsertAs[T](o.data, v) }
}
