package executor

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hanpama/graphcore/internal/registry"
	"github.com/vektah/gqlparser/v2/ast"
)

// DataMap stores values keyed by their dynamic type.
type DataMap map[reflect.Type]any

// Insert stores v under its dynamic type, replacing any previous value.
func (d DataMap) Insert(v any) {
	d[reflect.TypeOf(v)] = v
}

// InsertAs stores v under the static type T. Use it to key a value by an
// interface type.
func InsertAs[T any](d DataMap, v T) {
	d[reflect.TypeFor[T]()] = v
}

// SchemaEnv is the schema-lifetime scope: the registry and the data supplied
// when the schema was built. It is read-only after construction.
type SchemaEnv struct {
	Registry *registry.Registry
	data     DataMap
}

func NewSchemaEnv(reg *registry.Registry, data DataMap) *SchemaEnv {
	if data == nil {
		data = DataMap{}
	}
	return &SchemaEnv{Registry: reg, data: data}
}

// QueryEnv is the scope of one operation. Its data map and variables are
// fixed at construction; the resolve-id counter and the error sink are the
// only state that changes while the operation runs.
type QueryEnv struct {
	Document  *ast.QueryDocument
	Operation *ast.OperationDefinition
	Variables map[string]any

	data           DataMap
	extensions     *Extensions
	maxConcurrency int
	nextID         atomic.Uint64

	errMu sync.Mutex
	errs  []*Error
}

// QueryEnvConfig holds the inputs of NewQueryEnv.
type QueryEnvConfig struct {
	Document  *ast.QueryDocument
	Operation *ast.OperationDefinition
	Variables map[string]any
	Data      DataMap
	// Extensions may be nil.
	Extensions *Extensions
	// MaxConcurrency bounds the goroutines resolving one selection set;
	// zero means unbounded.
	MaxConcurrency int
}

func NewQueryEnv(cfg QueryEnvConfig) *QueryEnv {
	if cfg.Data == nil {
		cfg.Data = DataMap{}
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]any{}
	}
	return &QueryEnv{
		Document:       cfg.Document,
		Operation:      cfg.Operation,
		Variables:      cfg.Variables,
		data:           cfg.Data,
		extensions:     cfg.Extensions,
		maxConcurrency: cfg.MaxConcurrency,
	}
}

// Extensions returns the extension chain of the operation.
func (q *QueryEnv) Extensions() *Extensions { return q.extensions }

func (q *QueryEnv) nextResolveID() uint64 { return q.nextID.Add(1) }

func (q *QueryEnv) addError(err *Error) {
	q.errMu.Lock()
	q.errs = append(q.errs, err)
	q.errMu.Unlock()
}

// TakeErrors returns the recorded errors sorted by position and clears the
// sink.
func (q *QueryEnv) TakeErrors() []*Error {
	q.errMu.Lock()
	errs := q.errs
	q.errs = nil
	q.errMu.Unlock()
	sortErrors(errs)
	return errs
}

// DataSource is a scope that can be searched for data by type. Contexts and
// ResolveInfo implement it.
type DataSource interface {
	lookupData(t reflect.Type) (any, bool)
}

func lookupLayered(t reflect.Type, q *QueryEnv, s *SchemaEnv) (any, bool) {
	if q != nil {
		if v, ok := q.data[t]; ok {
			return v, true
		}
	}
	if s != nil {
		if v, ok := s.data[t]; ok {
			return v, true
		}
	}
	return nil, false
}

// Data returns the value of type T from the query scope, falling back to the
// schema scope.
func Data[T any](src DataSource) (T, error) {
	if v, ok := DataOpt[T](src); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("Data `%s` does not exist.", reflect.TypeFor[T]())
}

// DataUnchecked is Data for values the schema cannot work without. A miss is
// a programming error and panics.
func DataUnchecked[T any](src DataSource) T {
	v, err := Data[T](src)
	if err != nil {
		panic(err)
	}
	return v
}

// DataOpt is Data reporting a miss with false.
func DataOpt[T any](src DataSource) (T, bool) {
	var zero T
	if src == nil {
		return zero, false
	}
	v, ok := src.lookupData(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
