package extensions

import (
	"context"
	"sort"
	"time"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/language"
)

// ApolloTracing contributes resolver timings in the Apollo tracing format
// under the "tracing" response extension.
type ApolloTracing struct {
	executor.ExtensionBase
	now        func() time.Time
	start      time.Time
	parsing    phase
	validation phase
	pending    map[uint64]time.Time
	resolvers  []ResolverTrace
}

type phase struct {
	StartOffset int64 `json:"startOffset"`
	Duration    int64 `json:"duration"`
}

// ResolverTrace is the timing of one field resolution.
type ResolverTrace struct {
	Path        []any  `json:"path"`
	ParentType  string `json:"parentType"`
	FieldName   string `json:"fieldName"`
	ReturnType  string `json:"returnType"`
	StartOffset int64  `json:"startOffset"`
	Duration    int64  `json:"duration"`
}

// TracingResult is the value of the "tracing" extension. Offsets and
// durations are in nanoseconds.
type TracingResult struct {
	Version    int       `json:"version"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Duration   int64     `json:"duration"`
	Parsing    phase     `json:"parsing"`
	Validation phase     `json:"validation"`
	Execution  struct {
		Resolvers []ResolverTrace `json:"resolvers"`
	} `json:"execution"`
}

// NewApolloTracing is an executor.ExtensionFactory.
func NewApolloTracing(context.Context) executor.Extension {
	return newApolloTracing(time.Now)
}

func newApolloTracing(now func() time.Time) *ApolloTracing {
	return &ApolloTracing{now: now, pending: map[uint64]time.Time{}}
}

func (a *ApolloTracing) Name() string { return "tracing" }

func (a *ApolloTracing) offset() int64 { return int64(a.now().Sub(a.start)) }

func (a *ApolloTracing) ParseStart(string, map[string]any) {
	a.start = a.now()
}

func (a *ApolloTracing) ParseEnd(*language.QueryDocument) {
	a.parsing.Duration = a.offset() - a.parsing.StartOffset
}

func (a *ApolloTracing) ValidationStart() { a.validation.StartOffset = a.offset() }

func (a *ApolloTracing) ValidationEnd() {
	a.validation.Duration = a.offset() - a.validation.StartOffset
}

func (a *ApolloTracing) ResolveStart(info *executor.ResolveInfo) {
	a.pending[info.ResolveID.Current] = a.now()
}

func (a *ApolloTracing) ResolveEnd(info *executor.ResolveInfo) {
	started, ok := a.pending[info.ResolveID.Current]
	if !ok {
		return
	}
	delete(a.pending, info.ResolveID.Current)
	a.resolvers = append(a.resolvers, ResolverTrace{
		Path:        info.Path.Segments(),
		ParentType:  info.ParentType,
		FieldName:   info.FieldName,
		ReturnType:  info.ReturnType,
		StartOffset: int64(started.Sub(a.start)),
		Duration:    int64(a.now().Sub(started)),
	})
}

func (a *ApolloTracing) Result() any {
	end := a.now()
	out := &TracingResult{
		Version:    1,
		StartTime:  a.start.UTC(),
		EndTime:    end.UTC(),
		Duration:   int64(end.Sub(a.start)),
		Parsing:    a.parsing,
		Validation: a.validation,
	}
	out.Execution.Resolvers = append([]ResolverTrace{}, a.resolvers...)
	sort.SliceStable(out.Execution.Resolvers, func(i, j int) bool {
		return out.Execution.Resolvers[i].StartOffset < out.Execution.Resolvers[j].StartOffset
	})
	return out
}
