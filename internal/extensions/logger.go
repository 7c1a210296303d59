// Package extensions provides executor extensions for the ambient
// concerns of a GraphQL service: request logging, OpenTelemetry tracing
// and metrics, and Apollo tracing timings in the response.
package extensions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/logging"
)

// Logger logs each operation to the request logger found in the context.
// The query is logged at debug level, errors at warn level.
type Logger struct {
	executor.ExtensionBase
	ctx context.Context
	log *logging.Logger
}

// NewLogger is an executor.ExtensionFactory.
func NewLogger(ctx context.Context) executor.Extension {
	return &Logger{ctx: ctx, log: logging.FromContext(ctx)}
}

func (l *Logger) ParseStart(query string, variables map[string]any) {
	l.log.DebugContext(l.ctx, "graphql query",
		slog.String("query", query),
		slog.Int("variables", len(variables)),
	)
}

func (l *Logger) Error(err *executor.Error) {
	attrs := []any{
		slog.String("kind", err.Kind.String()),
		slog.String("message", err.Message),
	}
	if !err.Pos.IsZero() {
		attrs = append(attrs, slog.String("location", fmt.Sprintf("%d:%d", err.Pos.Line, err.Pos.Column)))
	}
	if len(err.Path) > 0 {
		attrs = append(attrs, slog.Any("path", err.Path))
	}
	if err.Err != nil && err.Err.Error() != err.Message {
		attrs = append(attrs, slog.String("cause", err.Err.Error()))
	}
	l.log.WarnContext(l.ctx, "graphql error", attrs...)
}
