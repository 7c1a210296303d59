package events

import (
	"time"

	"github.com/hanpama/graphcore/internal/executor"
)

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []*executor.Error
	Duration      time.Duration
}
