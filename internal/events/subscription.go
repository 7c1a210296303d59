package events

import (
	"time"

	"github.com/hanpama/graphcore/internal/executor"
)

// SubscriptionStart is emitted when a subscription stream is opened.
type SubscriptionStart struct {
	Query         string
	OperationName string
}

// SubscriptionEvent is emitted for every response sent on a stream.
type SubscriptionEvent struct {
	OperationName string
	Errors        []*executor.Error
}

// SubscriptionFinish is emitted when a stream ends, after its last event.
type SubscriptionFinish struct {
	OperationName string
	Events        int
	Duration      time.Duration
}
