// Package events defines the lifecycle events published on the event bus.
// The context passed with each event carries the request id.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
