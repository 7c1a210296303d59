package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hanpama/graphcore/internal/eventbus"
	"github.com/hanpama/graphcore/internal/events"
	"github.com/hanpama/graphcore/internal/logging"
	"github.com/hanpama/graphcore/internal/schema"
)

// serveStream answers with server-sent events: one "next" event per
// response followed by a "complete" event. Subscriptions stream until the
// source ends or the client goes away; other operations produce a single
// "next" event.
func (h *Handler) serveStream(ctx context.Context, w http.ResponseWriter, r *http.Request, req *schema.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	if h.schema.OperationType(req) != "subscription" {
		if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
			defer cancel()
		}
		h.writeEvent(ctx, w, "next", h.executeOne(ctx, r.Method, req))
		h.writeEvent(ctx, w, "complete", nil)
		_ = rc.Flush()
		return
	}

	start := time.Now()
	count := 0
	eventbus.Publish(ctx, events.SubscriptionStart{Query: req.Query, OperationName: req.OperationName})
	defer func() {
		eventbus.Publish(ctx, events.SubscriptionFinish{OperationName: req.OperationName, Events: count, Duration: time.Since(start)})
	}()

	for resp := range h.schema.Subscribe(ctx, req) {
		count++
		eventbus.Publish(ctx, events.SubscriptionEvent{OperationName: req.OperationName, Errors: resp.Errors})
		if !h.writeEvent(ctx, w, "next", resp) {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
	h.writeEvent(ctx, w, "complete", nil)
	_ = rc.Flush()
}

// writeEvent writes one event and reports whether the client is still
// reachable.
func (h *Handler) writeEvent(ctx context.Context, w http.ResponseWriter, event string, v any) bool {
	data := []byte{}
	if v != nil {
		var err error
		if data, err = json.Marshal(v); err != nil {
			logging.FromContext(ctx).Error("encode event", "event", event, "error", err)
			return false
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		logging.FromContext(ctx).Debug("stream closed", "error", err)
		return false
	}
	return true
}
