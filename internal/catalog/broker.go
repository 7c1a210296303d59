package catalog

import (
	"context"
	"iter"

	"github.com/hanpama/graphcore/internal/eventbus"
)

// ReviewAdded is published when a review is stored.
type ReviewAdded struct {
	Review *Review
}

// Broker fans new reviews out to subscribers in this process.
type Broker struct {
	bus *eventbus.Bus
}

func NewBroker() *Broker { return &Broker{bus: eventbus.New()} }

// Publish delivers r to the current subscribers. It blocks while a
// subscriber's buffer is full.
func (b *Broker) Publish(ctx context.Context, r *Review) {
	eventbus.Emit(ctx, b.bus, ReviewAdded{Review: r})
}

// subscriberBuffer is the number of reviews queued per subscriber.
const subscriberBuffer = 16

// Reviews returns the stream of reviews added after iteration starts,
// restricted to one product unless productID is empty. The stream ends when
// ctx is done or the consumer stops.
func (b *Broker) Reviews(ctx context.Context, productID string) iter.Seq[*Review] {
	return func(yield func(*Review) bool) {
		ch := make(chan *Review, subscriberBuffer)
		done := make(chan struct{})
		unsubscribe := eventbus.On(b.bus, func(pctx context.Context, e ReviewAdded) {
			if productID != "" && e.Review.ProductID != productID {
				return
			}
			// A full buffer blocks the publisher until it gives up.
			select {
			case ch <- e.Review:
			case <-done:
			case <-pctx.Done():
			}
		})
		defer func() {
			unsubscribe()
			close(done)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case r := <-ch:
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Subscribers returns the number of open review streams.
func (b *Broker) Subscribers() int { return eventbus.Handlers[ReviewAdded](b.bus) }
