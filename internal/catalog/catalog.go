// Package catalog is a small federated product catalog served by
// cmd/graphcore: users, products and their reviews, with a review feed
// over subscriptions.
package catalog

import (
	"github.com/hanpama/graphcore/internal/schema"
)

// New builds the catalog schema over store. New reviews are published to
// broker. User and Product are entities; pass schema.WithFederation to
// serve them through `_entities`.
func New(store *Store, broker *Broker, opts ...schema.Option) (*schema.Schema, error) {
	opts = append([]schema.Option{schema.WithData(store), schema.WithData(broker)}, opts...)
	return schema.New(Query{}, Mutation{}, Subscription{}, opts...)
}
