package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/schema"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestCatalog(t *testing.T) (*schema.Schema, *Store, *Broker) {
	t.Helper()
	store, broker := NewStore(), NewBroker()
	s, err := New(store, broker, schema.WithFederation())
	require.NoError(t, err)
	return s, store, broker
}

func execute(t *testing.T, s *schema.Schema, query string, vars map[string]any) *executor.Response {
	t.Helper()
	return s.Execute(context.Background(), &schema.Request{Query: query, Variables: vars})
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestQuery_Result(t *testing.T) {
	tests := []struct {
		name  string
		query string
		vars  map[string]any
		want  string
	}{
		{
			name:  "product with reviews",
			query: `{ product(id: "1") { name price category inStock averageRating reviews { rating author { name } } } }`,
			want:  `{"data":{"product":{"name":"The Art of Computer Programming","price":199.99,"category":"BOOKS","inStock":true,"averageRating":4.5,"reviews":[{"rating":5,"author":{"name":"Alan Turing"}},{"rating":4,"author":{"name":"Grace Hopper"}}]}}}`,
		},
		{
			name:  "review argument default and override",
			query: `{ product(id: "1") { all: reviews { id } one: reviews(first: 1) { id } } }`,
			want:  `{"data":{"product":{"all":[{"id":"1"},{"id":"2"}],"one":[{"id":"1"}]}}}`,
		},
		{
			name:  "no reviews",
			query: `{ product(id: "2") { averageRating reviews { id } } }`,
			want:  `{"data":{"product":{"averageRating":null,"reviews":[]}}}`,
		},
		{
			name:  "unknown product",
			query: `{ product(id: "9") { name } }`,
			want:  `{"data":{"product":null}}`,
		},
		{
			name:  "products by category literal",
			query: `{ products(category: BOOKS) { id } }`,
			want:  `{"data":{"products":[{"id":"1"},{"id":"2"}]}}`,
		},
		{
			name:  "products by category variable",
			query: `query($c: Category) { products(category: $c) { name } }`,
			vars:  map[string]any{"c": "GAMES"},
			want:  `{"data":{"products":[{"name":"Tetris"}]}}`,
		},
		{
			name:  "deprecated category value",
			query: `{ products(category: VINYL) { name } }`,
			want:  `{"data":{"products":[{"name":"Goldberg Variations"}]}}`,
		},
		{
			name:  "products first",
			query: `{ products(first: 2) { id } }`,
			want:  `{"data":{"products":[{"id":"1"},{"id":"2"}]}}`,
		},
		{
			name:  "user reviews",
			query: `{ user(id: "1") { name reviews { body product { name } } } }`,
			want:  `{"data":{"user":{"name":"Ada Lovelace","reviews":[{"body":"Addictive.","product":{"name":"Tetris"}}]}}}`,
		},
		{
			name:  "users",
			query: `{ users { id } }`,
			want:  `{"data":{"users":[{"id":"1"},{"id":"2"},{"id":"3"}]}}`,
		},
		{
			name:  "node",
			query: `{ node(id: "User:2") { __typename id ... on User { name } ... on Product { price } } }`,
			want:  `{"data":{"node":{"__typename":"User","id":"2","name":"Alan Turing"}}}`,
		},
		{
			name:  "node product",
			query: `{ node(id: "Product:3") { __typename ... on Product { price } } }`,
			want:  `{"data":{"node":{"__typename":"Product","price":9.99}}}`,
		},
		{
			name:  "missing node",
			query: `{ node(id: "Review:9") { id } }`,
			want:  `{"data":{"node":null}}`,
		},
		{
			name:  "malformed node id",
			query: `{ node(id: "9") { id } }`,
			want:  `{"data":{"node":null},"errors":[{"message":"malformed node id \"9\"","locations":[{"line":1,"column":3}],"path":["node"],"extensions":{"code":"BAD_USER_INPUT"}}]}`,
		},
		{
			name:  "deprecated field",
			query: `{ topProduct { id } }`,
			want:  `{"data":{"topProduct":{"id":"1"}}}`,
		},
		{
			name:  "invalid enum value",
			query: `{ products(category: XYZZYQ) { id } }`,
			want:  `{"errors":[{"message":"Value \"XYZZYQ\" does not exist in \"Category\" enum.","locations":[{"line":1,"column":22}]}]}`,
		},
	}
	s, _, _ := newTestCatalog(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustJSON(t, execute(t, s, tt.query, tt.vars))

			// Pattern: Result comparison
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEntities(t *testing.T) {
	s, _, _ := newTestCatalog(t)
	resp := execute(t, s,
		`query($r: [_Any!]!) { _entities(representations: $r) { ... on Product { name } ... on User { name } } }`,
		map[string]any{"r": []any{
			map[string]any{"__typename": "Product", "id": "3"},
			map[string]any{"__typename": "User", "id": "1"},
			map[string]any{"__typename": "User", "id": "9"},
			map[string]any{"__typename": "Review", "id": "1"},
		}},
	)

	if diff := cmp.Diff(`{"_entities":[{"name":"Tetris"},{"name":"Ada Lovelace"},null,null]}`, mustJSON(t, resp.Data)); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, resp.Errors, 2)
	require.Equal(t, `User "9" not found`, resp.Errors[0].Message)
	require.Equal(t, []any{"_entities", 2}, resp.Errors[0].Path)
	require.Equal(t, `Type "Review" is not an entity.`, resp.Errors[1].Message)
}

func TestSDL(t *testing.T) {
	s, _, _ := newTestCatalog(t)
	sdl := s.SDL(true)
	require.Contains(t, sdl, `type User implements Node @key(fields: "id") {`)
	require.Contains(t, sdl, `type Product implements Node @key(fields: "id") {`)
	require.Contains(t, sdl, `type Review implements Node {`)
	require.Contains(t, sdl, "interface Node {")
	require.Contains(t, sdl, `VINYL @deprecated(reason: "Use MUSIC.")`)
	require.NotContains(t, s.SDL(false), "@key")
}

func TestAddReview(t *testing.T) {
	const mutation = `mutation($in: ReviewInput!) { addReview(input: $in) { id rating body author { name } product { name } } }`

	t.Run("stored", func(t *testing.T) {
		s, store, _ := newTestCatalog(t)
		got := mustJSON(t, execute(t, s, mutation, map[string]any{
			"in": map[string]any{"productId": "3", "authorId": "2", "rating": 4, "body": "Classic."},
		}))
		want := `{"data":{"addReview":{"id":"4","rating":4,"body":"Classic.","author":{"name":"Alan Turing"},"product":{"name":"Tetris"}}}}`
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
		require.Len(t, store.ReviewsOf("3"), 2)
	})

	t.Run("literal input uses the body default", func(t *testing.T) {
		s, _, _ := newTestCatalog(t)
		got := mustJSON(t, execute(t, s, `mutation { addReview(input: {productId: "2", authorId: "1", rating: 5}) { body rating } }`, nil))
		require.Equal(t, `{"data":{"addReview":{"body":"","rating":5}}}`, got)
	})

	tests := []struct {
		name     string
		input    map[string]any
		wantMsg  string
		wantCode string
	}{
		{
			name:     "rating out of range",
			input:    map[string]any{"productId": "1", "authorId": "1", "rating": 6},
			wantMsg:  "rating must be between 1 and 5, got 6",
			wantCode: "BAD_USER_INPUT",
		},
		{
			name:     "unknown product",
			input:    map[string]any{"productId": "9", "authorId": "1", "rating": 3},
			wantMsg:  `product "9" not found`,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "unknown author",
			input:    map[string]any{"productId": "1", "authorId": "9", "rating": 3},
			wantMsg:  `user "9" not found`,
			wantCode: "NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := newTestCatalog(t)
			resp := execute(t, s, mutation, map[string]any{"in": tt.input})

			require.Nil(t, resp.Data)
			require.Len(t, resp.Errors, 1)
			require.Equal(t, tt.wantMsg, resp.Errors[0].Message)
			require.Equal(t, tt.wantCode, resp.Errors[0].Extensions["code"])
			require.Equal(t, []any{"addReview"}, resp.Errors[0].Path)
			require.Len(t, store.ReviewsOf("1"), 2)
		})
	}
}

func TestReviewAdded(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, broker := newTestCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	go func() {
		req := &schema.Request{Query: `subscription { reviewAdded(productId: "3") { body author { name } } }`}
		for resp := range s.Subscribe(ctx, req) {
			b, _ := json.Marshal(resp)
			got <- string(b)
			return
		}
	}()
	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, time.Second, time.Millisecond)

	add := `mutation($p: ID!, $b: String!) { addReview(input: {productId: $p, authorId: "3", rating: 5, body: $b}) { id } }`
	require.Empty(t, execute(t, s, add, map[string]any{"p": "1", "b": "elsewhere"}).Errors)
	require.Empty(t, execute(t, s, add, map[string]any{"p": "3", "b": "Fun."}).Errors)

	select {
	case g := <-got:
		require.Equal(t, `{"data":{"reviewAdded":{"body":"Fun.","author":{"name":"Grace Hopper"}}}}`, g)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	require.Eventually(t, func() bool { return broker.Subscribers() == 0 }, time.Second, time.Millisecond)
}

func TestBroker_Calls(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids := make(chan string)
	go func() {
		defer close(ids)
		for r := range b.Reviews(ctx, "2") {
			ids <- r.ID
		}
	}()
	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, time.Millisecond)

	b.Publish(context.Background(), &Review{ID: "a", ProductID: "1"})
	b.Publish(context.Background(), &Review{ID: "b", ProductID: "2"})
	b.Publish(context.Background(), &Review{ID: "c", ProductID: "2"})
	calls := []string{<-ids, <-ids}
	cancel()
	for range ids {
	}

	// Pattern: Calls comparison
	if diff := cmp.Diff([]string{"b", "c"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 0, b.Subscribers())
}

func TestBroker_SlowSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2*subscriberBuffer)
	hold := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for r := range b.Reviews(ctx, "") {
			got <- r.ID
			<-hold
		}
	}()
	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, time.Millisecond)

	b.Publish(context.Background(), &Review{ID: "first"})
	require.Equal(t, "first", <-got)
	for range subscriberBuffer {
		b.Publish(context.Background(), &Review{ID: "queued"})
	}

	pctx, pcancel := context.WithCancel(context.Background())
	published := make(chan struct{})
	go func() {
		defer close(published)
		b.Publish(pctx, &Review{ID: "dropped"})
	}()
	pcancel()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after its context was canceled")
	}

	cancel()
	close(hold)
	<-finished
}

// Pattern: Result comparison
func TestInputValues_Result(t *testing.T) {
	tests := []struct {
		name     string
		newValue func() executor.InputType
		in       any
		want     any
	}{
		{
			name:     "category enum literal",
			newValue: func() executor.InputType { return new(Category) },
			in:       executor.EnumValue("BOOKS"),
			want:     executor.EnumValue("BOOKS"),
		},
		{
			name:     "category variable",
			newValue: func() executor.InputType { return new(Category) },
			in:       "GAMES",
			want:     executor.EnumValue("GAMES"),
		},
		{
			name:     "deprecated category",
			newValue: func() executor.InputType { return new(Category) },
			in:       executor.EnumValue("VINYL"),
			want:     executor.EnumValue("MUSIC"),
		},
		{
			name:     "review input",
			newValue: func() executor.InputType { return new(ReviewInput) },
			in:       map[string]any{"productId": "1", "authorId": "2", "rating": 4, "body": "Dense."},
			want:     map[string]any{"productId": "1", "authorId": "2", "rating": 4, "body": "Dense."},
		},
		{
			name:     "review input without body",
			newValue: func() executor.InputType { return new(ReviewInput) },
			in:       map[string]any{"productId": "1", "authorId": "2", "rating": 4},
			want:     map[string]any{"productId": "1", "authorId": "2", "rating": 4, "body": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.newValue()
			require.NoError(t, v.ParseValue(tt.in))
			got := v.ToValue()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}

			again := tt.newValue()
			require.NoError(t, again.ParseValue(got))
			if diff := cmp.Diff(got, again.ToValue()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
