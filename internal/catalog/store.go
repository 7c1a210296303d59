package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
)

// Store is the in-memory data set behind the catalog schema. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	users    []*User
	products []*Product
	reviews  []*Review
	nextID   int
}

// NewStore returns a store holding users, products and reviews to play with.
func NewStore() *Store {
	s := &Store{
		users: []*User{
			{ID: "1", Name: "Ada Lovelace", Email: "ada@example.com"},
			{ID: "2", Name: "Alan Turing", Email: "alan@example.com"},
			{ID: "3", Name: "Grace Hopper", Email: "grace@example.com"},
		},
		products: []*Product{
			{ID: "1", Name: "The Art of Computer Programming", Price: 199.99, Category: CategoryBooks, InStock: true},
			{ID: "2", Name: "Structure and Interpretation", Price: 49.5, Category: CategoryBooks, InStock: false},
			{ID: "3", Name: "Tetris", Price: 9.99, Category: CategoryGames, InStock: true},
			{ID: "4", Name: "Goldberg Variations", Price: 14, Category: CategoryMusic, InStock: true},
		},
	}
	s.reviews = []*Review{
		{ID: "1", ProductID: "1", AuthorID: "2", Rating: 5, Body: "Dense but rewarding."},
		{ID: "2", ProductID: "1", AuthorID: "3", Rating: 4, Body: "A classic."},
		{ID: "3", ProductID: "3", AuthorID: "1", Rating: 3, Body: "Addictive."},
	}
	s.nextID = len(s.reviews)
	return s
}

func (s *Store) User(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Store) Users() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) Product(id string) *Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Products returns at most first products, filtered by category unless it
// is empty.
func (s *Store) Products(category Category, first int) []*Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Product
	for _, p := range s.products {
		if len(out) >= first {
			break
		}
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Review(id string) *Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reviews {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ReviewsOf returns the reviews of a product, oldest first.
func (s *Store) ReviewsOf(productID string) []*Review {
	return s.filterReviews(func(r *Review) bool { return r.ProductID == productID })
}

// ReviewsBy returns the reviews written by a user, oldest first.
func (s *Store) ReviewsBy(userID string) []*Review {
	return s.filterReviews(func(r *Review) bool { return r.AuthorID == userID })
}

func (s *Store) filterReviews(keep func(*Review) bool) []*Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Review
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// AddReview stores a new review. The product and the author must exist.
func (s *Store) AddReview(in ReviewInput) (*Review, error) {
	if s.Product(in.ProductID) == nil {
		return nil, fmt.Errorf("product %q not found", in.ProductID)
	}
	if s.User(in.AuthorID) == nil {
		return nil, fmt.Errorf("user %q not found", in.AuthorID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r := &Review{
		ID:        strconv.Itoa(s.nextID),
		ProductID: in.ProductID,
		AuthorID:  in.AuthorID,
		Rating:    in.Rating,
		Body:      in.Body,
	}
	s.reviews = append(s.reviews, r)
	return r, nil
}
