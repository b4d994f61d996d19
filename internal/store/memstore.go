package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ESAditya1729/tantika/internal/query"
	"github.com/ESAditya1729/tantika/model"
)

// MemoryOrderStore is an in-memory OrderStore. Suitable for testing and
// single-instance deployments. Insertion order is preserved so that stable
// sorts break ties deterministically.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]model.Order
	ids    []string // insertion order
}

// NewMemoryOrderStore creates a new in-memory order store.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]model.Order)}
}

// Create persists a new order.
func (s *MemoryOrderStore) Create(_ context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("order %q already exists", order.ID))
	}

	s.orders[order.ID] = order
	s.ids = append(s.ids, order.ID)
	return nil
}

// Get retrieves an order by ID.
func (s *MemoryOrderStore) Get(_ context.Context, id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return model.Order{}, model.NewNotFoundError(fmt.Sprintf("order %q not found", id))
	}
	return order, nil
}

// Update persists an updated order with optimistic locking.
func (s *MemoryOrderStore) Update(_ context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.orders[order.ID]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("order %q not found", order.ID))
	}

	if existing.Version != order.Version {
		return model.NewConflictError(fmt.Sprintf(
			"order %q version conflict (expected %d, got %d)",
			order.ID, order.Version, existing.Version))
	}

	order.Version++
	s.orders[order.ID] = order
	return nil
}

// List returns orders matching the filter parameters.
func (s *MemoryOrderStore) List(_ context.Context, p query.Params) ([]model.Order, query.Pagination, error) {
	s.mu.RLock()
	all := make([]model.Order, 0, len(s.ids))
	for _, id := range s.ids {
		all = append(all, s.orders[id])
	}
	s.mu.RUnlock()

	out, page := query.Orders(all, p, time.Now())
	return out, page, nil
}

// CountByStatus returns the number of orders per status.
func (s *MemoryOrderStore) CountByStatus(_ context.Context) (map[model.OrderStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.OrderStatus]int)
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts, nil
}

// Len returns the total number of orders. For testing.
func (s *MemoryOrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// MemoryArtisanStore is an in-memory ArtisanStore.
type MemoryArtisanStore struct {
	mu       sync.RWMutex
	artisans map[string]model.Artisan
	ids      []string
}

// NewMemoryArtisanStore creates a new in-memory artisan store.
func NewMemoryArtisanStore() *MemoryArtisanStore {
	return &MemoryArtisanStore{artisans: make(map[string]model.Artisan)}
}

// Create persists a new artisan application record.
func (s *MemoryArtisanStore) Create(_ context.Context, artisan model.Artisan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artisans[artisan.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("artisan %q already exists", artisan.ID))
	}

	s.artisans[artisan.ID] = artisan
	s.ids = append(s.ids, artisan.ID)
	return nil
}

// Get retrieves an artisan by ID.
func (s *MemoryArtisanStore) Get(_ context.Context, id string) (model.Artisan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artisan, exists := s.artisans[id]
	if !exists {
		return model.Artisan{}, model.NewNotFoundError(fmt.Sprintf("artisan %q not found", id))
	}
	return artisan, nil
}

// Update persists an updated artisan with optimistic locking.
func (s *MemoryArtisanStore) Update(_ context.Context, artisan model.Artisan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.artisans[artisan.ID]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("artisan %q not found", artisan.ID))
	}

	if existing.Version != artisan.Version {
		return model.NewConflictError(fmt.Sprintf(
			"artisan %q version conflict (expected %d, got %d)",
			artisan.ID, artisan.Version, existing.Version))
	}

	artisan.Version++
	s.artisans[artisan.ID] = artisan
	return nil
}

// List returns artisans matching the filter parameters.
func (s *MemoryArtisanStore) List(_ context.Context, p query.Params) ([]model.Artisan, query.Pagination, error) {
	s.mu.RLock()
	all := make([]model.Artisan, 0, len(s.ids))
	for _, id := range s.ids {
		all = append(all, s.artisans[id])
	}
	s.mu.RUnlock()

	out, page := query.Artisans(all, p, time.Now())
	return out, page, nil
}

// CountByStatus returns the number of artisans per status.
func (s *MemoryArtisanStore) CountByStatus(_ context.Context) (map[model.ArtisanStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.ArtisanStatus]int)
	for _, a := range s.artisans {
		counts[a.Status]++
	}
	return counts, nil
}

// Len returns the total number of artisans. For testing.
func (s *MemoryArtisanStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artisans)
}
