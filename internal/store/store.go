// Package store persists orders and artisan application records. Both the
// in-memory and the PostgreSQL implementations guard entity mutation with an
// optimistic version check so that concurrent writers to the same entity
// cannot silently overwrite each other.
package store

import (
	"context"

	"github.com/ESAditya1729/tantika/internal/query"
	"github.com/ESAditya1729/tantika/model"
)

// OrderStore persists customer orders.
type OrderStore interface {
	// Create persists a new order. Returns CONFLICT if the id is taken.
	Create(ctx context.Context, order model.Order) error

	// Get retrieves an order by ID. Returns NOT_FOUND if it doesn't exist.
	Get(ctx context.Context, id string) (model.Order, error)

	// Update persists an updated order with optimistic locking. The version
	// must match the stored version; returns CONFLICT when it has moved.
	// The store bumps the version by one; UpdatedAt is persisted exactly as
	// given so the caller's copy matches the row.
	Update(ctx context.Context, order model.Order) error

	// List returns orders matching the filter parameters together with
	// pagination metadata computed over the fully filtered set.
	List(ctx context.Context, p query.Params) ([]model.Order, query.Pagination, error)

	// CountByStatus returns the number of orders per status.
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error)
}

// ArtisanStore persists artisan application records.
type ArtisanStore interface {
	Create(ctx context.Context, artisan model.Artisan) error
	Get(ctx context.Context, id string) (model.Artisan, error)
	Update(ctx context.Context, artisan model.Artisan) error
	List(ctx context.Context, p query.Params) ([]model.Artisan, query.Pagination, error)
	CountByStatus(ctx context.Context) (map[model.ArtisanStatus]int, error)
}

// HealthChecker is implemented by stores that can verify their own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
