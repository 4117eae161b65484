package ports

import (
	"context"
	"errors"
	"oil-collection-service/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)

// Port: the restaurant/vehicle registry the engine reads from and stamps diffs onto.
type RegistryRepository interface {
	// Retrieve restaurants, optionally restricted to one collection point ("" = all).
	ListRestaurants(ctx context.Context, collectionPoint string) ([]domain.Restaurant, error)
	// Retrieve every registered vehicle.
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	// Apply versioned vehicle diffs atomically; a stale version yields ErrVersionConflict.
	ApplyVehicleUpdates(ctx context.Context, updates []domain.VehicleUpdate) error
	// Stamp allocated volume and verification date on restaurants.
	ApplyRestaurantUpdates(ctx context.Context, updates []domain.RestaurantUpdate) error
}
