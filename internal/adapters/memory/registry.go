package memory

import (
	"context"
	"fmt"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/ports"
	"slices"
	"sync"
)

// Registry is an in-memory RegistryRepository for tests and local demos.
type Registry struct {
	mu          sync.Mutex
	restaurants []domain.Restaurant
	vehicles    []domain.Vehicle
}

func NewRegistry(restaurants []domain.Restaurant, vehicles []domain.Vehicle) *Registry {
	return &Registry{
		restaurants: slices.Clone(restaurants),
		vehicles:    slices.Clone(vehicles),
	}
}

func (r *Registry) ListRestaurants(_ context.Context, collectionPoint string) ([]domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Restaurant, 0, len(r.restaurants))
	for _, rest := range r.restaurants {
		if collectionPoint == "" || rest.CollectionPoint == collectionPoint {
			out = append(out, rest)
		}
	}
	return out, nil
}

func (r *Registry) ListVehicles(context.Context) ([]domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.vehicles), nil
}

// ApplyVehicleUpdates applies all diffs or none.
func (r *Registry) ApplyVehicleUpdates(_ context.Context, updates []domain.VehicleUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := slices.Clone(r.vehicles)
	for _, u := range updates {
		i := slices.IndexFunc(next, func(v domain.Vehicle) bool { return v.ID == u.VehicleID })
		if i < 0 {
			return fmt.Errorf("apply vehicle update %q: %w", u.VehicleID, ports.ErrNotFound)
		}
		if next[i].Version != u.Version {
			return fmt.Errorf("apply vehicle update %q: have v%d, diff against v%d: %w",
				u.VehicleID, next[i].Version, u.Version, ports.ErrVersionConflict)
		}
		next[i] = u.Apply(next[i])
	}
	r.vehicles = next
	return nil
}

func (r *Registry) ApplyRestaurantUpdates(_ context.Context, updates []domain.RestaurantUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := slices.Clone(r.restaurants)
	for _, u := range updates {
		i := slices.IndexFunc(next, func(rest domain.Restaurant) bool { return rest.ID == u.RestaurantID })
		if i < 0 {
			return fmt.Errorf("apply restaurant update %q: %w", u.RestaurantID, ports.ErrNotFound)
		}
		next[i] = u.Apply(next[i])
	}
	r.restaurants = next
	return nil
}
