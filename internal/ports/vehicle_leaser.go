package ports

import "context"

// Optional boundary giving each collection-point batch a disjoint vehicle pool.
type VehicleLeaser interface {
	// Lease tries to reserve the given vehicles for owner and returns the ids it obtained.
	Lease(ctx context.Context, owner string, vehicleIDs []string) ([]string, error)
	// Release drops owner's reservations on the given vehicles.
	Release(ctx context.Context, owner string, vehicleIDs []string) error
}
