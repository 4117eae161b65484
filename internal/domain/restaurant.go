package domain

import (
	"strings"
	"time"
)

// Represents a waste-oil producing restaurant as supplied by the registry.
// Identity and region fields are immutable input to volume estimation;
// only AllocatedVolume and LastVerifiedDate are stamped after grouping.
type Restaurant struct {
	ID               string
	Name             string
	Province         string
	City             string
	District         string
	Street           string
	Region           string
	DeclaredType     string
	CollectionPoint  string
	AllocatedVolume  int
	LastVerifiedDate *time.Time
}

// GroupRegion returns the key restaurants are bundled by when forming loads.
func (r Restaurant) GroupRegion() string {
	if region := strings.TrimSpace(r.Region); region != "" {
		return region
	}
	return strings.TrimSpace(r.District)
}

// RestaurantUpdate is a field diff produced by the load grouper.
type RestaurantUpdate struct {
	RestaurantID     string
	AllocatedVolume  int
	LastVerifiedDate time.Time
}

// Apply returns a copy of r with the update's fields stamped on it.
func (u RestaurantUpdate) Apply(r Restaurant) Restaurant {
	verified := u.LastVerifiedDate
	r.AllocatedVolume = u.AllocatedVolume
	r.LastVerifiedDate = &verified
	return r
}
