package domain

import "time"

type VehicleType string

const (
	VehicleToRestaurant VehicleType = "to_restaurant"
	VehicleToSale       VehicleType = "to_sale"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleUnavailable VehicleStatus = "unavailable"
)

// DefaultCooldownDays applies when the registry leaves cooldown unset.
const DefaultCooldownDays = 3

// Collection or sale vehicle tracked by the registry.
// Availability is derived: see AvailableOn.
type Vehicle struct {
	ID           string
	Plate        string
	Type         VehicleType
	TareWeight   float64
	RoughWeight  float64
	NetWeight    float64
	Driver       string
	Status       VehicleStatus
	LastUseDate  *time.Time
	CooldownDays int
	Version      int
}

// Cooldown returns the effective cooldown window in days.
func (v Vehicle) Cooldown() int {
	if v.CooldownDays < 0 {
		return DefaultCooldownDays
	}
	return v.CooldownDays
}

// AvailableOn reports whether the vehicle may take a trip on day.
// A vehicle that has never been used is available whenever its status allows.
func (v Vehicle) AvailableOn(day time.Time) bool {
	if v.Status != VehicleAvailable {
		return false
	}
	if v.LastUseDate == nil {
		return true
	}
	return DaysBetween(*v.LastUseDate, day) >= v.Cooldown()
}

// VehicleUpdate is a versioned field diff produced by the scheduler.
// Version is the version the diff was computed against.
type VehicleUpdate struct {
	VehicleID   string
	LastUseDate time.Time
	Status      VehicleStatus
	Version     int
}

// Apply returns a copy of v carrying the update, with its version advanced.
func (u VehicleUpdate) Apply(v Vehicle) Vehicle {
	used := u.LastUseDate
	v.LastUseDate = &used
	if u.Status != "" {
		v.Status = u.Status
	}
	v.Version = u.Version + 1
	return v
}

// FilterVehicles returns the vehicles of type t available on day, in input order.
func FilterVehicles(vehicles []Vehicle, t VehicleType, day time.Time) []Vehicle {
	out := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Type == t && v.AvailableOn(day) {
			out = append(out, v)
		}
	}
	return out
}
