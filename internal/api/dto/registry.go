package dto

import "time"

type RestaurantResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Province         string     `json:"province"`
	City             string     `json:"city"`
	District         string     `json:"district"`
	Street           string     `json:"street"`
	Region           string     `json:"region"`
	DeclaredType     string     `json:"declared_type"`
	CollectionPoint  string     `json:"collection_point"`
	AllocatedVolume  int        `json:"allocated_volume"`
	LastVerifiedDate *time.Time `json:"last_verified_date"`
}

type ListRestaurantsResponse struct {
	Restaurants []RestaurantResponse `json:"restaurants"`
}

type VehicleResponse struct {
	ID           string     `json:"id"`
	Plate        string     `json:"plate"`
	Type         string     `json:"type"`
	TareWeight   float64    `json:"tare_weight"`
	Driver       string     `json:"driver"`
	Status       string     `json:"status"`
	LastUseDate  *time.Time `json:"last_use_date"`
	CooldownDays int        `json:"cooldown_days"`
	Version      int        `json:"version"`
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}
