package dto

import "time"

type PlanRequest struct {
	CollectionPoint string     `json:"collection_point"`
	Today           *time.Time `json:"today"`
	// Target month as YYYY-MM; defaults to the month of Today.
	Month    string `json:"month"`
	StartDay int    `json:"start_day"`
	Days     int    `json:"days"`
	Seed     *int64 `json:"seed"`
}

type CollectionRowResponse struct {
	RestaurantID string `json:"restaurant_id"`
	Volume       int    `json:"volume"`
}

type TripResponse struct {
	GroupKey     string                  `json:"group_key"`
	Region       string                  `json:"region"`
	VehicleID    string                  `json:"vehicle_id"`
	VehiclePlate string                  `json:"vehicle_plate"`
	LoadVolume   int                     `json:"load_volume"`
	LargeCount   int                     `json:"large_count"`
	SmallCount   int                     `json:"small_count"`
	NetWeight    float64                 `json:"net_weight"`
	SettlementNo string                  `json:"settlement_no"`
	DeliveryDate time.Time               `json:"delivery_date"`
	Restaurants  []CollectionRowResponse `json:"restaurants"`
}

type TotalSheetRowResponse struct {
	Date             time.Time `json:"date"`
	SettlementNo     string    `json:"settlement_no"`
	NetWeight        float64   `json:"net_weight"`
	ProcessingAmount float64   `json:"processing_amount"`
	Inventory        float64   `json:"inventory"`
	DayBoundary      *bool     `json:"day_boundary"`
	ConversionFactor float64   `json:"conversion_factor"`
	OutputWeight     float64   `json:"output_weight"`
	EndingInventory  float64   `json:"ending_inventory"`
}

type PlanResponse struct {
	Trips      []TripResponse          `json:"trips"`
	TotalSheet []TotalSheetRowResponse `json:"total_sheet"`
}
