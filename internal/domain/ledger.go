package domain

import "time"

// One row per restaurant per collection cycle.
// Created by the load grouper, enriched by the container splitter and
// later by the scheduler (date, serial, final vehicle) and the reconciler.
type OilCollectionRow struct {
	RestaurantID       string
	RestaurantName     string
	Region             string
	District           string
	City               string
	CollectionPoint    string
	Volume             int
	VehicleID          string
	VehiclePlate       string
	LoadVolume         int
	GroupKey           string
	LargeCount         int
	SmallCount         int
	DeliveryDate       *time.Time
	SettlementNo       string
	ContractAllocation string
}

// One row per vehicle trip, de-duplicated from OilCollectionRow on GroupKey.
type BalanceRow struct {
	GroupKey           string
	Region             string
	District           string
	CollectionPoint    string
	VehicleID          string
	VehiclePlate       string
	LoadVolume         int
	LargeCount         int
	SmallCount         int
	NetWeight          float64
	SettlementNo       string
	DeliveryDate       time.Time
	ContractAllocation string
}

// One row per delivery date x vehicle trip in the running production ledger.
// DayBoundary is non-nil (true) only on the last row of a date.
type TotalSheetRow struct {
	Date               time.Time
	GroupKey           string
	SettlementNo       string
	VehiclePlate       string
	NetWeight          float64
	ProcessingAmount   float64
	Inventory          float64
	DayBoundary        *bool
	ConversionFactor   float64
	OutputWeight       float64
	SoldQuantity       float64
	EndingInventory    float64
	ContractAllocation string
}

// Buyer-side weigh-in confirming receipt of processed output.
type ReceiptConfirmationRow struct {
	PickupDate      time.Time
	VehicleID       string
	VehiclePlate    string
	Driver          string
	WeighedMass     float64
	TareWeight      float64
	GrossWeight     float64
	NetWeight       float64
	ShortfallPct    float64
	SettlementDocNo string
}

// FillContract stamps token onto *field only when it is empty.
// It reports whether the field changed.
func FillContract(field *string, token string) bool {
	if field == nil || *field != "" || token == "" {
		return false
	}
	*field = token
	return true
}
