package dto

import "time"

type ReceiptRequest struct {
	TargetMass float64    `json:"target_mass"`
	Days       int        `json:"days"`
	LastPickup *time.Time `json:"last_pickup"`
	Seed       *int64     `json:"seed"`
}

type ReceiptResponse struct {
	PickupDate      time.Time `json:"pickup_date"`
	VehicleID       string    `json:"vehicle_id"`
	VehiclePlate    string    `json:"vehicle_plate"`
	Driver          string    `json:"driver"`
	WeighedMass     float64   `json:"weighed_mass"`
	TareWeight      float64   `json:"tare_weight"`
	GrossWeight     float64   `json:"gross_weight"`
	NetWeight       float64   `json:"net_weight"`
	ShortfallPct    float64   `json:"shortfall_pct"`
	SettlementDocNo string    `json:"settlement_doc_no"`
}

type ListReceiptsResponse struct {
	TotalWeighed float64           `json:"total_weighed"`
	Receipts     []ReceiptResponse `json:"receipts"`
}

type ReconcileRequest struct {
	RefDate *time.Time `json:"ref_date"`
}

type ReconcileResponse struct {
	Token     string    `json:"token"`
	StopDate  time.Time `json:"stop_date"`
	StopIndex int       `json:"stop_index"`
	Filled    int       `json:"filled"`
}
