package handlers

import (
	"net/http"
	"oil-collection-service/internal/api/dto"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/platform/obs"
	"oil-collection-service/internal/ports"
	"oil-collection-service/internal/services"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PlanHandler struct {
	Engine   *services.Engine
	Registry ports.RegistryRepository
	Ledger   ports.LedgerRepository
	// Optional; nil means the batch sees the whole fleet.
	Leaser ports.VehicleLeaser
}

// Plan runs one collection cycle for a collection point and returns the
// scheduled trips together with the total-sheet rows appended to the ledger.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	today := domain.Day(time.Now())
	if req.Today != nil {
		today = domain.Day(*req.Today)
	}

	month := today
	if m := strings.TrimSpace(req.Month); m != "" {
		parsed, err := parseMonth(m)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	if req.StartDay < 0 || req.StartDay > 31 {
		writeError(w, r, http.StatusBadRequest, "start_day must be between 1 and 31")
		return
	}
	if req.Days < 0 || req.Days > 31 {
		writeError(w, r, http.StatusBadRequest, "days must be between 1 and 31")
		return
	}

	owner := obs.RequestID(r.Context())
	if owner == "" {
		owner = uuid.NewString()
	}

	svcReq := services.CollectionCycleRequest{
		CollectionPoint: strings.TrimSpace(req.CollectionPoint),
		Owner:           owner,
		Today:           today,
		Month:           month,
		StartDay:        req.StartDay,
		Days:            req.Days,
	}

	out, err := h.Engine.RunCollectionCycle(r.Context(), svcReq, h.Registry, h.Ledger, h.Leaser, newRand(req.Seed))
	if err != nil {
		writeEngineError(w, r, "collection cycle", err)
		return
	}

	members := make(map[string][]dto.CollectionRowResponse)
	for _, row := range out.Collection {
		members[row.GroupKey] = append(members[row.GroupKey], dto.CollectionRowResponse{
			RestaurantID: row.RestaurantID,
			Volume:       row.Volume,
		})
	}

	res := dto.PlanResponse{
		Trips:      make([]dto.TripResponse, 0, len(out.Balance)),
		TotalSheet: make([]dto.TotalSheetRowResponse, 0, len(out.TotalSheet)),
	}
	for _, b := range out.Balance {
		res.Trips = append(res.Trips, dto.TripResponse{
			GroupKey:     b.GroupKey,
			Region:       b.Region,
			VehicleID:    b.VehicleID,
			VehiclePlate: b.VehiclePlate,
			LoadVolume:   b.LoadVolume,
			LargeCount:   b.LargeCount,
			SmallCount:   b.SmallCount,
			NetWeight:    b.NetWeight,
			SettlementNo: b.SettlementNo,
			DeliveryDate: b.DeliveryDate,
			Restaurants:  members[b.GroupKey],
		})
	}
	for _, t := range out.TotalSheet {
		res.TotalSheet = append(res.TotalSheet, dto.TotalSheetRowResponse{
			Date:             t.Date,
			SettlementNo:     t.SettlementNo,
			NetWeight:        t.NetWeight,
			ProcessingAmount: t.ProcessingAmount,
			Inventory:        t.Inventory,
			DayBoundary:      t.DayBoundary,
			ConversionFactor: t.ConversionFactor,
			OutputWeight:     t.OutputWeight,
			EndingInventory:  t.EndingInventory,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
