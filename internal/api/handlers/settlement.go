package handlers

import (
	"log"
	"net/http"
	"oil-collection-service/internal/api/dto"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/ports"
	"oil-collection-service/internal/services"
	"time"
)

type SettlementHandler struct {
	Engine   *services.Engine
	Registry ports.RegistryRepository
	Ledger   ports.LedgerRepository
}

// Receipts simulates the buyer weigh-ins for a target mass and stores them.
func (h *SettlementHandler) Receipts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ReceiptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TargetMass <= 0 {
		writeError(w, r, http.StatusBadRequest, "target_mass must be positive")
		return
	}
	if req.Days < 1 || req.Days > 31 {
		writeError(w, r, http.StatusBadRequest, "days must be between 1 and 31")
		return
	}

	svcReq := services.ReceiptRequest{Target: req.TargetMass, Days: req.Days}
	if req.LastPickup != nil {
		svcReq.LastPickup = domain.Day(*req.LastPickup)
	}

	rows, err := h.Engine.ConfirmReceipts(r.Context(), svcReq, h.Registry, h.Ledger, newRand(req.Seed))
	if err != nil {
		writeEngineError(w, r, "confirm receipts", err)
		return
	}

	res := dto.ListReceiptsResponse{Receipts: make([]dto.ReceiptResponse, 0, len(rows))}
	for _, row := range rows {
		res.TotalWeighed += row.WeighedMass
		res.Receipts = append(res.Receipts, dto.ReceiptResponse{
			PickupDate:      row.PickupDate,
			VehicleID:       row.VehicleID,
			VehiclePlate:    row.VehiclePlate,
			Driver:          row.Driver,
			WeighedMass:     row.WeighedMass,
			TareWeight:      row.TareWeight,
			GrossWeight:     row.GrossWeight,
			NetWeight:       row.NetWeight,
			ShortfallPct:    row.ShortfallPct,
			SettlementDocNo: row.SettlementDocNo,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Reconcile back-fills the month's contract token across the stored ledgers.
func (h *SettlementHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ReconcileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ref := domain.Day(time.Now())
	if req.RefDate != nil {
		ref = domain.Day(*req.RefDate)
	}

	out, err := h.Engine.ReconcileMonth(r.Context(), ref, h.Ledger)
	if err != nil {
		writeEngineError(w, r, "reconcile contracts", err)
		return
	}

	log.Printf("contracts reconciled: token=%s stop_index=%d filled=%d", out.Token, out.StopIndex, out.Filled)
	writeJSON(w, r, http.StatusOK, dto.ReconcileResponse{
		Token:     out.Token,
		StopDate:  out.StopDate,
		StopIndex: out.StopIndex,
		Filled:    out.Filled,
	})
}
