package api

import (
	"net/http"
	"oil-collection-service/internal/api/handlers"
	"oil-collection-service/internal/platform/metrics"
	"oil-collection-service/internal/ports"
	"oil-collection-service/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP layer hands to its handlers.
type Deps struct {
	Engine   *services.Engine
	Registry ports.RegistryRepository
	Ledger   ports.LedgerRepository
	Leaser   ports.VehicleLeaser
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	registry := &handlers.RegistryHandler{Repo: d.Registry}
	plans := &handlers.PlanHandler{
		Engine:   d.Engine,
		Registry: d.Registry,
		Ledger:   d.Ledger,
		Leaser:   d.Leaser,
	}
	settlement := &handlers.SettlementHandler{
		Engine:   d.Engine,
		Registry: d.Registry,
		Ledger:   d.Ledger,
	}
	exports := &handlers.ExportHandler{Ledger: d.Ledger}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/restaurants", registry.Restaurants)
	mux.HandleFunc("/vehicles", registry.Vehicles)
	mux.HandleFunc("/plans", plans.Plan)
	mux.HandleFunc("/receipts", settlement.Receipts)
	mux.HandleFunc("/contracts/reconcile", settlement.Reconcile)
	mux.HandleFunc("/ledgers/export", exports.Export)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
