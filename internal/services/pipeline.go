package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/platform/metrics"
	"oil-collection-service/internal/platform/obs"
	"oil-collection-service/internal/ports"
	"sync"
	"time"
)

// Engine runs the allocation and reconciliation stages with one immutable
// configuration. It holds no per-batch state and may be shared.
type Engine struct {
	cfg       config.EngineConfig
	estimator *VolumeEstimator

	// Serializes cycles that append to a ledger: each cycle continues the
	// total sheet and serial sequences left by the one before it.
	ledgerMu sync.Mutex
}

func NewEngine(cfg config.EngineConfig) *Engine {
	return &Engine{cfg: cfg, estimator: NewVolumeEstimator(cfg.VolumeRules())}
}

func (e *Engine) Config() config.EngineConfig { return e.cfg }

type CollectionCycleRequest struct {
	CollectionPoint string
	// Owner identifies the batch holding vehicle leases.
	Owner    string
	Today    time.Time
	Month    time.Time
	StartDay int
	Days     int
	// Prior total-sheet rows the new trips are appended to. Ignored when
	// the cycle runs against a ledger, which supplies its own sheet.
	PriorSheet []domain.TotalSheetRow
}

type CollectionCycleResult struct {
	Collection        []domain.OilCollectionRow
	Balance           []domain.BalanceRow
	TotalSheet        []domain.TotalSheetRow
	VehicleUpdates    []domain.VehicleUpdate
	RestaurantUpdates []domain.RestaurantUpdate
}

// RunCollectionCycle estimates, groups, splits, schedules and rolls up one
// collection batch. On success the ledger rows are saved (when ledger is
// non-nil) and the vehicle and restaurant diffs are applied to the registry.
// Nothing is persisted on failure. Every failure, including a panic, is
// returned as *domain.AllocationError.
func (e *Engine) RunCollectionCycle(
	ctx context.Context,
	req CollectionCycleRequest,
	registry ports.RegistryRepository,
	ledger ports.LedgerRepository,
	leaser ports.VehicleLeaser,
	rng *rand.Rand,
) (res CollectionCycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			var ie *domain.InsufficiencyError
			if errors.As(err, &ie) {
				metrics.InsufficiencyFailures.WithLabelValues(string(ie.Kind)).Inc()
			}
			res = CollectionCycleResult{}
			err = &domain.AllocationError{Err: err}
		}
	}()
	defer obs.Time(ctx, "collection_cycle")(&err)

	prior := req.PriorSheet
	if ledger != nil {
		e.ledgerMu.Lock()
		defer e.ledgerMu.Unlock()

		if prior, err = ledger.ListTotalSheet(ctx); err != nil {
			return res, fmt.Errorf("collection cycle: list total sheet: %w", err)
		}
	}

	restaurants, err := registry.ListRestaurants(ctx, req.CollectionPoint)
	if err != nil {
		return res, fmt.Errorf("collection cycle: list restaurants: %w", err)
	}
	vehicles, err := registry.ListVehicles(ctx)
	if err != nil {
		return res, fmt.Errorf("collection cycle: list vehicles: %w", err)
	}
	for i := range vehicles {
		if vehicles[i].CooldownDays < 0 {
			vehicles[i].CooldownDays = e.cfg.CooldownDays
		}
	}

	if leaser != nil {
		var leased []string
		vehicles, leased, err = e.leaseFleet(ctx, req, vehicles, leaser)
		if err != nil {
			return res, err
		}
		defer func() {
			if rerr := leaser.Release(context.WithoutCancel(ctx), req.Owner, leased); rerr != nil && err == nil {
				err = fmt.Errorf("collection cycle: release vehicles: %w", rerr)
			}
		}()
	}

	demands := make([]Demand, 0, len(restaurants))
	for _, r := range restaurants {
		demands = append(demands, Demand{Restaurant: r, Volume: e.estimator.Estimate(r.DeclaredType, rng)})
	}

	grouped, err := e.groupStage(ctx, demands, vehicles, req.Today, rng)
	if err != nil {
		return res, err
	}

	rows := SplitContainers(grouped.Rows, SplitOptions{
		LargeUnit:    e.cfg.LargeUnit,
		SmallUnit:    e.cfg.SmallUnit,
		MinLargeMass: e.cfg.MinLargeMass,
		TargetSmall:  e.cfg.TargetSmall,
		MaxAttempts:  e.cfg.MaxAttempts,
	}, rng)

	balance := BuildBalanceRows(rows, BalanceOptions{
		NetWeightFactor: e.cfg.NetWeightFactor,
		Offset:          e.cfg.NetWeightOffset,
	}, rng)

	issued := make([]string, 0, len(prior))
	for _, r := range prior {
		issued = append(issued, r.SettlementNo)
	}

	scheduled, err := e.scheduleStage(ctx, balance, vehicles, req, issued, rng)
	if err != nil {
		return res, err
	}

	rows = BackWrite(rows, scheduled.Balance)
	sheet := RollUpTotalSheet(prior, scheduled.Balance, TotalSheetOptions{
		ConversionFactor: e.cfg.ConversionFactor,
	}, rng)
	appended := sheet[len(prior):]

	if ledger != nil {
		if err := ledger.SaveCycle(ctx, rows, scheduled.Balance, appended); err != nil {
			return res, fmt.Errorf("collection cycle: save ledgers: %w", err)
		}
	}
	if err := registry.ApplyVehicleUpdates(ctx, scheduled.Updates); err != nil {
		return res, fmt.Errorf("collection cycle: apply vehicle updates: %w", err)
	}
	if err := registry.ApplyRestaurantUpdates(ctx, grouped.Updates); err != nil {
		return res, fmt.Errorf("collection cycle: apply restaurant updates: %w", err)
	}

	return CollectionCycleResult{
		Collection:        rows,
		Balance:           scheduled.Balance,
		TotalSheet:        appended,
		VehicleUpdates:    scheduled.Updates,
		RestaurantUpdates: grouped.Updates,
	}, nil
}

// leaseFleet restricts the fleet to collection vehicles this batch could lease.
// Sale vehicles are never leased and stay in the returned slice.
func (e *Engine) leaseFleet(ctx context.Context, req CollectionCycleRequest, vehicles []domain.Vehicle, leaser ports.VehicleLeaser) ([]domain.Vehicle, []string, error) {
	var ids []string
	for _, v := range vehicles {
		if v.Type == domain.VehicleToRestaurant {
			ids = append(ids, v.ID)
		}
	}

	leased, err := leaser.Lease(ctx, req.Owner, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("collection cycle: lease vehicles: %w", err)
	}

	held := make(map[string]bool, len(leased))
	for _, id := range leased {
		held[id] = true
	}

	out := make([]domain.Vehicle, 0, len(leased))
	for _, v := range vehicles {
		if v.Type != domain.VehicleToRestaurant || held[v.ID] {
			out = append(out, v)
		}
	}
	return out, leased, nil
}

func (e *Engine) groupStage(ctx context.Context, demands []Demand, vehicles []domain.Vehicle, today time.Time, rng *rand.Rand) (res GroupResult, err error) {
	defer obs.Time(ctx, "group_loads")(&err)

	res, err = GroupLoads(demands, vehicles, GroupOptions{
		Min:   e.cfg.Band.Min,
		Max:   e.cfg.Band.Max,
		Cap:   e.cfg.VolumeCap,
		Today: today,
	}, rng)
	if err != nil {
		return res, err
	}

	keys := make(map[string]bool)
	for _, r := range res.Rows {
		if !keys[r.GroupKey] {
			keys[r.GroupKey] = true
			metrics.VolumeAllocated.Add(float64(r.LoadVolume))
		}
	}
	metrics.LoadsFormed.Add(float64(len(keys)))
	return res, nil
}

func (e *Engine) scheduleStage(ctx context.Context, balance []domain.BalanceRow, vehicles []domain.Vehicle, req CollectionCycleRequest, issued []string, rng *rand.Rand) (res ScheduleResult, err error) {
	defer obs.Time(ctx, "schedule_deliveries")(&err)

	days := req.Days
	if days <= 0 {
		days = e.cfg.ScheduleDays
	}
	return ScheduleDeliveries(balance, vehicles, ScheduleOptions{
		Month:    req.Month,
		StartDay: req.StartDay,
		Days:     days,
		Issued:   issued,
	}, rng)
}
