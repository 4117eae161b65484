package services

import (
	"context"
	"errors"
	"fmt"
	"oil-collection-service/internal/adapters/lease"
	"oil-collection-service/internal/adapters/memory"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/domain"
	"strings"
	"sync"
	"testing"
)

func testEngine() *Engine {
	cfg := config.DefaultEngineConfig()
	cfg.Volumes = []config.VolumeEntry{{Match: "noodles", Values: config.IntChoices{4}}}
	cfg.VolumeCap = 100
	cfg.TargetSmall = 0
	return NewEngine(cfg)
}

func tenNoodleShops() []domain.Restaurant {
	var out []domain.Restaurant
	for i := 0; i < 10; i++ {
		district := "jinjiang"
		if i%2 == 0 {
			district = "wuhou"
		}
		out = append(out, restaurant(fmt.Sprintf("r%d", i), "east", district))
	}
	return out
}

func cycleRequest() CollectionCycleRequest {
	return CollectionCycleRequest{
		CollectionPoint: "cp-1",
		Owner:           "batch-1",
		Today:           day(2024, 6, 1),
		Month:           day(2024, 6, 1),
		Days:            5,
	}
}

func TestRunCollectionCycle(t *testing.T) {
	ctx := context.Background()
	fleet := append(collectionFleet(2), saleVehicle("s1"))
	registry := memory.NewRegistry(tenNoodleShops(), fleet)
	ledger := memory.NewLedger()
	leaser := lease.NewMemoryVehicleLease()

	res, err := testEngine().RunCollectionCycle(ctx, cycleRequest(), registry, ledger, leaser, newRNG(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Nine shops cross the floor at 36; the tenth would push the load to min+largest.
	if len(res.Collection) != 9 || len(res.Balance) != 1 || len(res.TotalSheet) != 1 {
		t.Fatalf("rows = %d/%d/%d, want 9/1/1", len(res.Collection), len(res.Balance), len(res.TotalSheet))
	}
	if res.Balance[0].LoadVolume != 36 {
		t.Fatalf("load = %d, want 36", res.Balance[0].LoadVolume)
	}

	trip := res.Balance[0]
	for _, r := range res.Collection {
		if r.GroupKey != trip.GroupKey || r.DeliveryDate == nil || !r.DeliveryDate.Equal(trip.DeliveryDate) {
			t.Fatalf("collection row not joined to its trip: %+v", r)
		}
		if r.SettlementNo != trip.SettlementNo || r.VehicleID != trip.VehicleID {
			t.Fatalf("collection row missing back-write: %+v", r)
		}
	}
	if res.TotalSheet[0].DayBoundary == nil || res.TotalSheet[0].SettlementNo != trip.SettlementNo {
		t.Fatalf("total sheet row = %+v", res.TotalSheet[0])
	}

	vehicles, _ := registry.ListVehicles(ctx)
	stamped := 0
	for _, v := range vehicles {
		if v.ID == trip.VehicleID {
			if v.LastUseDate == nil || !v.LastUseDate.Equal(trip.DeliveryDate) || v.Version != 1 {
				t.Fatalf("vehicle not stamped: %+v", v)
			}
			stamped++
		} else if v.Version != 0 {
			t.Fatalf("unused vehicle changed: %+v", v)
		}
	}
	if stamped != 1 {
		t.Fatalf("stamped vehicles = %d, want 1", stamped)
	}

	restaurants, _ := registry.ListRestaurants(ctx, "cp-1")
	verified := 0
	for _, r := range restaurants {
		if r.LastVerifiedDate != nil {
			if r.AllocatedVolume != 4 {
				t.Fatalf("restaurant stamped with %d, want 4", r.AllocatedVolume)
			}
			verified++
		}
	}
	if verified != 9 {
		t.Fatalf("stamped restaurants = %d, want 9", verified)
	}

	saved, _ := ledger.ListCollectionRows(ctx)
	sheet, _ := ledger.ListTotalSheet(ctx)
	if len(saved) != 9 || len(sheet) != 1 {
		t.Fatalf("ledger rows = %d/%d, want 9/1", len(saved), len(sheet))
	}

	got, _ := leaser.Lease(ctx, "batch-2", []string{"v1", "v2"})
	if len(got) != 2 {
		t.Fatalf("leases not released: batch-2 got %v", got)
	}
}

func TestRunCollectionCycleInsufficientVolume(t *testing.T) {
	ctx := context.Background()
	registry := memory.NewRegistry(tenNoodleShops()[:2], collectionFleet(2))
	ledger := memory.NewLedger()

	_, err := testEngine().RunCollectionCycle(ctx, cycleRequest(), registry, ledger, nil, newRNG(1))

	var ae *domain.AllocationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AllocationError, got %T %v", err, err)
	}
	var ie *domain.InsufficiencyError
	if !errors.As(err, &ie) || ie.Kind != domain.InsufficientVolume {
		t.Fatalf("cause = %v, want volume insufficiency", err)
	}

	vehicles, _ := registry.ListVehicles(ctx)
	for _, v := range vehicles {
		if v.Version != 0 || v.LastUseDate != nil {
			t.Fatalf("vehicle touched on failure: %+v", v)
		}
	}
	if rows, _ := ledger.ListCollectionRows(ctx); len(rows) != 0 {
		t.Fatalf("ledger written on failure: %d rows", len(rows))
	}
}

func TestRunCollectionCycleLeasedElsewhere(t *testing.T) {
	ctx := context.Background()
	registry := memory.NewRegistry(tenNoodleShops(), collectionFleet(2))
	leaser := lease.NewMemoryVehicleLease()
	if _, err := leaser.Lease(ctx, "other-batch", []string{"v1", "v2"}); err != nil {
		t.Fatalf("lease: %v", err)
	}

	_, err := testEngine().RunCollectionCycle(ctx, cycleRequest(), registry, nil, leaser, newRNG(1))

	var ie *domain.InsufficiencyError
	if !errors.As(err, &ie) || ie.Kind != domain.InsufficientVehicles {
		t.Fatalf("expected vehicle insufficiency, got %v", err)
	}
}

type panickingRegistry struct {
	*memory.Registry
}

func (panickingRegistry) ListVehicles(context.Context) ([]domain.Vehicle, error) {
	panic("registry offline")
}

func TestRunCollectionCycleRecoversPanic(t *testing.T) {
	registry := panickingRegistry{memory.NewRegistry(tenNoodleShops(), nil)}

	_, err := testEngine().RunCollectionCycle(context.Background(), cycleRequest(), registry, nil, nil, newRNG(1))

	var ae *domain.AllocationError
	if !errors.As(err, &ae) || !strings.Contains(err.Error(), "registry offline") {
		t.Fatalf("expected AllocationError carrying the panic, got %v", err)
	}
}

func TestConfirmAndReconcile(t *testing.T) {
	ctx := context.Background()
	fixture := reconcileFixture()

	ledger := memory.NewLedger()
	var balance []domain.BalanceRow
	balance = append(balance, fixture.PrevBalance...)
	balance = append(balance, fixture.CurBalance...)
	if err := ledger.SaveCycle(ctx, nil, balance, fixture.TotalSheet); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	if err := ledger.SaveReceipts(ctx, fixture.Receipts); err != nil {
		t.Fatalf("seed receipts: %v", err)
	}

	cfg := config.DefaultEngineConfig()
	cfg.ContractPrefix = "HT"
	cfg.ProductionCoefficient = 0.5
	engine := NewEngine(cfg)

	res, err := engine.ReconcileMonth(ctx, day(2024, 6, 15), ledger)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Filled != 7 {
		t.Fatalf("filled = %d, want 7", res.Filled)
	}

	sheet, _ := ledger.ListTotalSheet(ctx)
	if sheet[0].ContractAllocation != "HT240601" || sheet[6].ContractAllocation != "" {
		t.Fatalf("stored sheet = %+v", sheet)
	}

	again, err := engine.ReconcileMonth(ctx, day(2024, 6, 15), ledger)
	if err != nil || again.Filled != 0 {
		t.Fatalf("second reconcile filled %d, err %v", again.Filled, err)
	}

	registry := memory.NewRegistry(nil, []domain.Vehicle{saleVehicle("s1")})
	rows, err := engine.ConfirmReceipts(ctx, ReceiptRequest{Target: 200, Days: 3}, registry, ledger, newRNG(3))
	if err != nil {
		t.Fatalf("confirm receipts: %v", err)
	}
	if !rows[0].PickupDate.Equal(day(2024, 6, 5)) {
		t.Fatalf("first pickup = %v, want the day after the last sheet date", rows[0].PickupDate)
	}
}

func TestRunCollectionCycleUnsetCooldownUsesConfig(t *testing.T) {
	yesterday := day(2024, 5, 31)
	fleet := collectionFleet(2)
	for i := range fleet {
		fleet[i].CooldownDays = -1
		fleet[i].LastUseDate = &yesterday
	}

	engine := testEngine()
	if _, err := engine.RunCollectionCycle(context.Background(), cycleRequest(), memory.NewRegistry(tenNoodleShops(), fleet), nil, nil, newRNG(2)); !domain.IsInsufficiency(err) {
		t.Fatalf("default cooldown: err = %v, want insufficiency", err)
	}

	cfg := engine.Config()
	cfg.CooldownDays = 0
	if _, err := NewEngine(cfg).RunCollectionCycle(context.Background(), cycleRequest(), memory.NewRegistry(tenNoodleShops(), fleet), nil, nil, newRNG(2)); err != nil {
		t.Fatalf("zero cooldown: unexpected error: %v", err)
	}
}

func shopsAt(point string, n int) []domain.Restaurant {
	var out []domain.Restaurant
	for i := 0; i < n; i++ {
		r := restaurant(fmt.Sprintf("%s-r%d", point, i), "east", "wuhou")
		r.CollectionPoint = point
		out = append(out, r)
	}
	return out
}

func TestRunCollectionCycleSerialsUniqueAcrossCycles(t *testing.T) {
	ctx := context.Background()
	restaurants := append(shopsAt("cp-1", 10), shopsAt("cp-2", 10)...)
	registry := memory.NewRegistry(restaurants, collectionFleet(2))
	ledger := memory.NewLedger()
	engine := testEngine()

	serials := make(map[string]string)
	for i, point := range []string{"cp-1", "cp-2"} {
		req := cycleRequest()
		req.CollectionPoint = point
		req.StartDay = 10
		req.Days = 1

		res, err := engine.RunCollectionCycle(ctx, req, registry, ledger, nil, newRNG(int64(i+1)))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", point, err)
		}
		for _, b := range res.Balance {
			if other, ok := serials[b.SettlementNo]; ok {
				t.Fatalf("serial %s issued to %s and %s", b.SettlementNo, other, b.GroupKey)
			}
			serials[b.SettlementNo] = b.GroupKey
		}
	}

	if _, ok := serials["20240610-002"]; !ok || len(serials) != 2 {
		t.Fatalf("serials = %v, want 20240610-001 and -002", serials)
	}
}

func TestRunCollectionCycleConcurrentBatchesKeepSheetCarry(t *testing.T) {
	ctx := context.Background()
	points := []string{"cp-0", "cp-1", "cp-2", "cp-3"}

	var restaurants []domain.Restaurant
	for _, p := range points {
		restaurants = append(restaurants, shopsAt(p, 10)...)
	}
	registry := memory.NewRegistry(restaurants, collectionFleet(len(points)))
	ledger := memory.NewLedger()
	engine := testEngine()

	var wg sync.WaitGroup
	errs := make([]error, len(points))
	for i, p := range points {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := cycleRequest()
			req.CollectionPoint = p
			_, errs[i] = engine.RunCollectionCycle(ctx, req, registry, ledger, nil, newRNG(int64(i+1)))
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", points[i], err)
		}
	}

	sheet, _ := ledger.ListTotalSheet(ctx)
	if len(sheet) != len(points) {
		t.Fatalf("sheet rows = %d, want %d", len(sheet), len(points))
	}
	if !approx(sheet[0].EndingInventory, sheet[0].OutputWeight-sheet[0].SoldQuantity) {
		t.Fatalf("first ending = %v", sheet[0].EndingInventory)
	}
	for i := 1; i < len(sheet); i++ {
		want := sheet[i].OutputWeight + sheet[i-1].EndingInventory - sheet[i].SoldQuantity
		if !approx(sheet[i].EndingInventory, want) {
			t.Fatalf("row %d: ending %v, want %v", i, sheet[i].EndingInventory, want)
		}
	}
}
