package repositories

import (
	"context"
	"database/sql"
	"errors"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/ports"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

const seedJSON = `{
  "restaurants": [
    {"id": "r1", "name": "Chen Noodles", "city": "Chengdu", "district": "Jinjiang", "region": "east", "declared_type": "noodles", "collection_point": "cp-1"},
    {"id": "r2", "name": "Li Hotpot", "city": "Chengdu", "district": "Wuhou", "region": "east", "declared_type": "hotpot", "collection_point": "cp-1"},
    {"id": "r3", "name": "Qing BBQ", "city": "Chengdu", "district": "Qingyang", "declared_type": "bbq", "collection_point": "cp-2"}
  ],
  "vehicles": [
    {"id": "v1", "plate": "A-0001", "type": "to_restaurant", "tare_weight": 8.2},
    {"id": "v2", "plate": "A-0002", "type": "to_restaurant", "tare_weight": 8.4, "cooldown_days": 5},
    {"id": "s1", "plate": "B-0001", "type": "to_sale", "tare_weight": 14.5, "driver": "Wang"}
  ]
}`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte(seedJSON), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if err := SeedFromJSON(db, path); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func TestSqliteRegistryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteRegistryRepository(openTestDB(t))

	restaurants, err := repo.ListRestaurants(ctx, "cp-1")
	if err != nil {
		t.Fatalf("list restaurants: %v", err)
	}
	if len(restaurants) != 2 || restaurants[0].ID != "r1" {
		t.Fatalf("restaurants = %+v", restaurants)
	}

	all, _ := repo.ListRestaurants(ctx, "")
	if len(all) != 3 || all[2].GroupRegion() != "Qingyang" {
		t.Fatalf("all restaurants = %+v", all)
	}

	vehicles, err := repo.ListVehicles(ctx)
	if err != nil {
		t.Fatalf("list vehicles: %v", err)
	}
	if len(vehicles) != 3 {
		t.Fatalf("vehicles = %d, want 3", len(vehicles))
	}
	byID := map[string]domain.Vehicle{}
	for _, v := range vehicles {
		byID[v.ID] = v
	}
	if byID["v1"].CooldownDays != 3 || byID["v2"].CooldownDays != 5 || byID["s1"].Type != domain.VehicleToSale {
		t.Fatalf("vehicle fields = %+v", byID)
	}

	used := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if err := repo.ApplyVehicleUpdates(ctx, []domain.VehicleUpdate{{VehicleID: "v1", LastUseDate: used, Version: 0}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	vehicles, _ = repo.ListVehicles(ctx)
	v1 := vehicles[1]
	if v1.ID != "v1" || v1.Version != 1 || v1.LastUseDate == nil || !v1.LastUseDate.Equal(used) {
		t.Fatalf("v1 after update = %+v", v1)
	}

	err = repo.ApplyVehicleUpdates(ctx, []domain.VehicleUpdate{
		{VehicleID: "v2", LastUseDate: used, Version: 0},
		{VehicleID: "v1", LastUseDate: used, Version: 0},
	})
	if !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	vehicles, _ = repo.ListVehicles(ctx)
	if vehicles[2].ID != "v2" || vehicles[2].Version != 0 {
		t.Fatalf("conflicting batch partially applied: %+v", vehicles[2])
	}

	err = repo.ApplyVehicleUpdates(ctx, []domain.VehicleUpdate{{VehicleID: "nope", LastUseDate: used}})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.ApplyRestaurantUpdates(ctx, []domain.RestaurantUpdate{{RestaurantID: "r2", AllocatedVolume: 4, LastVerifiedDate: used}}); err != nil {
		t.Fatalf("apply restaurant: %v", err)
	}
	restaurants, _ = repo.ListRestaurants(ctx, "cp-1")
	if restaurants[1].AllocatedVolume != 4 || restaurants[1].LastVerifiedDate == nil {
		t.Fatalf("r2 after update = %+v", restaurants[1])
	}
}

func TestSqliteLedgerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteLedgerRepository(openTestDB(t))

	june3 := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	boundary := true
	collection := []domain.OilCollectionRow{
		{RestaurantID: "r1", GroupKey: "g1", LoadVolume: 40, LargeCount: 40, DeliveryDate: &june3, SettlementNo: "20240603-001"},
		{RestaurantID: "r2", GroupKey: "g1", LoadVolume: 40, LargeCount: 40, DeliveryDate: &june3, SettlementNo: "20240603-001"},
	}
	balance := []domain.BalanceRow{{GroupKey: "g1", LoadVolume: 40, NetWeight: 7.05, SettlementNo: "20240603-001", DeliveryDate: june3}}
	total := []domain.TotalSheetRow{{
		Date: june3, GroupKey: "g1", SettlementNo: "20240603-001", NetWeight: 7.05,
		ProcessingAmount: 7.05, DayBoundary: &boundary, ConversionFactor: 91.5, OutputWeight: 6.45, EndingInventory: 6.45,
	}}

	if err := repo.SaveCycle(ctx, collection, balance, total); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	sheet, err := repo.ListTotalSheet(ctx)
	if err != nil {
		t.Fatalf("list total sheet: %v", err)
	}
	if len(sheet) != 1 || sheet[0].DayBoundary == nil || !*sheet[0].DayBoundary || !sheet[0].Date.Equal(june3) {
		t.Fatalf("sheet = %+v", sheet)
	}

	rows, err := repo.ListBalanceRows(ctx, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC))
	if err != nil || len(rows) != 1 {
		t.Fatalf("june balance = %v, %v", rows, err)
	}
	if rows, _ := repo.ListBalanceRows(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)); len(rows) != 0 {
		t.Fatalf("may balance = %v", rows)
	}

	receipts := []domain.ReceiptConfirmationRow{{PickupDate: june3.AddDate(0, 0, 1), VehicleID: "s1", WeighedMass: 31.2, SettlementDocNo: "JS2024060401"}}
	if err := repo.SaveReceipts(ctx, receipts); err != nil {
		t.Fatalf("save receipts: %v", err)
	}
	got, err := repo.ListReceipts(ctx, june3)
	if err != nil || len(got) != 1 || got[0].WeighedMass != 31.2 {
		t.Fatalf("receipts = %+v, %v", got, err)
	}

	sheet[0].ContractAllocation = "HT240601"
	rows[0].ContractAllocation = "HT240601"
	if err := repo.SaveContractAllocations(ctx, sheet, rows); err != nil {
		t.Fatalf("save allocations: %v", err)
	}
	// A later token never overwrites an existing one.
	sheet[0].ContractAllocation = "HT240701"
	if err := repo.SaveContractAllocations(ctx, sheet, nil); err != nil {
		t.Fatalf("save allocations again: %v", err)
	}

	sheet, _ = repo.ListTotalSheet(ctx)
	if sheet[0].ContractAllocation != "HT240601" {
		t.Fatalf("total contract = %q", sheet[0].ContractAllocation)
	}
	saved, _ := repo.ListCollectionRows(ctx)
	for _, r := range saved {
		if r.ContractAllocation != "HT240601" || r.DeliveryDate == nil {
			t.Fatalf("collection row = %+v", r)
		}
	}
}

func TestLoadRegistrySeedRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"vehicles": [{"id": "v1", "plate": "X", "type": "bicycle"}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := LoadRegistrySeed(path); err == nil {
		t.Fatal("expected error for unknown vehicle type")
	}
}
