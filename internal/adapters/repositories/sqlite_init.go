package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRestaurantsQuery := `
	CREATE TABLE IF NOT EXISTS restaurants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		street TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		declared_type TEXT NOT NULL DEFAULT '',
		collection_point TEXT NOT NULL DEFAULT '',
		allocated_volume INTEGER NOT NULL DEFAULT 0,
		last_verified_date TEXT
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		plate TEXT NOT NULL,
		type TEXT NOT NULL,
		tare_weight REAL NOT NULL DEFAULT 0,
		rough_weight REAL NOT NULL DEFAULT 0,
		net_weight REAL NOT NULL DEFAULT 0,
		driver TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'available',
		last_use_date TEXT,
		cooldown_days INTEGER NOT NULL DEFAULT 3,
		version INTEGER NOT NULL DEFAULT 0
	);
	`

	createCollectionQuery := `
	CREATE TABLE IF NOT EXISTS oil_collection_rows (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		restaurant_id TEXT NOT NULL,
		restaurant_name TEXT NOT NULL,
		region TEXT NOT NULL,
		district TEXT NOT NULL,
		city TEXT NOT NULL,
		collection_point TEXT NOT NULL,
		volume INTEGER NOT NULL,
		vehicle_id TEXT NOT NULL,
		vehicle_plate TEXT NOT NULL,
		load_volume INTEGER NOT NULL,
		group_key TEXT NOT NULL,
		large_count INTEGER NOT NULL,
		small_count INTEGER NOT NULL,
		delivery_date TEXT,
		settlement_no TEXT NOT NULL DEFAULT '',
		contract_allocation TEXT NOT NULL DEFAULT ''
	);
	`

	createBalanceQuery := `
	CREATE TABLE IF NOT EXISTS balance_rows (
		group_key TEXT PRIMARY KEY,
		region TEXT NOT NULL,
		district TEXT NOT NULL,
		collection_point TEXT NOT NULL,
		vehicle_id TEXT NOT NULL,
		vehicle_plate TEXT NOT NULL,
		load_volume INTEGER NOT NULL,
		large_count INTEGER NOT NULL,
		small_count INTEGER NOT NULL,
		net_weight REAL NOT NULL,
		settlement_no TEXT NOT NULL,
		delivery_date TEXT NOT NULL,
		contract_allocation TEXT NOT NULL DEFAULT ''
	);
	`

	createTotalSheetQuery := `
	CREATE TABLE IF NOT EXISTS total_sheet_rows (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		group_key TEXT NOT NULL,
		settlement_no TEXT NOT NULL,
		vehicle_plate TEXT NOT NULL,
		net_weight REAL NOT NULL,
		processing_amount REAL NOT NULL,
		inventory REAL NOT NULL,
		day_boundary INTEGER,
		conversion_factor REAL NOT NULL,
		output_weight REAL NOT NULL,
		sold_quantity REAL NOT NULL,
		ending_inventory REAL NOT NULL,
		contract_allocation TEXT NOT NULL DEFAULT ''
	);
	`

	createReceiptsQuery := `
	CREATE TABLE IF NOT EXISTS receipt_rows (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		pickup_date TEXT NOT NULL,
		vehicle_id TEXT NOT NULL,
		vehicle_plate TEXT NOT NULL,
		driver TEXT NOT NULL,
		weighed_mass REAL NOT NULL,
		tare_weight REAL NOT NULL,
		gross_weight REAL NOT NULL,
		net_weight REAL NOT NULL,
		shortfall_pct REAL NOT NULL,
		settlement_doc_no TEXT NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_balance_rows_delivery_date
	ON balance_rows(delivery_date);
	`

	statements := []string{
		createRestaurantsQuery,
		createVehiclesQuery,
		createCollectionQuery,
		createBalanceQuery,
		createTotalSheetQuery,
		createReceiptsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the registry tables from a JSON seed file.
// Existing rows are replaced; usage state (last use, version) is reset.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	restaurants, vehicles, err := LoadRegistrySeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed registry: begin tx: %w", err)
	}
	defer tx.Rollback()

	restaurantQuery := `
	INSERT OR REPLACE INTO restaurants (
		id, name, province, city, district, street, region, declared_type, collection_point
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, r := range restaurants {
		if _, err := tx.Exec(restaurantQuery,
			r.ID, r.Name, r.Province, r.City, r.District, r.Street, r.Region, r.DeclaredType, r.CollectionPoint,
		); err != nil {
			return fmt.Errorf("seed registry: insert restaurant id=%s: %w", r.ID, err)
		}
	}

	vehicleQuery := `
	INSERT OR REPLACE INTO vehicles (
		id, plate, type, tare_weight, rough_weight, net_weight, driver, status, cooldown_days
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, v := range vehicles {
		if _, err := tx.Exec(vehicleQuery,
			v.ID, v.Plate, string(v.Type), v.TareWeight, v.RoughWeight, v.NetWeight, v.Driver, string(v.Status), v.CooldownDays,
		); err != nil {
			return fmt.Errorf("seed registry: insert vehicle id=%s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed registry: commit tx: %w", err)
	}

	return nil
}
