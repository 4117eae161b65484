package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitPostgresSchema creates the registry tables in Postgres.
// Ledgers stay in the service's SQLite database.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	statements := []string{
		`
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
			last_verified_date DATE
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_restaurants_collection_point
		ON restaurants(collection_point);
		`,
		`
		CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			plate TEXT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('to_restaurant', 'to_sale')),
			tare_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			rough_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			net_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			driver TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'unavailable')),
			last_use_date DATE,
			cooldown_days INTEGER NOT NULL DEFAULT 3,
			version INTEGER NOT NULL DEFAULT 0
		);
		`,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}
	return nil
}

// SeedPostgresFromJSON upserts the registry seed into Postgres.
func SeedPostgresFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	restaurants, vehicles, err := LoadRegistrySeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed registry: begin tx: %w", err)
	}
	defer tx.Rollback()

	restaurantQuery := `
	INSERT INTO restaurants (
		id, name, province, city, district, street, region, declared_type, collection_point
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		province = EXCLUDED.province,
		city = EXCLUDED.city,
		district = EXCLUDED.district,
		street = EXCLUDED.street,
		region = EXCLUDED.region,
		declared_type = EXCLUDED.declared_type,
		collection_point = EXCLUDED.collection_point;
	`
	for _, r := range restaurants {
		if _, err := tx.ExecContext(ctx, restaurantQuery,
			r.ID, r.Name, r.Province, r.City, r.District, r.Street, r.Region, r.DeclaredType, r.CollectionPoint,
		); err != nil {
			return fmt.Errorf("seed registry: upsert restaurant id=%s: %w", r.ID, err)
		}
	}

	vehicleQuery := `
	INSERT INTO vehicles (
		id, plate, type, tare_weight, rough_weight, net_weight, driver, status, cooldown_days
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		plate = EXCLUDED.plate,
		type = EXCLUDED.type,
		tare_weight = EXCLUDED.tare_weight,
		rough_weight = EXCLUDED.rough_weight,
		net_weight = EXCLUDED.net_weight,
		driver = EXCLUDED.driver,
		status = EXCLUDED.status,
		cooldown_days = EXCLUDED.cooldown_days;
	`
	for _, v := range vehicles {
		if _, err := tx.ExecContext(ctx, vehicleQuery,
			v.ID, v.Plate, string(v.Type), v.TareWeight, v.RoughWeight, v.NetWeight, v.Driver, string(v.Status), v.CooldownDays,
		); err != nil {
			return fmt.Errorf("seed registry: upsert vehicle id=%s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed registry: commit tx: %w", err)
	}
	return nil
}
