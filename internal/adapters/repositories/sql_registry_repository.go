package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/platform/obs"
	"oil-collection-service/internal/ports"
	"time"
)

// SQLRegistryRepository is a Postgres-backed RegistryRepository.
type SQLRegistryRepository struct {
	DB *sql.DB
}

func NewSQLRegistryRepository(db *sql.DB) *SQLRegistryRepository {
	return &SQLRegistryRepository{DB: db}
}

func (s *SQLRegistryRepository) ListRestaurants(ctx context.Context, collectionPoint string) (_ []domain.Restaurant, err error) {
	defer obs.Time(ctx, "registry.pg.ListRestaurants")(&err)

	if s.DB == nil {
		return nil, errors.New("sql registry repository: db is nil")
	}

	query := `
	SELECT
		id, name, province, city, district, street, region,
		declared_type, collection_point, allocated_volume, last_verified_date
	FROM restaurants
	WHERE $1::text = '' OR collection_point = $1
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query, collectionPoint)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		var r domain.Restaurant
		var verified sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Province, &r.City, &r.District, &r.Street, &r.Region,
			&r.DeclaredType, &r.CollectionPoint, &r.AllocatedVolume, &verified,
		); err != nil {
			return nil, fmt.Errorf("list restaurants: scan row: %w", err)
		}
		r.LastVerifiedDate = nullTimePtr(verified)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: row iteration: %w", err)
	}
	return out, nil
}

func (s *SQLRegistryRepository) ListVehicles(ctx context.Context) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "registry.pg.ListVehicles")(&err)

	if s.DB == nil {
		return nil, errors.New("sql registry repository: db is nil")
	}

	query := `
	SELECT
		id, plate, type, tare_weight, rough_weight, net_weight, driver,
		status, last_use_date, cooldown_days, version
	FROM vehicles
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		var vt, status string
		var lastUse sql.NullTime
		if err := rows.Scan(
			&v.ID, &v.Plate, &vt, &v.TareWeight, &v.RoughWeight, &v.NetWeight, &v.Driver,
			&status, &lastUse, &v.CooldownDays, &v.Version,
		); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		v.Type = domain.VehicleType(vt)
		v.Status = domain.VehicleStatus(status)
		v.LastUseDate = nullTimePtr(lastUse)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}
	return out, nil
}

// Apply versioned vehicle diffs in one transaction.
func (s *SQLRegistryRepository) ApplyVehicleUpdates(ctx context.Context, updates []domain.VehicleUpdate) (err error) {
	defer obs.Time(ctx, "registry.pg.ApplyVehicleUpdates")(&err)

	if len(updates) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply vehicle updates: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	UPDATE vehicles
	SET last_use_date = $1,
		status = COALESCE(NULLIF($2::text, ''), status),
		version = version + 1
	WHERE id = $3 AND version = $4;
	`
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, domain.Day(u.LastUseDate), string(u.Status), u.VehicleID, u.Version)
		if err != nil {
			return fmt.Errorf("apply vehicle updates: update %s: %w", u.VehicleID, err)
		}
		if err := checkVersioned(ctx, tx, res, u.VehicleID, "SELECT COUNT(1) FROM vehicles WHERE id = $1"); err != nil {
			return fmt.Errorf("apply vehicle updates: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply vehicle updates: commit tx: %w", err)
	}
	return nil
}

func (s *SQLRegistryRepository) ApplyRestaurantUpdates(ctx context.Context, updates []domain.RestaurantUpdate) (err error) {
	defer obs.Time(ctx, "registry.pg.ApplyRestaurantUpdates")(&err)

	if len(updates) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply restaurant updates: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	UPDATE restaurants
	SET allocated_volume = $1, last_verified_date = $2
	WHERE id = $3;
	`
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.AllocatedVolume, domain.Day(u.LastVerifiedDate), u.RestaurantID)
		if err != nil {
			return fmt.Errorf("apply restaurant updates: update %s: %w", u.RestaurantID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("apply restaurant updates: rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("apply restaurant updates: restaurant %s: %w", u.RestaurantID, ports.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply restaurant updates: commit tx: %w", err)
	}
	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	d := domain.Day(t.Time)
	return &d
}
