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

// SQLite-backed implementation of the RegistryRepository port.
type SqliteRegistryRepository struct{ DB *sql.DB }

func NewSqliteRegistryRepository(db *sql.DB) *SqliteRegistryRepository {
	return &SqliteRegistryRepository{DB: db}
}

// Return restaurants, optionally restricted to one collection point.
func (s *SqliteRegistryRepository) ListRestaurants(ctx context.Context, collectionPoint string) (_ []domain.Restaurant, err error) {
	defer obs.Time(ctx, "registry.ListRestaurants")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite registry repository: DB is nil")
	}

	query := `
	SELECT
		id, name, province, city, district, street, region,
		declared_type, collection_point, allocated_volume, last_verified_date
	FROM restaurants
	WHERE ? = '' OR collection_point = ?
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query, collectionPoint, collectionPoint)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: query restaurants table: %w", err)
	}
	defer rows.Close()

	restaurants := make([]domain.Restaurant, 0, 64)
	for rows.Next() {
		var r domain.Restaurant
		var verified sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Province, &r.City, &r.District, &r.Street, &r.Region,
			&r.DeclaredType, &r.CollectionPoint, &r.AllocatedVolume, &verified,
		); err != nil {
			return nil, fmt.Errorf("list restaurants: scan row: %w", err)
		}
		if r.LastVerifiedDate, err = parseNullDate(verified); err != nil {
			return nil, fmt.Errorf("list restaurants: restaurant %s: %w", r.ID, err)
		}
		restaurants = append(restaurants, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: row iteration: %w", err)
	}

	return restaurants, nil
}

// Return every registered vehicle.
func (s *SqliteRegistryRepository) ListVehicles(ctx context.Context) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "registry.ListVehicles")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite registry repository: DB is nil")
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
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0, 16)
	for rows.Next() {
		var v domain.Vehicle
		var vt, status string
		var lastUse sql.NullString
		if err := rows.Scan(
			&v.ID, &v.Plate, &vt, &v.TareWeight, &v.RoughWeight, &v.NetWeight, &v.Driver,
			&status, &lastUse, &v.CooldownDays, &v.Version,
		); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		v.Type = domain.VehicleType(vt)
		v.Status = domain.VehicleStatus(status)
		if v.LastUseDate, err = parseNullDate(lastUse); err != nil {
			return nil, fmt.Errorf("list vehicles: vehicle %s: %w", v.ID, err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}

// Apply versioned vehicle diffs in one transaction.
func (s *SqliteRegistryRepository) ApplyVehicleUpdates(ctx context.Context, updates []domain.VehicleUpdate) (err error) {
	defer obs.Time(ctx, "registry.ApplyVehicleUpdates")(&err)

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
	SET last_use_date = ?,
		status = CASE WHEN ? = '' THEN status ELSE ? END,
		version = version + 1
	WHERE id = ? AND version = ?;
	`
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query,
			u.LastUseDate.Format(dateLayout), string(u.Status), string(u.Status), u.VehicleID, u.Version,
		)
		if err != nil {
			return fmt.Errorf("apply vehicle updates: update %s: %w", u.VehicleID, err)
		}
		if err := checkVersioned(ctx, tx, res, u.VehicleID, "SELECT COUNT(1) FROM vehicles WHERE id = ?"); err != nil {
			return fmt.Errorf("apply vehicle updates: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply vehicle updates: commit tx: %w", err)
	}
	return nil
}

// Stamp allocated volume and verification date on restaurants.
func (s *SqliteRegistryRepository) ApplyRestaurantUpdates(ctx context.Context, updates []domain.RestaurantUpdate) (err error) {
	defer obs.Time(ctx, "registry.ApplyRestaurantUpdates")(&err)

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
	SET allocated_volume = ?, last_verified_date = ?
	WHERE id = ?;
	`
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.AllocatedVolume, u.LastVerifiedDate.Format(dateLayout), u.RestaurantID)
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

// checkVersioned turns a zero-row versioned update into ErrNotFound or
// ErrVersionConflict depending on whether the row exists at all.
func checkVersioned(ctx context.Context, tx *sql.Tx, res sql.Result, id, existsQuery string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var count int
	if err := tx.QueryRowContext(ctx, existsQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("check %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", id, ports.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", id, ports.ErrVersionConflict)
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s.String, err)
	}
	return &t, nil
}
