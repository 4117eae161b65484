package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/platform/obs"
	"time"
)

// SQLite-backed implementation of the LedgerRepository port.
type SqliteLedgerRepository struct{ DB *sql.DB }

func NewSqliteLedgerRepository(db *sql.DB) *SqliteLedgerRepository {
	return &SqliteLedgerRepository{DB: db}
}

// Persist one collection cycle in a single transaction.
func (s *SqliteLedgerRepository) SaveCycle(
	ctx context.Context,
	collection []domain.OilCollectionRow,
	balance []domain.BalanceRow,
	total []domain.TotalSheetRow,
) (err error) {
	defer obs.Time(ctx, "ledger.SaveCycle")(&err)

	if s.DB == nil {
		return errors.New("sqlite ledger repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save cycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	collectionQuery := `
	INSERT INTO oil_collection_rows (
		restaurant_id, restaurant_name, region, district, city, collection_point, volume,
		vehicle_id, vehicle_plate, load_volume, group_key, large_count, small_count,
		delivery_date, settlement_no, contract_allocation
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, r := range collection {
		var delivery any
		if r.DeliveryDate != nil {
			delivery = r.DeliveryDate.Format(dateLayout)
		}
		if _, err := tx.ExecContext(ctx, collectionQuery,
			r.RestaurantID, r.RestaurantName, r.Region, r.District, r.City, r.CollectionPoint, r.Volume,
			r.VehicleID, r.VehiclePlate, r.LoadVolume, r.GroupKey, r.LargeCount, r.SmallCount,
			delivery, r.SettlementNo, r.ContractAllocation,
		); err != nil {
			return fmt.Errorf("save cycle: insert collection row restaurant_id=%s: %w", r.RestaurantID, err)
		}
	}

	balanceQuery := `
	INSERT INTO balance_rows (
		group_key, region, district, collection_point, vehicle_id, vehicle_plate, load_volume,
		large_count, small_count, net_weight, settlement_no, delivery_date, contract_allocation
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, b := range balance {
		if _, err := tx.ExecContext(ctx, balanceQuery,
			b.GroupKey, b.Region, b.District, b.CollectionPoint, b.VehicleID, b.VehiclePlate, b.LoadVolume,
			b.LargeCount, b.SmallCount, b.NetWeight, b.SettlementNo, b.DeliveryDate.Format(dateLayout), b.ContractAllocation,
		); err != nil {
			return fmt.Errorf("save cycle: insert balance row group_key=%s: %w", b.GroupKey, err)
		}
	}

	totalQuery := `
	INSERT INTO total_sheet_rows (
		date, group_key, settlement_no, vehicle_plate, net_weight, processing_amount, inventory,
		day_boundary, conversion_factor, output_weight, sold_quantity, ending_inventory, contract_allocation
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, t := range total {
		var boundary any
		if t.DayBoundary != nil {
			boundary = *t.DayBoundary
		}
		if _, err := tx.ExecContext(ctx, totalQuery,
			t.Date.Format(dateLayout), t.GroupKey, t.SettlementNo, t.VehiclePlate, t.NetWeight, t.ProcessingAmount, t.Inventory,
			boundary, t.ConversionFactor, t.OutputWeight, t.SoldQuantity, t.EndingInventory, t.ContractAllocation,
		); err != nil {
			return fmt.Errorf("save cycle: insert total sheet row group_key=%s: %w", t.GroupKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save cycle: commit tx: %w", err)
	}
	return nil
}

// Return every collection row in insertion order.
func (s *SqliteLedgerRepository) ListCollectionRows(ctx context.Context) ([]domain.OilCollectionRow, error) {
	query := `
	SELECT
		restaurant_id, restaurant_name, region, district, city, collection_point, volume,
		vehicle_id, vehicle_plate, load_volume, group_key, large_count, small_count,
		delivery_date, settlement_no, contract_allocation
	FROM oil_collection_rows
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list collection rows: query: %w", err)
	}
	defer rows.Close()

	var out []domain.OilCollectionRow
	for rows.Next() {
		var r domain.OilCollectionRow
		var delivery sql.NullString
		if err := rows.Scan(
			&r.RestaurantID, &r.RestaurantName, &r.Region, &r.District, &r.City, &r.CollectionPoint, &r.Volume,
			&r.VehicleID, &r.VehiclePlate, &r.LoadVolume, &r.GroupKey, &r.LargeCount, &r.SmallCount,
			&delivery, &r.SettlementNo, &r.ContractAllocation,
		); err != nil {
			return nil, fmt.Errorf("list collection rows: scan row: %w", err)
		}
		if r.DeliveryDate, err = parseNullDate(delivery); err != nil {
			return nil, fmt.Errorf("list collection rows: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collection rows: row iteration: %w", err)
	}
	return out, nil
}

// Return the whole total sheet in ledger order.
func (s *SqliteLedgerRepository) ListTotalSheet(ctx context.Context) (_ []domain.TotalSheetRow, err error) {
	defer obs.Time(ctx, "ledger.ListTotalSheet")(&err)

	query := `
	SELECT
		date, group_key, settlement_no, vehicle_plate, net_weight, processing_amount, inventory,
		day_boundary, conversion_factor, output_weight, sold_quantity, ending_inventory, contract_allocation
	FROM total_sheet_rows
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list total sheet: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TotalSheetRow
	for rows.Next() {
		var t domain.TotalSheetRow
		var date string
		var boundary sql.NullBool
		if err := rows.Scan(
			&date, &t.GroupKey, &t.SettlementNo, &t.VehiclePlate, &t.NetWeight, &t.ProcessingAmount, &t.Inventory,
			&boundary, &t.ConversionFactor, &t.OutputWeight, &t.SoldQuantity, &t.EndingInventory, &t.ContractAllocation,
		); err != nil {
			return nil, fmt.Errorf("list total sheet: scan row: %w", err)
		}
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("list total sheet: parse date %q: %w", date, err)
		}
		if boundary.Valid {
			b := boundary.Bool
			t.DayBoundary = &b
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list total sheet: row iteration: %w", err)
	}
	return out, nil
}

// Return balance rows delivered in the month containing month.
func (s *SqliteLedgerRepository) ListBalanceRows(ctx context.Context, month time.Time) ([]domain.BalanceRow, error) {
	from, to := monthBounds(month)

	query := `
	SELECT
		group_key, region, district, collection_point, vehicle_id, vehicle_plate, load_volume,
		large_count, small_count, net_weight, settlement_no, delivery_date, contract_allocation
	FROM balance_rows
	WHERE delivery_date >= ? AND delivery_date < ?
	ORDER BY delivery_date, settlement_no;
	`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list balance rows: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BalanceRow
	for rows.Next() {
		var b domain.BalanceRow
		var date string
		if err := rows.Scan(
			&b.GroupKey, &b.Region, &b.District, &b.CollectionPoint, &b.VehicleID, &b.VehiclePlate, &b.LoadVolume,
			&b.LargeCount, &b.SmallCount, &b.NetWeight, &b.SettlementNo, &date, &b.ContractAllocation,
		); err != nil {
			return nil, fmt.Errorf("list balance rows: scan row: %w", err)
		}
		if b.DeliveryDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("list balance rows: parse date %q: %w", date, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list balance rows: row iteration: %w", err)
	}
	return out, nil
}

func (s *SqliteLedgerRepository) SaveReceipts(ctx context.Context, receipts []domain.ReceiptConfirmationRow) (err error) {
	defer obs.Time(ctx, "ledger.SaveReceipts")(&err)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save receipts: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO receipt_rows (
		pickup_date, vehicle_id, vehicle_plate, driver, weighed_mass, tare_weight,
		gross_weight, net_weight, shortfall_pct, settlement_doc_no
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, r := range receipts {
		if _, err := tx.ExecContext(ctx, query,
			r.PickupDate.Format(dateLayout), r.VehicleID, r.VehiclePlate, r.Driver, r.WeighedMass, r.TareWeight,
			r.GrossWeight, r.NetWeight, r.ShortfallPct, r.SettlementDocNo,
		); err != nil {
			return fmt.Errorf("save receipts: insert %s: %w", r.SettlementDocNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save receipts: commit tx: %w", err)
	}
	return nil
}

func (s *SqliteLedgerRepository) ListReceipts(ctx context.Context, month time.Time) ([]domain.ReceiptConfirmationRow, error) {
	from, to := monthBounds(month)

	query := `
	SELECT
		pickup_date, vehicle_id, vehicle_plate, driver, weighed_mass, tare_weight,
		gross_weight, net_weight, shortfall_pct, settlement_doc_no
	FROM receipt_rows
	WHERE pickup_date >= ? AND pickup_date < ?
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list receipts: query: %w", err)
	}
	defer rows.Close()

	var out []domain.ReceiptConfirmationRow
	for rows.Next() {
		var r domain.ReceiptConfirmationRow
		var date string
		if err := rows.Scan(
			&date, &r.VehicleID, &r.VehiclePlate, &r.Driver, &r.WeighedMass, &r.TareWeight,
			&r.GrossWeight, &r.NetWeight, &r.ShortfallPct, &r.SettlementDocNo,
		); err != nil {
			return nil, fmt.Errorf("list receipts: scan row: %w", err)
		}
		if r.PickupDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("list receipts: parse date %q: %w", date, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts: row iteration: %w", err)
	}
	return out, nil
}

// Fill contract tokens by group key; populated fields are never overwritten.
// Collection rows inherit the token of their trip.
func (s *SqliteLedgerRepository) SaveContractAllocations(ctx context.Context, total []domain.TotalSheetRow, balance []domain.BalanceRow) (err error) {
	defer obs.Time(ctx, "ledger.SaveContractAllocations")(&err)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save contract allocations: begin tx: %w", err)
	}
	defer tx.Rollback()

	var fills []contractFill
	for _, t := range total {
		if t.ContractAllocation != "" {
			fills = append(fills, contractFill{"total_sheet_rows", t.GroupKey, t.ContractAllocation})
		}
	}
	for _, b := range balance {
		if b.ContractAllocation != "" {
			fills = append(fills,
				contractFill{"balance_rows", b.GroupKey, b.ContractAllocation},
				contractFill{"oil_collection_rows", b.GroupKey, b.ContractAllocation},
			)
		}
	}

	for _, f := range fills {
		query := "UPDATE " + f.table + " SET contract_allocation = ? WHERE group_key = ? AND contract_allocation = '';"
		if _, err := tx.ExecContext(ctx, query, f.token, f.groupKey); err != nil {
			return fmt.Errorf("save contract allocations: %s group_key=%s: %w", f.table, f.groupKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save contract allocations: commit tx: %w", err)
	}
	return nil
}

type contractFill struct {
	table    string
	groupKey string
	token    string
}

func monthBounds(month time.Time) (string, string) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.Format(dateLayout), first.AddDate(0, 1, 0).Format(dateLayout)
}
