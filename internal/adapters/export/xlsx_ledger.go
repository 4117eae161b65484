package export

import (
	"bytes"
	"fmt"
	"oil-collection-service/internal/domain"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	CollectionSheet = "Collection"
	BalanceSheet    = "Balance"
	TotalSheet      = "Total"
	ReceiptSheet    = "Receipts"
)

// Ledgers is the set of tables written to one workbook.
type Ledgers struct {
	Collection []domain.OilCollectionRow
	Balance    []domain.BalanceRow
	Total      []domain.TotalSheetRow
	Receipts   []domain.ReceiptConfirmationRow
}

// LedgerWorkbook renders the four ledgers as sheets of one XLSX workbook.
func LedgerWorkbook(l Ledgers) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CollectionSheet); err != nil {
		return nil, fmt.Errorf("ledger workbook: rename sheet: %w", err)
	}
	for _, name := range []string{BalanceSheet, TotalSheet, ReceiptSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("ledger workbook: new sheet %s: %w", name, err)
		}
	}

	collection := [][]any{{
		"Restaurant ID", "Restaurant", "Region", "District", "City", "Collection Point", "Volume",
		"Vehicle ID", "Plate", "Load Volume", "Group Key", "Large", "Small", "Delivery Date", "Serial No", "Contract",
	}}
	for _, r := range l.Collection {
		collection = append(collection, []any{
			r.RestaurantID, r.RestaurantName, r.Region, r.District, r.City, r.CollectionPoint, r.Volume,
			r.VehicleID, r.VehiclePlate, r.LoadVolume, r.GroupKey, r.LargeCount, r.SmallCount,
			formatDatePtr(r.DeliveryDate), r.SettlementNo, r.ContractAllocation,
		})
	}

	balance := [][]any{{
		"Group Key", "Region", "District", "Collection Point", "Vehicle ID", "Plate", "Load Volume",
		"Large", "Small", "Net Weight", "Serial No", "Delivery Date", "Contract",
	}}
	for _, b := range l.Balance {
		balance = append(balance, []any{
			b.GroupKey, b.Region, b.District, b.CollectionPoint, b.VehicleID, b.VehiclePlate, b.LoadVolume,
			b.LargeCount, b.SmallCount, b.NetWeight, b.SettlementNo, b.DeliveryDate.Format("2006-01-02"), b.ContractAllocation,
		})
	}

	total := [][]any{{
		"Date", "Serial No", "Plate", "Net Weight", "Processing", "Inventory", "Day End",
		"Conversion Factor", "Output", "Sold", "Ending Inventory", "Contract",
	}}
	for _, t := range l.Total {
		dayEnd := ""
		if t.DayBoundary != nil && *t.DayBoundary {
			dayEnd = "Y"
		}
		total = append(total, []any{
			t.Date.Format("2006-01-02"), t.SettlementNo, t.VehiclePlate, t.NetWeight, t.ProcessingAmount, t.Inventory, dayEnd,
			t.ConversionFactor, t.OutputWeight, t.SoldQuantity, t.EndingInventory, t.ContractAllocation,
		})
	}

	receipts := [][]any{{
		"Pickup Date", "Vehicle ID", "Plate", "Driver", "Weighed", "Tare", "Gross", "Net", "Shortfall %", "Doc No",
	}}
	for _, r := range l.Receipts {
		receipts = append(receipts, []any{
			r.PickupDate.Format("2006-01-02"), r.VehicleID, r.VehiclePlate, r.Driver, r.WeighedMass,
			r.TareWeight, r.GrossWeight, r.NetWeight, r.ShortfallPct, r.SettlementDocNo,
		})
	}

	for sheet, rows := range map[string][][]any{
		CollectionSheet: collection,
		BalanceSheet:    balance,
		TotalSheet:      total,
		ReceiptSheet:    receipts,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return nil, fmt.Errorf("ledger workbook: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("ledger workbook: write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
