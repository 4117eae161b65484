package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/platform/obs"
	"oil-collection-service/internal/ports"
	"slices"
	"time"
)

type ReceiptRequest struct {
	Target float64
	Days   int
	// Zero means the latest date on the total sheet.
	LastPickup time.Time
}

// ConfirmReceipts simulates and stores the buyer weigh-ins for one target mass.
func (e *Engine) ConfirmReceipts(
	ctx context.Context,
	req ReceiptRequest,
	registry ports.RegistryRepository,
	ledger ports.LedgerRepository,
	rng *rand.Rand,
) (rows []domain.ReceiptConfirmationRow, err error) {
	defer obs.Time(ctx, "confirm_receipts")(&err)

	vehicles, err := registry.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("confirm receipts: list vehicles: %w", err)
	}

	last := req.LastPickup
	if last.IsZero() {
		sheet, err := ledger.ListTotalSheet(ctx)
		if err != nil {
			return nil, fmt.Errorf("confirm receipts: list total sheet: %w", err)
		}
		if len(sheet) == 0 {
			return nil, errors.New("confirm receipts: no pickups recorded")
		}
		for _, r := range sheet {
			if r.Date.After(last) {
				last = r.Date
			}
		}
	}

	rows, err = MatchReceipts(vehicles, ReceiptOptions{
		Target:        req.Target,
		Days:          req.Days,
		LastPickup:    last,
		Mass:          e.cfg.ReceiptMass,
		Tolerance:     e.cfg.ReceiptTolerance,
		TareSurcharge: e.cfg.TareSurcharge,
		MaxAttempts:   e.cfg.MaxAttempts,
		DocPrefix:     e.cfg.SettlementDocPrefix,
	}, rng)
	if err != nil {
		return nil, err
	}

	if err := ledger.SaveReceipts(ctx, rows); err != nil {
		return nil, fmt.Errorf("confirm receipts: save: %w", err)
	}
	return rows, nil
}

// ReconcileMonth back-fills the contract token for the month of ref across
// the stored ledgers and persists the result.
func (e *Engine) ReconcileMonth(ctx context.Context, ref time.Time, ledger ports.LedgerRepository) (res ReconcileResult, err error) {
	defer obs.Time(ctx, "reconcile_contracts")(&err)

	prevMonth := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	sheet, err := ledger.ListTotalSheet(ctx)
	if err != nil {
		return res, fmt.Errorf("reconcile month: list total sheet: %w", err)
	}
	receipts, err := ledger.ListReceipts(ctx, ref)
	if err != nil {
		return res, fmt.Errorf("reconcile month: list receipts: %w", err)
	}
	cur, err := ledger.ListBalanceRows(ctx, ref)
	if err != nil {
		return res, fmt.Errorf("reconcile month: list balance rows: %w", err)
	}
	prev, err := ledger.ListBalanceRows(ctx, prevMonth)
	if err != nil {
		return res, fmt.Errorf("reconcile month: list previous balance rows: %w", err)
	}

	res, err = ReconcileContracts(ReconcileInput{
		TotalSheet:  sheet,
		Receipts:    receipts,
		PrevBalance: prev,
		CurBalance:  cur,
		Coefficient: e.cfg.ProductionCoefficient,
		RefDate:     ref,
		Prefix:      e.cfg.ContractPrefix,
	})
	if err != nil {
		return res, err
	}

	if res.Filled == 0 {
		return res, nil
	}
	balance := slices.Concat(res.PrevBalance, res.CurBalance)
	if err := ledger.SaveContractAllocations(ctx, res.TotalSheet, balance); err != nil {
		return res, fmt.Errorf("reconcile month: save allocations: %w", err)
	}
	return res, nil
}
