package ports

import (
	"context"
	"oil-collection-service/internal/domain"
	"time"
)

// Port: persistence for the four reconciled ledgers.
type LedgerRepository interface {
	// Persist one collection cycle's rows; total sheet rows are appended.
	SaveCycle(ctx context.Context, collection []domain.OilCollectionRow, balance []domain.BalanceRow, total []domain.TotalSheetRow) error
	ListCollectionRows(ctx context.Context) ([]domain.OilCollectionRow, error)
	ListTotalSheet(ctx context.Context) ([]domain.TotalSheetRow, error)
	ListBalanceRows(ctx context.Context, month time.Time) ([]domain.BalanceRow, error)
	SaveReceipts(ctx context.Context, rows []domain.ReceiptConfirmationRow) error
	ListReceipts(ctx context.Context, month time.Time) ([]domain.ReceiptConfirmationRow, error)
	// Persist contract tokens for total sheet and balance rows (keyed by GroupKey).
	SaveContractAllocations(ctx context.Context, total []domain.TotalSheetRow, balance []domain.BalanceRow) error
}
