package memory

import (
	"context"
	"oil-collection-service/internal/domain"
	"slices"
	"sync"
	"time"
)

// Ledger is an in-memory LedgerRepository.
type Ledger struct {
	mu         sync.Mutex
	collection []domain.OilCollectionRow
	balance    []domain.BalanceRow
	total      []domain.TotalSheetRow
	receipts   []domain.ReceiptConfirmationRow
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) SaveCycle(_ context.Context, collection []domain.OilCollectionRow, balance []domain.BalanceRow, total []domain.TotalSheetRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.collection = append(l.collection, collection...)
	l.balance = append(l.balance, balance...)
	l.total = append(l.total, total...)
	return nil
}

func (l *Ledger) ListCollectionRows(context.Context) ([]domain.OilCollectionRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.collection), nil
}

func (l *Ledger) ListTotalSheet(context.Context) ([]domain.TotalSheetRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.total), nil
}

func (l *Ledger) ListBalanceRows(_ context.Context, month time.Time) ([]domain.BalanceRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.BalanceRow
	for _, b := range l.balance {
		if domain.SameMonth(b.DeliveryDate, month) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (l *Ledger) SaveReceipts(_ context.Context, rows []domain.ReceiptConfirmationRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts = append(l.receipts, rows...)
	return nil
}

func (l *Ledger) ListReceipts(_ context.Context, month time.Time) ([]domain.ReceiptConfirmationRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.ReceiptConfirmationRow
	for _, r := range l.receipts {
		if domain.SameMonth(r.PickupDate, month) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SaveContractAllocations fills contract tokens by GroupKey; existing tokens are kept.
func (l *Ledger) SaveContractAllocations(_ context.Context, total []domain.TotalSheetRow, balance []domain.BalanceRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	totals := make(map[string]string, len(total))
	for _, t := range total {
		if t.ContractAllocation != "" {
			totals[t.GroupKey] = t.ContractAllocation
		}
	}
	for i := range l.total {
		domain.FillContract(&l.total[i].ContractAllocation, totals[l.total[i].GroupKey])
	}

	trips := make(map[string]string, len(balance))
	for _, b := range balance {
		if b.ContractAllocation != "" {
			trips[b.GroupKey] = b.ContractAllocation
		}
	}
	for i := range l.balance {
		domain.FillContract(&l.balance[i].ContractAllocation, trips[l.balance[i].GroupKey])
	}
	for i := range l.collection {
		domain.FillContract(&l.collection[i].ContractAllocation, trips[l.collection[i].GroupKey])
	}
	return nil
}
