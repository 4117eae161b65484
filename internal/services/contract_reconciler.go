package services

import (
	"fmt"
	"oil-collection-service/internal/domain"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type ReconcileInput struct {
	TotalSheet  []domain.TotalSheetRow
	Receipts    []domain.ReceiptConfirmationRow
	PrevBalance []domain.BalanceRow
	CurBalance  []domain.BalanceRow
	// Production conversion coefficient applied to the material still owed.
	Coefficient float64
	RefDate     time.Time
	Prefix      string
}

type ReconcileResult struct {
	TotalSheet  []domain.TotalSheetRow
	PrevBalance []domain.BalanceRow
	CurBalance  []domain.BalanceRow
	Token       string
	StopDate    time.Time
	StopIndex   int
	Filled      int
}

// ContractToken derives the settlement token for the month of ref.
func ContractToken(prefix string, ref time.Time) string {
	return prefix + ref.Format("0601") + "01"
}

// ReconcileContracts back-fills the month's contract token across the total
// sheet and both balance sheets. Only empty fields are written, so running it
// again over its own output changes nothing. Inputs are not modified.
func ReconcileContracts(in ReconcileInput) (ReconcileResult, error) {
	if in.Coefficient <= 0 {
		return ReconcileResult{}, &domain.ReconciliationError{Msg: "conversion coefficient must be positive"}
	}

	res := ReconcileResult{
		TotalSheet:  slices.Clone(in.TotalSheet),
		PrevBalance: slices.Clone(in.PrevBalance),
		CurBalance:  slices.Clone(in.CurBalance),
		Token:       ContractToken(in.Prefix, in.RefDate),
	}

	cur := time.Date(in.RefDate.Year(), in.RefDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := cur.AddDate(0, -1, 0)

	var previous, current []int
	for i, r := range res.TotalSheet {
		switch {
		case domain.SameMonth(r.Date, prev):
			previous = append(previous, i)
		case domain.SameMonth(r.Date, cur):
			current = append(current, i)
		}
	}
	// Cycles append their own rows, so storage order is not date order.
	byDate := func(a, b int) int { return res.TotalSheet[a].Date.Compare(res.TotalSheet[b].Date) }
	slices.SortStableFunc(previous, byDate)
	slices.SortStableFunc(current, byDate)

	priorEnding := decimal.Zero
	if len(previous) > 0 {
		priorEnding = decimal.NewFromFloat(res.TotalSheet[previous[len(previous)-1]].EndingInventory)
	}

	monthQty := sumWeighed(in.Receipts).Sub(priorEnding)

	stopDate, sumQty, ok := findStopDate(res.TotalSheet, current, monthQty)
	if !ok {
		return ReconcileResult{}, &domain.ReconciliationError{
			Msg: fmt.Sprintf("cumulative output for %s never exceeds month quantity %s", cur.Format("2006-01"), monthQty.StringFixed(3)),
		}
	}

	remaining := monthQty.Sub(sumQty).Div(decimal.NewFromFloat(in.Coefficient))

	stopPos := -1
	acc := decimal.Zero
	for pos, i := range current {
		r := res.TotalSheet[i]
		if r.Date.Before(stopDate) {
			continue
		}
		acc = acc.Add(decimal.NewFromFloat(r.OutputWeight))
		if acc.GreaterThan(remaining) {
			stopPos = pos
			break
		}
	}
	if stopPos < 0 {
		return ReconcileResult{}, &domain.ReconciliationError{
			Msg: fmt.Sprintf("output from %s never exceeds remaining material %s", stopDate.Format("2006-01-02"), remaining.StringFixed(3)),
		}
	}
	res.StopDate = stopDate
	res.StopIndex = current[stopPos]

	for _, i := range slices.Concat(previous, current[:stopPos+1]) {
		if domain.FillContract(&res.TotalSheet[i].ContractAllocation, res.Token) {
			res.Filled++
		}
	}

	for i := range res.PrevBalance {
		if domain.FillContract(&res.PrevBalance[i].ContractAllocation, res.Token) {
			res.Filled++
		}
	}

	type joinKey struct {
		date   time.Time
		serial string
	}
	tokens := make(map[joinKey]string)
	for _, i := range current {
		r := res.TotalSheet[i]
		if r.ContractAllocation != "" {
			tokens[joinKey{domain.Day(r.Date), r.SettlementNo}] = r.ContractAllocation
		}
	}
	for i := range res.CurBalance {
		b := &res.CurBalance[i]
		token, ok := tokens[joinKey{domain.Day(b.DeliveryDate), b.SettlementNo}]
		if ok && domain.FillContract(&b.ContractAllocation, token) {
			res.Filled++
		}
	}

	return res, nil
}

// findStopDate walks the month's distinct (date, output) pairs in date order and
// returns the date of the first pair that takes cumulative output past qty,
// together with the cumulative output before it.
func findStopDate(sheet []domain.TotalSheetRow, current []int, qty decimal.Decimal) (time.Time, decimal.Decimal, bool) {
	type pair struct {
		date   time.Time
		output float64
	}

	seen := make(map[pair]bool)
	cum := decimal.Zero
	for _, i := range current {
		p := pair{domain.Day(sheet[i].Date), sheet[i].OutputWeight}
		if seen[p] {
			continue
		}
		seen[p] = true

		next := cum.Add(decimal.NewFromFloat(p.output))
		if next.GreaterThan(qty) {
			return p.date, cum, true
		}
		cum = next
	}
	return time.Time{}, decimal.Zero, false
}
