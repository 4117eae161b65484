package services

import (
	"math/rand"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/domain"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type TotalSheetOptions struct {
	ConversionFactor config.Range
}

// RollUpTotalSheet appends one row per scheduled trip to prior and returns
// the combined sheet. Prior rows are not recomputed; the sheet-wide ending
// inventory continues from the last prior row.
func RollUpTotalSheet(prior []domain.TotalSheetRow, balance []domain.BalanceRow, opts TotalSheetOptions, rng *rand.Rand) []domain.TotalSheetRow {
	trips := slices.Clone(balance)
	slices.SortStableFunc(trips, func(a, b domain.BalanceRow) int {
		if c := a.DeliveryDate.Compare(b.DeliveryDate); c != 0 {
			return c
		}
		return strings.Compare(a.SettlementNo, b.SettlementNo)
	})

	out := make([]domain.TotalSheetRow, 0, len(prior)+len(trips))
	out = append(out, prior...)

	ending := decimal.Zero
	if len(prior) > 0 {
		ending = decimal.NewFromFloat(prior[len(prior)-1].EndingInventory)
	}
	hundred := decimal.NewFromInt(100)

	for start := 0; start < len(trips); {
		end := start
		dayTotal := decimal.Zero
		for end < len(trips) && trips[end].DeliveryDate.Equal(trips[start].DeliveryDate) {
			dayTotal = dayTotal.Add(decimal.NewFromFloat(trips[end].NetWeight))
			end++
		}

		inventory := decimal.Zero
		for i := start; i < end; i++ {
			t := trips[i]
			net := decimal.NewFromFloat(t.NetWeight)

			processing := decimal.Zero
			var boundary *bool
			if i == end-1 {
				processing = dayTotal
				last := true
				boundary = &last
			}
			inventory = net.Add(inventory).Sub(processing)

			factor := decimal.NewFromFloat(sampleRange(opts.ConversionFactor, rng)).Round(2)
			output := processing.Mul(factor).Div(hundred).Round(2)
			sold := decimal.Zero
			ending = output.Add(ending).Sub(sold)

			out = append(out, domain.TotalSheetRow{
				Date:               domain.Day(t.DeliveryDate),
				GroupKey:           t.GroupKey,
				SettlementNo:       t.SettlementNo,
				VehiclePlate:       t.VehiclePlate,
				NetWeight:          t.NetWeight,
				ProcessingAmount:   processing.InexactFloat64(),
				Inventory:          inventory.InexactFloat64(),
				DayBoundary:        boundary,
				ConversionFactor:   factor.InexactFloat64(),
				OutputWeight:       output.InexactFloat64(),
				SoldQuantity:       sold.InexactFloat64(),
				EndingInventory:    ending.InexactFloat64(),
				ContractAllocation: t.ContractAllocation,
			})
		}
		start = end
	}

	return out
}
