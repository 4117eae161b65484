package services

import (
	"math/rand"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/domain"

	"github.com/shopspring/decimal"
)

type BalanceOptions struct {
	NetWeightFactor float64
	Offset          config.Range
}

// BuildBalanceRows de-duplicates collection rows into one row per vehicle trip,
// in first-appearance order of GroupKey.
func BuildBalanceRows(rows []domain.OilCollectionRow, opts BalanceOptions, rng *rand.Rand) []domain.BalanceRow {
	seen := make(map[string]bool)
	var out []domain.BalanceRow

	factor := decimal.NewFromFloat(opts.NetWeightFactor)
	for _, r := range rows {
		if seen[r.GroupKey] {
			continue
		}
		seen[r.GroupKey] = true

		offset := decimal.NewFromFloat(sampleRange(opts.Offset, rng)).Round(3)
		net := decimal.NewFromInt(int64(r.LoadVolume)).Mul(factor).Sub(offset).Round(3)

		out = append(out, domain.BalanceRow{
			GroupKey:        r.GroupKey,
			Region:          r.Region,
			District:        r.District,
			CollectionPoint: r.CollectionPoint,
			VehicleID:       r.VehicleID,
			VehiclePlate:    r.VehiclePlate,
			LoadVolume:      r.LoadVolume,
			LargeCount:      r.LargeCount,
			SmallCount:      r.SmallCount,
			NetWeight:       net.InexactFloat64(),
		})
	}
	return out
}

// BackWrite copies the scheduled date, serial number and final vehicle onto
// collection rows by GroupKey. Rows without a matching trip are left as-is.
func BackWrite(rows []domain.OilCollectionRow, balance []domain.BalanceRow) []domain.OilCollectionRow {
	byKey := make(map[string]domain.BalanceRow, len(balance))
	for _, b := range balance {
		byKey[b.GroupKey] = b
	}

	out := make([]domain.OilCollectionRow, len(rows))
	copy(out, rows)
	for i := range out {
		b, ok := byKey[out[i].GroupKey]
		if !ok || b.DeliveryDate.IsZero() {
			continue
		}
		date := b.DeliveryDate
		out[i].DeliveryDate = &date
		out[i].SettlementNo = b.SettlementNo
		out[i].VehicleID = b.VehicleID
		out[i].VehiclePlate = b.VehiclePlate
	}
	return out
}

func sampleRange(r config.Range, rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
