package services

import (
	"errors"
	"fmt"
	"math/rand"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

type ReceiptOptions struct {
	Target        float64
	Days          int
	LastPickup    time.Time
	Mass          config.Range
	Tolerance     float64
	TareSurcharge config.Range
	MaxAttempts   int
	DocPrefix     string
}

// MatchReceipts simulates buyer weigh-ins whose total lands within
// opts.Tolerance of opts.Target, spread over the days following the last
// pickup and weighed on sale vehicles.
func MatchReceipts(vehicles []domain.Vehicle, opts ReceiptOptions, rng *rand.Rand) ([]domain.ReceiptConfirmationRow, error) {
	if opts.Target <= 0 {
		return nil, errors.New("match receipts: target mass must be positive")
	}
	if opts.Mass.Min <= 0 {
		return nil, errors.New("match receipts: weigh-in mass range must be positive")
	}

	var pool []domain.Vehicle
	for _, v := range vehicles {
		if v.Type == domain.VehicleToSale && v.Status == domain.VehicleAvailable {
			pool = append(pool, v)
		}
	}
	if len(pool) == 0 {
		return nil, &domain.InsufficiencyError{
			Kind: domain.InsufficientVehicles,
			Msg:  "match receipts: no available sale vehicles",
		}
	}

	masses, err := sampleWeighIns(opts, rng)
	if err != nil {
		return nil, err
	}

	days := max(opts.Days, 1)
	quotas := DailyQuotas(len(masses), days, rng)
	first := domain.Day(opts.LastPickup).AddDate(0, 0, 1)

	rows := make([]domain.ReceiptConfirmationRow, 0, len(masses))
	next := 0
	for d, quota := range quotas {
		date := first.AddDate(0, 0, d)
		for seq := 1; seq <= quota; seq++ {
			v := pool[rng.Intn(len(pool))]
			mass := decimal.NewFromFloat(masses[next])
			next++

			pct := ShortfallPct(1 + rng.Intn(1000))
			tare := decimal.NewFromFloat(v.TareWeight).
				Add(decimal.NewFromFloat(sampleRange(opts.TareSurcharge, rng))).Round(2)
			net := mass.Mul(decimal.NewFromFloat(1 + pct/100)).Round(3)

			rows = append(rows, domain.ReceiptConfirmationRow{
				PickupDate:      date,
				VehicleID:       v.ID,
				VehiclePlate:    v.Plate,
				Driver:          v.Driver,
				WeighedMass:     mass.InexactFloat64(),
				TareWeight:      tare.InexactFloat64(),
				GrossWeight:     tare.Add(net).InexactFloat64(),
				NetWeight:       net.InexactFloat64(),
				ShortfallPct:    pct,
				SettlementDocNo: fmt.Sprintf("%s%s%02d", opts.DocPrefix, date.Format("20060102"), seq),
			})
		}
	}
	return rows, nil
}

// sampleWeighIns draws masses until the sum reaches the target, restarting
// from zero whenever the overshoot leaves the tolerance band.
func sampleWeighIns(opts ReceiptOptions, rng *rand.Rand) ([]float64, error) {
	target := decimal.NewFromFloat(opts.Target)
	band := target.Mul(decimal.NewFromFloat(opts.Tolerance))

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		var masses []float64
		sum := decimal.Zero
		for sum.LessThan(target) {
			m := decimal.NewFromFloat(sampleRange(opts.Mass, rng)).Round(2)
			masses = append(masses, m.InexactFloat64())
			sum = sum.Add(m)
		}
		if sum.Sub(target).Abs().LessThanOrEqual(band) {
			return masses, nil
		}
	}
	return nil, fmt.Errorf("match receipts: target %.2f after %d attempts: %w",
		opts.Target, opts.MaxAttempts, domain.ErrToleranceUnreachable)
}

// ShortfallPct maps a draw in [1, 1000] to the signed percentage applied to
// a weigh-in's net weight.
func ShortfallPct(draw int) float64 {
	switch {
	case draw <= 700:
		return 0
	case draw <= 800:
		return -0.1
	case draw <= 900:
		return 0.1
	case draw <= 950:
		return -0.2
	case draw <= 990:
		return 0.2
	default:
		return -0.3
	}
}

func sumWeighed(rows []domain.ReceiptConfirmationRow) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(decimal.NewFromFloat(r.WeighedMass))
	}
	return sum
}
