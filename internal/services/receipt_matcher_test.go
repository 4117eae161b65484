package services

import (
	"errors"
	"math"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/domain"
	"regexp"
	"testing"
)

func receiptOptions() ReceiptOptions {
	return ReceiptOptions{
		Target:        300,
		Days:          4,
		LastPickup:    day(2024, 6, 28),
		Mass:          config.Range{Min: 28, Max: 34},
		Tolerance:     0.05,
		TareSurcharge: config.Range{Min: 0.05, Max: 0.3},
		MaxAttempts:   1000,
		DocPrefix:     "JS",
	}
}

func TestMatchReceiptsWithinTolerance(t *testing.T) {
	fleet := append(collectionFleet(2), saleVehicle("s1"), saleVehicle("s2"))
	doc := regexp.MustCompile(`^JS2024(06|07)\d{2}\d{2}$`)

	for seed := int64(1); seed <= 30; seed++ {
		opts := receiptOptions()
		rows, err := MatchReceipts(fleet, opts, newRNG(seed))
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}

		sum := 0.0
		for _, r := range rows {
			sum += r.WeighedMass
			if r.WeighedMass < 28 || r.WeighedMass > 34 {
				t.Fatalf("seed %d: weigh-in %v outside range", seed, r.WeighedMass)
			}
			if r.VehicleID != "s1" && r.VehicleID != "s2" {
				t.Fatalf("seed %d: receipt on non-sale vehicle %s", seed, r.VehicleID)
			}
			if r.PickupDate.Before(day(2024, 6, 29)) || r.PickupDate.After(day(2024, 7, 2)) {
				t.Fatalf("seed %d: pickup %v outside the confirmation window", seed, r.PickupDate)
			}
			if r.TareWeight < 14.5+0.05-1e-9 || r.TareWeight > 14.5+0.3+1e-9 {
				t.Fatalf("seed %d: tare %v", seed, r.TareWeight)
			}
			if math.Abs(r.GrossWeight-(r.TareWeight+r.NetWeight)) > 1e-6 {
				t.Fatalf("seed %d: gross %v != tare %v + net %v", seed, r.GrossWeight, r.TareWeight, r.NetWeight)
			}
			if !doc.MatchString(r.SettlementDocNo) {
				t.Fatalf("seed %d: doc number %q", seed, r.SettlementDocNo)
			}
		}

		if sum < 0.95*opts.Target-1e-6 || sum > 1.05*opts.Target+1e-6 {
			t.Fatalf("seed %d: sum %v outside tolerance of %v", seed, sum, opts.Target)
		}
	}
}

func TestMatchReceiptsUnreachableTolerance(t *testing.T) {
	opts := receiptOptions()
	opts.Target = 150
	opts.Mass = config.Range{Min: 100, Max: 100}
	opts.MaxAttempts = 50

	_, err := MatchReceipts([]domain.Vehicle{saleVehicle("s1")}, opts, newRNG(1))
	if !errors.Is(err, domain.ErrToleranceUnreachable) {
		t.Fatalf("expected ErrToleranceUnreachable, got %v", err)
	}
}

func TestMatchReceiptsNeedsSaleVehicle(t *testing.T) {
	_, err := MatchReceipts(collectionFleet(2), receiptOptions(), newRNG(1))
	if !domain.IsInsufficiency(err) {
		t.Fatalf("expected insufficiency error, got %v", err)
	}
}

func TestShortfallPct(t *testing.T) {
	tests := []struct {
		draw int
		want float64
	}{
		{1, 0}, {700, 0},
		{701, -0.1}, {800, -0.1},
		{801, 0.1}, {900, 0.1},
		{901, -0.2}, {950, -0.2},
		{951, 0.2}, {990, 0.2},
		{991, -0.3}, {1000, -0.3},
	}

	for _, tc := range tests {
		if got := ShortfallPct(tc.draw); got != tc.want {
			t.Errorf("ShortfallPct(%d) = %v, want %v", tc.draw, got, tc.want)
		}
	}
}
