package services

import (
	"errors"
	"fmt"
	"oil-collection-service/internal/domain"
	"testing"
)

var band = GroupOptions{Min: 35, Max: 44, Cap: 100, Today: day(2024, 6, 1)}

func TestGroupLoadsSingleGroupAcrossDistricts(t *testing.T) {
	var demands []Demand
	for i := 0; i < 12; i++ {
		district := "jinjiang"
		if i%2 == 1 {
			district = "wuhou"
		}
		vol := 3
		if i == 0 {
			vol = 7
		}
		demands = append(demands, Demand{Restaurant: restaurant(fmt.Sprintf("r%d", i), "east", district), Volume: vol})
	}

	for seed := int64(1); seed <= 20; seed++ {
		res, err := GroupLoads(demands, collectionFleet(2), band, newRNG(seed))
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if len(res.Rows) != 12 {
			t.Fatalf("seed %d: rows = %d, want 12", seed, len(res.Rows))
		}

		key, vehicle := res.Rows[0].GroupKey, res.Rows[0].VehicleID
		for _, r := range res.Rows {
			if r.GroupKey != key || r.VehicleID != vehicle {
				t.Fatalf("seed %d: expected one group on one vehicle, got %s/%s and %s/%s", seed, key, vehicle, r.GroupKey, r.VehicleID)
			}
			if r.LoadVolume != 40 {
				t.Fatalf("seed %d: load volume = %d, want 40", seed, r.LoadVolume)
			}
			if r.LargeCount != 40 || r.SmallCount != 0 {
				t.Fatalf("seed %d: containers = %d/%d, want 40/0", seed, r.LargeCount, r.SmallCount)
			}
		}
		if len(res.Updates) != 12 || !res.Updates[0].LastVerifiedDate.Equal(band.Today) {
			t.Fatalf("seed %d: restaurant updates = %+v", seed, res.Updates)
		}
	}
}

func TestGroupLoadsVolumeBelowFloor(t *testing.T) {
	demands := []Demand{
		{Restaurant: restaurant("r1", "east", "jinjiang"), Volume: 4},
		{Restaurant: restaurant("r2", "east", "jinjiang"), Volume: 6},
	}

	_, err := GroupLoads(demands, nil, band, newRNG(1))

	var ie *domain.InsufficiencyError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficiencyError, got %v", err)
	}
	if ie.Kind != domain.InsufficientVolume {
		t.Fatalf("kind = %q, want %q (vehicles must not be consulted)", ie.Kind, domain.InsufficientVolume)
	}
}

func TestGroupLoadsBandAndCap(t *testing.T) {
	opts := GroupOptions{Min: 35, Max: 44, Cap: 150, Today: day(2024, 6, 1)}

	for seed := int64(1); seed <= 30; seed++ {
		rng := newRNG(seed)

		var demands []Demand
		volumes := make(map[string]int)
		for _, region := range []string{"north", "south", "east", "west"} {
			for i := 0; i < 16; i++ {
				id := fmt.Sprintf("%s-%d", region, i)
				v := 3 + rng.Intn(4)
				volumes[id] = v
				demands = append(demands, Demand{Restaurant: restaurant(id, region, region), Volume: v})
			}
		}

		res, err := GroupLoads(demands, collectionFleet(20), opts, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}

		sums := make(map[string]int)
		maxSingle := make(map[string]int)
		vehicles := make(map[string]string)
		for _, r := range res.Rows {
			sums[r.GroupKey] += volumes[r.RestaurantID]
			maxSingle[r.GroupKey] = max(maxSingle[r.GroupKey], volumes[r.RestaurantID])
			if prev, ok := vehicles[r.VehicleID]; ok && prev != r.GroupKey {
				t.Fatalf("seed %d: vehicle %s bound to two loads", seed, r.VehicleID)
			}
			vehicles[r.VehicleID] = r.GroupKey
		}

		total := 0
		for key, sum := range sums {
			if sum < opts.Min {
				t.Fatalf("seed %d: load %s sum %d below floor", seed, key, sum)
			}
			if sum >= opts.Min+maxSingle[key] {
				t.Fatalf("seed %d: load %s sum %d reaches min+largest %d", seed, key, sum, opts.Min+maxSingle[key])
			}
			total += sum
		}
		if total > opts.Cap {
			t.Fatalf("seed %d: allocated %d exceeds cap %d", seed, total, opts.Cap)
		}

		for _, r := range res.Rows {
			if r.LoadVolume != sums[r.GroupKey] {
				t.Fatalf("seed %d: row load %d != group sum %d", seed, r.LoadVolume, sums[r.GroupKey])
			}
		}
	}
}

func tenByTen(region string) []Demand {
	var out []Demand
	for i := 0; i < 4; i++ {
		out = append(out, Demand{Restaurant: restaurant(fmt.Sprintf("%s-%d", region, i), region, region), Volume: 10})
	}
	return out
}

func TestGroupLoadsCapDiscardsRegionInProgress(t *testing.T) {
	demands := append(tenByTen("a"), tenByTen("b")...)
	opts := GroupOptions{Min: 35, Max: 44, Cap: 60, Today: day(2024, 6, 1)}

	res, err := GroupLoads(demands, collectionFleet(5), opts, newRNG(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(res.Rows))
	}
	for _, r := range res.Rows {
		if r.Region != "a" {
			t.Fatalf("region %q should have been discarded at the cap", r.Region)
		}
	}
}

func TestGroupLoadsVehiclePoolExhausted(t *testing.T) {
	demands := append(tenByTen("a"), tenByTen("b")...)
	opts := GroupOptions{Min: 35, Max: 44, Cap: 200, Today: day(2024, 6, 1)}

	_, err := GroupLoads(demands, collectionFleet(1), opts, newRNG(3))

	var ie *domain.InsufficiencyError
	if !errors.As(err, &ie) || ie.Kind != domain.InsufficientVehicles {
		t.Fatalf("expected vehicle insufficiency, got %v", err)
	}
}

func TestGroupLoadsNoEligibleVehicles(t *testing.T) {
	yesterday := day(2024, 5, 31)
	fleet := collectionFleet(2)
	fleet[0].LastUseDate = &yesterday
	fleet[1].Status = domain.VehicleUnavailable
	fleet = append(fleet, saleVehicle("s1"))

	_, err := GroupLoads(tenByTen("a"), fleet, band, newRNG(1))

	var ie *domain.InsufficiencyError
	if !errors.As(err, &ie) || ie.Kind != domain.InsufficientVehicles {
		t.Fatalf("expected vehicle insufficiency, got %v", err)
	}
}

func TestGroupLoadsNoGroupMetBand(t *testing.T) {
	demands := []Demand{
		{Restaurant: restaurant("a1", "a", "a"), Volume: 20},
		{Restaurant: restaurant("b1", "b", "b"), Volume: 20},
	}

	_, err := GroupLoads(demands, collectionFleet(2), band, newRNG(1))
	if !domain.IsInsufficiency(err) {
		t.Fatalf("expected insufficiency error, got %v", err)
	}
}

func TestGroupLoadsDropsTrailingGroupOverMax(t *testing.T) {
	var demands []Demand
	for i := 0; i < 12; i++ {
		demands = append(demands, Demand{Restaurant: restaurant(fmt.Sprintf("r%d", i), "east", "east"), Volume: 4})
	}

	res, err := GroupLoads(demands, collectionFleet(2), band, newRNG(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 9 || res.Rows[0].LoadVolume != 36 {
		t.Fatalf("rows = %d load = %d, want 9 rows with load 36", len(res.Rows), res.Rows[0].LoadVolume)
	}
}

func TestGroupLoadsTrailingMergeKeepsOvershootBound(t *testing.T) {
	var demands []Demand
	volumes := make(map[string]int)
	for i := 0; i < 11; i++ {
		v := 5
		if i >= 7 {
			v = 2
		}
		id := fmt.Sprintf("r%d", i)
		volumes[id] = v
		demands = append(demands, Demand{Restaurant: restaurant(id, "east", "east"), Volume: v})
	}

	for seed := int64(1); seed <= 30; seed++ {
		res, err := GroupLoads(demands, collectionFleet(2), band, newRNG(seed))
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}

		sum, largest := 0, 0
		for _, r := range res.Rows {
			sum += volumes[r.RestaurantID]
			largest = max(largest, volumes[r.RestaurantID])
		}
		if sum < band.Min || sum >= band.Min+largest {
			t.Fatalf("seed %d: load %d outside [%d, %d)", seed, sum, band.Min, band.Min+largest)
		}
	}
}
