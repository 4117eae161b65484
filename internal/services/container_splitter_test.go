package services

import (
	"fmt"
	"oil-collection-service/internal/domain"
	"testing"
)

var drums = SplitOptions{LargeUnit: 180, SmallUnit: 55, MinLargeMass: 150, MaxAttempts: 1000}

func groupedRows(loads ...int) []domain.OilCollectionRow {
	var rows []domain.OilCollectionRow
	for g, load := range loads {
		for m := 0; m < 3; m++ {
			rows = append(rows, domain.OilCollectionRow{
				RestaurantID: fmt.Sprintf("g%d-r%d", g, m),
				GroupKey:     fmt.Sprintf("g%d", g),
				LoadVolume:   load,
				LargeCount:   load,
			})
		}
	}
	return rows
}

func TestSplitContainersZeroTargetLeavesRowUnchanged(t *testing.T) {
	rows := []domain.OilCollectionRow{{GroupKey: "g", LoadVolume: 5, LargeCount: 5}}

	out := SplitContainers(rows, drums, newRNG(1))

	if out[0].LargeCount != 5 || out[0].SmallCount != 0 {
		t.Fatalf("split = %d/%d, want 5/0", out[0].LargeCount, out[0].SmallCount)
	}
}

func TestSplitContainersPreservesMass(t *testing.T) {
	opts := drums
	opts.TargetSmall = 10000

	for seed := int64(1); seed <= 40; seed++ {
		rows := groupedRows(36, 40, 1, 2, 44, 5)
		out := SplitContainers(rows, opts, newRNG(seed))

		shared := make(map[string][2]int)
		for _, r := range out {
			mass := r.LargeCount*opts.LargeUnit + r.SmallCount*opts.SmallUnit
			if mass < r.LoadVolume*opts.LargeUnit {
				t.Fatalf("seed %d: %s lost mass: %d < %d", seed, r.RestaurantID, mass, r.LoadVolume*opts.LargeUnit)
			}
			if r.SmallCount < 1 {
				t.Fatalf("seed %d: %s was not split although target is unreachable", seed, r.RestaurantID)
			}

			split := [2]int{r.LargeCount, r.SmallCount}
			if prev, ok := shared[r.GroupKey]; ok && prev != split {
				t.Fatalf("seed %d: rows of %s disagree: %v vs %v", seed, r.GroupKey, prev, split)
			}
			shared[r.GroupKey] = split
		}
	}
}

func TestSplitContainersStopsAtTarget(t *testing.T) {
	opts := drums
	opts.TargetSmall = 1

	out := SplitContainers(groupedRows(36, 40, 38), opts, newRNG(5))

	split := make(map[string]bool)
	for _, r := range out {
		if r.SmallCount > 0 {
			split[r.GroupKey] = true
		}
	}
	if len(split) != 1 {
		t.Fatalf("split loads = %d, want exactly 1 once the target is met", len(split))
	}
}

func TestSplitContainersDoesNotMutateInput(t *testing.T) {
	rows := groupedRows(36)
	opts := drums
	opts.TargetSmall = 100

	SplitContainers(rows, opts, newRNG(2))

	if rows[0].LargeCount != 36 || rows[0].SmallCount != 0 {
		t.Fatalf("input mutated: %+v", rows[0])
	}
}
