package services

import (
	"log"
	"math/rand"
	"oil-collection-service/internal/domain"
)

type SplitOptions struct {
	LargeUnit    int
	SmallUnit    int
	MinLargeMass int
	TargetSmall  int
	MaxAttempts  int
}

type containerSplit struct {
	large int
	small int
}

// SplitContainers converts each load's large-container volume into a mix of
// large and small containers, steering the total small count toward
// opts.TargetSmall. Rows sharing a GroupKey share one split.
//
// Each load is visited at most once; a split that would lose mass is reverted
// to the all-large layout. Running out of loads before the target is reached
// is logged, not returned.
func SplitContainers(rows []domain.OilCollectionRow, opts SplitOptions, rng *rand.Rand) []domain.OilCollectionRow {
	out := make([]domain.OilCollectionRow, len(rows))
	copy(out, rows)

	loads := make(map[string]int)
	var pool []string
	for _, r := range out {
		if _, seen := loads[r.GroupKey]; seen {
			continue
		}
		loads[r.GroupKey] = r.LoadVolume
		pool = append(pool, r.GroupKey)
	}

	splits := make(map[string]containerSplit, len(pool))
	for key, load := range loads {
		splits[key] = containerSplit{large: load}
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = len(pool)
	}

	smallTotal := 0
	for attempts := 0; smallTotal < opts.TargetSmall && len(pool) > 0 && attempts < maxAttempts; attempts++ {
		i := rng.Intn(len(pool))
		key := pool[i]
		pool[i] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		s, ok := trySplit(loads[key], opts, rng)
		if !ok {
			continue
		}
		splits[key] = s
		smallTotal += s.small
	}

	if smallTotal < opts.TargetSmall {
		log.Printf("op=split_containers target_small=%d reached=%d loads=%d", opts.TargetSmall, smallTotal, len(loads))
	}

	for i := range out {
		s := splits[out[i].GroupKey]
		out[i].LargeCount = s.large
		out[i].SmallCount = s.small
	}
	return out
}

func trySplit(load int, opts SplitOptions, rng *rand.Rand) (containerSplit, bool) {
	mass := load * opts.LargeUnit
	maxSmall := ceilDiv(mass, opts.SmallUnit) + 1
	candidate := 1 + rng.Intn(maxSmall)
	remainder := mass - candidate*opts.SmallUnit

	var s containerSplit
	if remainder < opts.MinLargeMass {
		s = containerSplit{large: 0, small: candidate + ceilDiv(max(remainder, 0), opts.SmallUnit)}
	} else {
		s = containerSplit{large: ceilDiv(remainder, opts.LargeUnit), small: candidate}
	}

	if s.large*opts.LargeUnit+s.small*opts.SmallUnit < mass {
		return containerSplit{}, false
	}
	return s, true
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
