package services

import (
	"fmt"
	"math/rand"
	"oil-collection-service/internal/domain"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Demand is a restaurant paired with the volume drawn for this cycle.
type Demand struct {
	Restaurant domain.Restaurant
	Volume     int
}

type GroupOptions struct {
	Min   int
	Max   int
	Cap   int
	Today time.Time
}

type GroupResult struct {
	Rows    []domain.OilCollectionRow
	Updates []domain.RestaurantUpdate
}

type loadGroup struct {
	members []Demand
	sum     int
	vehicle domain.Vehicle
}

// GroupLoads bundles restaurant demand into vehicle loads.
//
// Restaurants are grouped by region and accumulated until the running sum
// crosses opts.Min; each such group is bound to the next vehicle from a
// shuffled pool of available collection vehicles. A region's trailing
// incomplete group is folded into that region's last load when the merged
// total stays within opts.Max and the cap, and is dropped otherwise.
// Reaching opts.Cap stops grouping and discards the region in progress.
func GroupLoads(demands []Demand, vehicles []domain.Vehicle, opts GroupOptions, rng *rand.Rand) (GroupResult, error) {
	total := 0
	for _, d := range demands {
		total += d.Volume
	}
	if total < opts.Min {
		return GroupResult{}, &domain.InsufficiencyError{
			Kind: domain.InsufficientVolume,
			Msg:  fmt.Sprintf("group loads: total volume %d below load floor %d", total, opts.Min),
		}
	}

	pool := domain.FilterVehicles(vehicles, domain.VehicleToRestaurant, opts.Today)
	if len(pool) == 0 {
		return GroupResult{}, &domain.InsufficiencyError{
			Kind: domain.InsufficientVehicles,
			Msg:  "group loads: no eligible collection vehicles",
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	regions := groupByRegion(demands, rng)

	var bound []loadGroup
	accumulated := 0
	next := 0

grouping:
	for _, region := range regions {
		var regionGroups []loadGroup
		regionSum := 0
		var pending loadGroup

		for _, d := range region {
			pending.members = append(pending.members, d)
			pending.sum += d.Volume
			if pending.sum < opts.Min {
				continue
			}

			if accumulated+regionSum+pending.sum > opts.Cap {
				break grouping
			}
			if next >= len(pool) {
				return GroupResult{}, &domain.InsufficiencyError{
					Kind: domain.InsufficientVehicles,
					Msg:  fmt.Sprintf("group loads: not enough vehicles: %d loads bound, pool of %d exhausted", len(bound)+len(regionGroups), len(pool)),
				}
			}

			pending.vehicle = pool[next]
			next++
			regionGroups = append(regionGroups, pending)
			regionSum += pending.sum
			pending = loadGroup{}
		}

		if len(pending.members) > 0 && len(regionGroups) > 0 {
			last := &regionGroups[len(regionGroups)-1]
			merged := last.sum + pending.sum
			largest := max(largestVolume(last.members), largestVolume(pending.members))
			if merged <= opts.Max && merged < opts.Min+largest && accumulated+regionSum+pending.sum <= opts.Cap {
				last.members = append(last.members, pending.members...)
				last.sum += pending.sum
				regionSum += pending.sum
			}
		}

		bound = append(bound, regionGroups...)
		accumulated += regionSum
	}

	if len(bound) == 0 {
		return GroupResult{}, &domain.InsufficiencyError{
			Kind: domain.InsufficientVolume,
			Msg:  "group loads: no group met the volume band",
		}
	}

	return buildGroupResult(bound, opts.Today, rng), nil
}

func largestVolume(members []Demand) int {
	out := 0
	for _, m := range members {
		out = max(out, m.Volume)
	}
	return out
}

// groupByRegion buckets demand by region in sorted region order, each bucket
// ordered by a per-row random tiebreaker.
func groupByRegion(demands []Demand, rng *rand.Rand) [][]Demand {
	type keyed struct {
		d   Demand
		key float64
	}

	byRegion := make(map[string][]keyed)
	for _, d := range demands {
		r := d.Restaurant.GroupRegion()
		byRegion[r] = append(byRegion[r], keyed{d: d, key: rng.Float64()})
	}

	names := make([]string, 0, len(byRegion))
	for r := range byRegion {
		names = append(names, r)
	}
	slices.Sort(names)

	out := make([][]Demand, 0, len(names))
	for _, r := range names {
		rows := byRegion[r]
		slices.SortStableFunc(rows, func(a, b keyed) int {
			switch {
			case a.key < b.key:
				return -1
			case a.key > b.key:
				return 1
			}
			return 0
		})

		bucket := make([]Demand, 0, len(rows))
		for _, k := range rows {
			bucket = append(bucket, k.d)
		}
		out = append(out, bucket)
	}
	return out
}

func buildGroupResult(groups []loadGroup, today time.Time, rng *rand.Rand) GroupResult {
	var res GroupResult
	verified := domain.Day(today)

	for _, g := range groups {
		key := newGroupKey(rng)
		for _, m := range g.members {
			r := m.Restaurant
			res.Rows = append(res.Rows, domain.OilCollectionRow{
				RestaurantID:    r.ID,
				RestaurantName:  r.Name,
				Region:          r.GroupRegion(),
				District:        r.District,
				City:            r.City,
				CollectionPoint: r.CollectionPoint,
				Volume:          m.Volume,
				VehicleID:       g.vehicle.ID,
				VehiclePlate:    g.vehicle.Plate,
				LoadVolume:      g.sum,
				GroupKey:        key,
				LargeCount:      g.sum,
			})
			res.Updates = append(res.Updates, domain.RestaurantUpdate{
				RestaurantID:     r.ID,
				AllocatedVolume:  m.Volume,
				LastVerifiedDate: verified,
			})
		}
	}
	return res
}

// Keys are drawn from the cycle's generator so a seeded run is reproducible.
func newGroupKey(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
