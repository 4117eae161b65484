package services

import (
	"errors"
	"fmt"
	"math/rand"
	"oil-collection-service/internal/domain"
	"slices"
	"strconv"
	"strings"
	"time"
)

type ScheduleOptions struct {
	// Any day within the target month.
	Month time.Time
	// First calendar day (1-based) that may receive deliveries.
	StartDay int
	// Days to clear the load over; zero means the rest of the month.
	Days int
	// Serials already on the ledger; new serials continue each date's sequence.
	Issued []string
}

type ScheduleResult struct {
	Balance []domain.BalanceRow
	Updates []domain.VehicleUpdate
}

// ScheduleDeliveries dates every trip in balance and binds it to a concrete
// vehicle that is out of cooldown on that date.
//
// Vehicles stamped earlier in the run are seen with their new last-use date
// by later dates. A date without enough eligible vehicles fails the batch.
func ScheduleDeliveries(balance []domain.BalanceRow, vehicles []domain.Vehicle, opts ScheduleOptions, rng *rand.Rand) (ScheduleResult, error) {
	if len(balance) == 0 {
		return ScheduleResult{}, nil
	}

	days, err := deliveryDays(len(balance), opts, rng)
	if err != nil {
		return ScheduleResult{}, err
	}
	quotas := DailyQuotas(len(balance), len(days), rng)

	seqs := lastSerials(opts.Issued)
	fleet := slices.Clone(vehicles)
	out := make([]domain.BalanceRow, 0, len(balance))
	var updates []domain.VehicleUpdate

	next := 0
	for d, quota := range quotas {
		date := days[d]

		var eligible []int
		for i, v := range fleet {
			if v.Type == domain.VehicleToRestaurant && v.AvailableOn(date) {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) < quota {
			return ScheduleResult{}, &domain.InsufficiencyError{
				Kind:      domain.NoVehicleForDate,
				Date:      date,
				Shortfall: quota - len(eligible),
			}
		}

		picks := rng.Perm(len(eligible))[:quota]
		for _, p := range picks {
			idx := eligible[p]
			v := fleet[idx]

			u := domain.VehicleUpdate{VehicleID: v.ID, LastUseDate: date, Version: v.Version}
			fleet[idx] = u.Apply(v)
			updates = append(updates, u)

			row := balance[next]
			row.DeliveryDate = date
			key := date.Format("20060102")
			seqs[key]++
			row.SettlementNo = SerialNumber(date, seqs[key])
			row.VehicleID = v.ID
			row.VehiclePlate = v.Plate
			out = append(out, row)
			next++
		}
	}

	return ScheduleResult{Balance: out, Updates: updates}, nil
}

// SerialNumber formats a trip's settlement serial as YYYYMMDD-NNN.
func SerialNumber(date time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", date.Format("20060102"), seq)
}

// lastSerials returns the highest sequence issued per YYYYMMDD prefix.
func lastSerials(issued []string) map[string]int {
	out := make(map[string]int)
	for _, s := range issued {
		date, seq, ok := strings.Cut(s, "-")
		if !ok || len(date) != 8 {
			continue
		}
		n, err := strconv.Atoi(seq)
		if err != nil {
			continue
		}
		out[date] = max(out[date], n)
	}
	return out
}

func deliveryDays(groups int, opts ScheduleOptions, rng *rand.Rand) ([]time.Time, error) {
	start := max(opts.StartDay, 1)

	var calendar []time.Time
	for _, d := range domain.MonthDays(opts.Month) {
		if d.Day() >= start {
			calendar = append(calendar, d)
		}
	}
	if len(calendar) == 0 {
		return nil, errors.New("schedule deliveries: no calendar days left in month")
	}

	n := len(calendar)
	if opts.Days > 0 && opts.Days < n {
		n = opts.Days
	}
	window := calendar[:n]

	if groups >= n {
		return window, nil
	}

	picked := rng.Perm(n)[:groups]
	slices.Sort(picked)
	days := make([]time.Time, 0, groups)
	for _, i := range picked {
		days = append(days, window[i])
	}
	return days, nil
}
