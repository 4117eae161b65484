package services

import "math/rand"

// DailyQuotas splits total items over days using a base quota of total/days
// jittered by {-1, 0, +1} per day, never below one.
//
// Each day's draw is clamped so the remaining days can still absorb the rest
// within the jitter band; whatever is left lands on the final day.
func DailyQuotas(total, days int, rng *rand.Rand) []int {
	if total <= 0 || days <= 0 {
		return nil
	}
	if days > total {
		days = total
	}

	base := total / days
	lo := max(1, base-1)
	hi := base + 1

	quotas := make([]int, days)
	remaining := total
	for i := 0; i < days-1; i++ {
		left := days - 1 - i

		q := max(1, base+rng.Intn(3)-1)
		// Keep the remainder serviceable by the days still to come.
		q = max(q, remaining-left*hi)
		q = min(q, remaining-left*lo)

		quotas[i] = q
		remaining -= q
	}
	quotas[days-1] = remaining

	return quotas
}
