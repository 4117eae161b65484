package services

import (
	"math/rand"
	"oil-collection-service/internal/domain"
	"strings"
)

type volumeMatcher struct {
	exact        string
	alternatives []string
	values       []int
}

// VolumeEstimator draws a per-visit collection volume (large-container units)
// from the first rule whose matcher accepts a restaurant's declared type.
//
// Rules are evaluated top to bottom and compiled once; the estimator is
// immutable afterwards and safe to share.
type VolumeEstimator struct {
	matchers []volumeMatcher
	fallback []int
}

func NewVolumeEstimator(rules []domain.VolumeRule) *VolumeEstimator {
	matchers := make([]volumeMatcher, 0, len(rules))
	for _, r := range rules {
		if len(r.Values) == 0 {
			continue
		}

		alts := make([]string, 0, 2)
		for _, a := range strings.Split(r.Match, "/") {
			if a = strings.TrimSpace(a); a != "" {
				alts = append(alts, a)
			}
		}

		matchers = append(matchers, volumeMatcher{
			exact:        strings.TrimSpace(r.Match),
			alternatives: alts,
			values:       append([]int(nil), r.Values...),
		})
	}

	return &VolumeEstimator{
		matchers: matchers,
		fallback: append([]int(nil), domain.DefaultVolumes...),
	}
}

// Estimate never fails: an unmatched (or empty) type samples the default set.
func (e *VolumeEstimator) Estimate(declaredType string, rng *rand.Rand) int {
	values := e.lookup(strings.TrimSpace(declaredType))
	return values[rng.Intn(len(values))]
}

func (e *VolumeEstimator) lookup(declaredType string) []int {
	for _, m := range e.matchers {
		if m.exact == declaredType {
			return m.values
		}
		if declaredType == "" {
			continue
		}
		for _, alt := range m.alternatives {
			if strings.Contains(declaredType, alt) {
				return m.values
			}
		}
	}
	return e.fallback
}
