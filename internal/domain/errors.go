package domain

import (
	"errors"
	"fmt"
	"time"
)

type InsufficiencyKind string

const (
	InsufficientVolume   InsufficiencyKind = "volume"
	InsufficientVehicles InsufficiencyKind = "vehicles"
	NoVehicleForDate     InsufficiencyKind = "vehicle_for_date"
)

// InsufficiencyError reports a batch that cannot be served with the
// declared volume or the available fleet. It is always fatal to the batch.
type InsufficiencyError struct {
	Kind      InsufficiencyKind
	Date      time.Time
	Shortfall int
	Msg       string
}

func (e *InsufficiencyError) Error() string {
	if e.Kind == NoVehicleForDate {
		return fmt.Sprintf("no vehicle available for date %s: short by %d", e.Date.Format("2006-01-02"), e.Shortfall)
	}
	return e.Msg
}

// ReconciliationError reports a join or threshold that could not be resolved
// while back-filling contract allocations.
type ReconciliationError struct {
	Msg string
}

func (e *ReconciliationError) Error() string { return "reconcile: " + e.Msg }

// AllocationError is the single error shape callers of a collection cycle see.
type AllocationError struct {
	Err error
}

func (e *AllocationError) Error() string { return "allocation failed: " + e.Err.Error() }

func (e *AllocationError) Unwrap() error { return e.Err }

// ErrToleranceUnreachable is returned when a randomized accept/reject loop
// exhausts its attempts without landing inside the tolerance band.
var ErrToleranceUnreachable = errors.New("target not reachable within tolerance")

// IsInsufficiency reports whether err carries an InsufficiencyError.
func IsInsufficiency(err error) bool {
	var ie *InsufficiencyError
	return errors.As(err, &ie)
}
