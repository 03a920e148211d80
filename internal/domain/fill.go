package domain

import (
	"fmt"
	"time"
)

// Dispense is a raw pharmacy dispense record as read from the clinical-record
// backend. It is the unvalidated external input to the fill extractor (C2).
type Dispense struct {
	PatientID         string
	WhenHandedOver    *time.Time // preferred fill-date source
	WhenPrepared      *time.Time // fallback fill-date source
	DaysSupply        *int
	RxnormCode        string // may be absent
	MedicationDisplay string
}

// Fill is an immutable record of a medication pickup, normalized from a
// Dispense by the fill extractor. A Fill with DaysSupply <= 0 must never be
// constructed — invalid dispenses are dropped before this point.
type Fill struct {
	FillDate   time.Time // UTC calendar date
	DaysSupply int       // positive integer days the fill is intended to cover
	RxnormCode string    // optional
}

// Validate reports whether the fill carries a usable days-supply. Callers
// construct Fill only from extraction paths that already checked this, but
// the check is kept here too since Fill values can also arrive directly in
// tests and forecaster inputs.
func (f Fill) Validate() error {
	if f.DaysSupply <= 0 {
		return fmt.Errorf("%w: days supply %d is not positive", ErrInvalidFill, f.DaysSupply)
	}
	return nil
}

// CoverageEnd returns the exclusive end of this fill's coverage interval:
// [FillDate, FillDate+DaysSupply) in calendar days.
func (f Fill) CoverageEnd() time.Time {
	return f.FillDate.AddDate(0, 0, f.DaysSupply)
}

// SortFillsByDate sorts fills ascending by fill date, stable so that
// identical fill dates keep their input order (the tie-break C3 depends on).
func SortFillsByDate(fills []Fill) []Fill {
	sorted := make([]Fill, len(fills))
	copy(sorted, fills)
	insertionSortFillsByDate(sorted)
	return sorted
}

// insertionSortFillsByDate is a small stable sort. Fill lists in practice are
// tiny (a handful of pickups per drug per year), so an O(n^2) stable sort
// avoids pulling in sort.SliceStable's reflection overhead for no benefit.
func insertionSortFillsByDate(fills []Fill) {
	for i := 1; i < len(fills); i++ {
		j := i
		for j > 0 && fills[j].FillDate.Before(fills[j-1].FillDate) {
			fills[j], fills[j-1] = fills[j-1], fills[j]
			j--
		}
	}
}
