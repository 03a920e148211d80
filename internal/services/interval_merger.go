package services

import (
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// intervalMerger is the default IntervalMerger, implementing the HEDIS
// overlap-merge rule.
type intervalMerger struct{}

// NewIntervalMerger returns an IntervalMerger.
func NewIntervalMerger() IntervalMerger {
	return intervalMerger{}
}

// Merge sorts fills by date and walks them in order, extending a running
// coverage frontier. A fill that starts after the frontier contributes its
// full days supply; a fill that starts within the frontier but extends past
// it contributes only the extension; a fill fully inside the frontier
// contributes nothing. TreatmentDays runs from the later of the first fill
// date and period.Start through period.End, and CoveredDays is capped at
// TreatmentDays; supply days that fall before period.Start are not excluded
// from the covered count.
//
// Identical fill dates are processed in input order (SortFillsByDate is
// stable), so the second of two same-day fills always behaves as an
// overlap case and never double-counts.
func (intervalMerger) Merge(fills []domain.Fill, period domain.MeasurementPeriod) MergeResult {
	if len(fills) == 0 {
		return MergeResult{}
	}
	sorted := domain.SortFillsByDate(fills)
	first := sorted[0].FillDate
	if first.Before(period.Start) {
		first = period.Start
	}

	coveredUntil := sorted[0].FillDate
	coveredDays := 0
	for _, fill := range sorted {
		fillEnd := fill.CoverageEnd()
		switch {
		case fill.FillDate.After(coveredUntil):
			coveredDays += fill.DaysSupply
			coveredUntil = fillEnd
		case fillEnd.After(coveredUntil):
			coveredDays += daysBetween(coveredUntil, fillEnd)
			coveredUntil = fillEnd
		}
	}

	treatmentDays := daysBetween(first, period.End) + 1
	if treatmentDays < 0 {
		treatmentDays = 0
	}
	if coveredDays > treatmentDays {
		coveredDays = treatmentDays
	}
	return MergeResult{
		CoveredDays:   coveredDays,
		TreatmentDays: treatmentDays,
		GapDaysUsed:   treatmentDays - coveredDays,
	}
}

// daysBetween returns the whole number of calendar days between two UTC
// calendar-date times, from earlier to later.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
