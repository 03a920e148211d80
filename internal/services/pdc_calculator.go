package services

import (
	"math"
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// pdcCalculator is the default PDCCalculator.
type pdcCalculator struct {
	merger IntervalMerger
}

// NewPDCCalculator returns a PDCCalculator built on the given IntervalMerger.
func NewPDCCalculator(merger IntervalMerger) PDCCalculator {
	return pdcCalculator{merger: merger}
}

const defaultDaysSupplyForRefillEstimate = 30

// Calculate combines the interval merger's day counts with the measurement
// period and current date to produce the full PDCResult: current-state
// ratio, gap-day accounting, and both forward projections. An empty fill
// list yields a well-formed degenerate result rather than an error.
func (c pdcCalculator) Calculate(fills []domain.Fill, period domain.MeasurementPeriod, asOf time.Time, measure domain.Measure, gapDaysAllowedRatio float64) domain.PDCResult {
	asOf = asOf.UTC().Truncate(24 * time.Hour)

	if len(fills) == 0 {
		treatmentDays := period.Days()
		daysToYearEnd := daysUntilInclusive(asOf, period.End)
		pdcPerfect := clampPercent(ratioToPercent(float64(daysToYearEnd), float64(treatmentDays)))
		return domain.PDCResult{
			Measure:           measure,
			PDC:               0,
			TreatmentDays:     treatmentDays,
			GapDaysAllowed:    int(math.Floor(float64(treatmentDays) * gapDaysAllowedRatio)),
			GapDaysUsed:       treatmentDays,
			GapDaysRemaining:  int(math.Floor(float64(treatmentDays)*gapDaysAllowedRatio)) - treatmentDays,
			PDCStatusQuo:      0,
			PDCPerfect:        pdcPerfect,
			DaysUntilRunout:   0,
			DaysToYearEnd:     daysToYearEnd,
			MeasurementPeriod: period,
		}
	}

	sorted := domain.SortFillsByDate(fills)
	merge := c.merger.Merge(sorted, period)

	lastFill := sorted[len(sorted)-1]
	lastFillEnd := lastFill.CoverageEnd()
	currentSupply := maxInt(0, daysBetween(asOf, lastFillEnd))
	daysUntilRunout := daysBetween(asOf, lastFillEnd)
	daysToYearEnd := daysUntilInclusive(asOf, period.End)

	gapDaysAllowed := int(math.Floor(float64(merge.TreatmentDays) * gapDaysAllowedRatio))
	gapDaysRemaining := gapDaysAllowed - merge.GapDaysUsed

	refillsNeeded := maxInt(0, ceilDiv(daysToYearEnd-currentSupply, defaultDaysSupplyForRefillEstimate))

	pdc := clampPercent(ratioToPercent(float64(merge.CoveredDays), float64(merge.TreatmentDays)))
	pdcStatusQuo := clampPercent(ratioToPercent(float64(merge.CoveredDays+minInt(currentSupply, daysToYearEnd)), float64(merge.TreatmentDays)))
	pdcPerfect := clampPercent(ratioToPercent(float64(merge.CoveredDays+daysToYearEnd), float64(merge.TreatmentDays)))

	lastFillDate := lastFill.FillDate
	return domain.PDCResult{
		Measure:           measure,
		PDC:               pdc,
		CoveredDays:       merge.CoveredDays,
		TreatmentDays:     merge.TreatmentDays,
		GapDaysUsed:       merge.GapDaysUsed,
		GapDaysAllowed:    gapDaysAllowed,
		GapDaysRemaining:  gapDaysRemaining,
		PDCStatusQuo:      pdcStatusQuo,
		PDCPerfect:        pdcPerfect,
		DaysUntilRunout:   daysUntilRunout,
		CurrentSupply:     currentSupply,
		RefillsNeeded:     refillsNeeded,
		DaysToYearEnd:     daysToYearEnd,
		LastFillDate:      &lastFillDate,
		FillCount:         len(sorted),
		MeasurementPeriod: period,
	}
}

// ratioToPercent converts a covered/treatment ratio to a percentage,
// returning 0 when treatmentDays is zero to avoid dividing by zero.
func ratioToPercent(covered, treatment float64) float64 {
	if treatment <= 0 {
		return 0
	}
	return covered / treatment * 100
}

// clampPercent caps a percentage at 100; PDC is never allowed above it.
func clampPercent(pct float64) float64 {
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// daysUntilInclusive returns max(0, (end - from) + 1) in whole calendar days.
func daysUntilInclusive(from, end time.Time) int {
	return maxInt(0, daysBetween(from, end)+1)
}

// ceilDiv returns the ceiling of a/b for positive b; negative numerators
// (more supply than days remaining) yield a non-positive result, which
// callers clamp to zero.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
