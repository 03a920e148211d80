package services

import (
	"math"
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// refillForecastRecentFillWindow bounds how many of the most recent fills
// feed the arithmetic-mean days-per-refill estimate.
const refillForecastRecentFillWindow = 6

// refillForecaster is the default RefillForecaster.
type refillForecaster struct{}

// NewRefillForecaster returns the default RefillForecaster.
func NewRefillForecaster() RefillForecaster {
	return refillForecaster{}
}

// Forecast estimates supply on hand from the most recent fill, the cadence
// of recent refills, and the resulting coverage shortfall through year-end.
// period.End is the same measurement-period end PDCCalculator uses for
// PDCResult.DaysToYearEnd, so the two stay in agreement regardless of which
// HEDIS year asOf falls in.
func (f refillForecaster) Forecast(fills []domain.Fill, period domain.MeasurementPeriod, asOf time.Time, defaultDaysSupply int) RefillForecast {
	asOf = asOf.UTC().Truncate(24 * time.Hour)
	if defaultDaysSupply <= 0 {
		defaultDaysSupply = defaultDaysSupplyForRefillEstimate
	}
	if len(fills) == 0 {
		return RefillForecast{
			EstimatedDaysPerRefill: defaultDaysSupply,
		}
	}

	sorted := domain.SortFillsByDate(fills)
	last := sorted[len(sorted)-1]
	daysElapsed := daysBetween(last.FillDate, asOf)
	supplyOnHand := maxInt(0, last.DaysSupply-daysElapsed)

	daysToYearEnd := daysUntilInclusive(asOf, period.End)
	coverageShortfall := maxInt(0, daysToYearEnd-supplyOnHand)

	estimatedDaysPerRefill := averageRecentDaysSupply(sorted, refillForecastRecentFillWindow, defaultDaysSupply)
	remainingRefills := ceilDivPositive(coverageShortfall, estimatedDaysPerRefill)

	return RefillForecast{
		CurrentSupplyDays:      supplyOnHand,
		EstimatedDaysPerRefill: estimatedDaysPerRefill,
		RemainingRefillsNeeded: remainingRefills,
		NextRefillDueBy:        last.FillDate.AddDate(0, 0, last.DaysSupply),
	}
}

// averageRecentDaysSupply returns the arithmetic mean days-supply of the
// most recent window fills, rounded to the nearest day, or fallback when no
// fills are available.
func averageRecentDaysSupply(sortedFills []domain.Fill, window, fallback int) int {
	if len(sortedFills) == 0 {
		return fallback
	}
	start := 0
	if len(sortedFills) > window {
		start = len(sortedFills) - window
	}
	recent := sortedFills[start:]
	total := 0
	for _, f := range recent {
		total += f.DaysSupply
	}
	return int(math.Round(float64(total) / float64(len(recent))))
}

// ceilDivPositive returns ceil(a/b) for non-negative a and positive b.
func ceilDivPositive(a, b int) int {
	if b <= 0 {
		b = defaultDaysSupplyForRefillEstimate
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
