package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

func TestRefillForecaster_Forecast_NoFills(t *testing.T) {
	forecaster := NewRefillForecaster()
	asOf := mustDate(2026, time.June, 1)
	period := domain.NewMeasurementYear(2026)

	forecast := forecaster.Forecast(nil, period, asOf, 30)

	assert.Equal(t, 0, forecast.CurrentSupplyDays)
	assert.Equal(t, 30, forecast.EstimatedDaysPerRefill)
}

func TestRefillForecaster_Forecast_UsesDefaultWhenUnset(t *testing.T) {
	forecaster := NewRefillForecaster()
	asOf := mustDate(2026, time.June, 1)
	period := domain.NewMeasurementYear(2026)

	forecast := forecaster.Forecast(nil, period, asOf, 0)

	assert.Equal(t, defaultDaysSupplyForRefillEstimate, forecast.EstimatedDaysPerRefill)
}

func TestRefillForecaster_Forecast_SupplyOnHand(t *testing.T) {
	forecaster := NewRefillForecaster()
	asOf := mustDate(2026, time.November, 15)
	period := domain.NewMeasurementYear(2026)
	fillDate := asOf.AddDate(0, 0, -20)

	fills := []domain.Fill{{FillDate: fillDate, DaysSupply: 30}}

	forecast := forecaster.Forecast(fills, period, asOf, 30)

	assert.Equal(t, 10, forecast.CurrentSupplyDays)
	assert.True(t, forecast.NextRefillDueBy.Equal(fillDate.AddDate(0, 0, 30)))
}

func TestRefillForecaster_Forecast_OutOfSupplyClampsToZero(t *testing.T) {
	forecaster := NewRefillForecaster()
	asOf := mustDate(2026, time.November, 15)
	period := domain.NewMeasurementYear(2026)
	fillDate := mustDate(2026, time.January, 1)

	fills := []domain.Fill{{FillDate: fillDate, DaysSupply: 30}}

	forecast := forecaster.Forecast(fills, period, asOf, 30)

	assert.Equal(t, 0, forecast.CurrentSupplyDays)
	assert.Greater(t, forecast.RemainingRefillsNeeded, 0)
}

func TestRefillForecaster_Forecast_AveragesRecentWindow(t *testing.T) {
	forecaster := NewRefillForecaster()
	asOf := mustDate(2026, time.November, 15)
	period := domain.NewMeasurementYear(2026)

	// refillForecastRecentFillWindow is 6; an 8-fill history only averages
	// the 6 most recent (all 30-day fills), dropping the two early 90-day ones.
	fills := []domain.Fill{
		{FillDate: mustDate(2026, time.January, 1), DaysSupply: 90},
		{FillDate: mustDate(2026, time.February, 1), DaysSupply: 90},
		{FillDate: mustDate(2026, time.March, 1), DaysSupply: 30},
		{FillDate: mustDate(2026, time.April, 1), DaysSupply: 30},
		{FillDate: mustDate(2026, time.May, 1), DaysSupply: 30},
		{FillDate: mustDate(2026, time.June, 1), DaysSupply: 30},
		{FillDate: mustDate(2026, time.July, 1), DaysSupply: 30},
		{FillDate: mustDate(2026, time.August, 1), DaysSupply: 30},
	}

	forecast := forecaster.Forecast(fills, period, asOf, 30)

	assert.Equal(t, 30, forecast.EstimatedDaysPerRefill)
}

func TestRefillForecaster_Forecast_UsesMeasurementPeriodEndNotCalendarYear(t *testing.T) {
	forecaster := NewRefillForecaster()
	asOf := mustDate(2026, time.November, 15)
	// A retrospective HEDIS year whose period end differs from asOf's
	// calendar year end; daysToYearEnd must follow period.End, not
	// December 31 of asOf's own year.
	period := domain.NewMeasurementYear(2025)

	fillDate := mustDate(2026, time.January, 1)
	fills := []domain.Fill{{FillDate: fillDate, DaysSupply: 30}}

	forecast := forecaster.Forecast(fills, period, asOf, 30)

	// period.End (2025-12-31) is before asOf, so the coverage shortfall
	// through year-end is zero and no further refills are projected.
	assert.Equal(t, 0, forecast.RemainingRefillsNeeded)
}
