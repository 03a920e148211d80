package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

func TestPDCCalculator_Calculate_NoFills(t *testing.T) {
	calc := NewPDCCalculator(NewIntervalMerger())
	period := domain.NewMeasurementYear(2026)
	asOf := mustDate(2026, time.June, 1)

	result := calc.Calculate(nil, period, asOf, domain.MeasureMAC, 0.2)

	assert.Equal(t, domain.MeasureMAC, result.Measure)
	assert.Equal(t, float64(0), result.PDC)
	assert.Equal(t, float64(0), result.PDCStatusQuo)
	assert.Equal(t, 0, result.DaysUntilRunout)
	assert.Equal(t, 365, result.TreatmentDays)
	assert.Greater(t, result.PDCPerfect, float64(0))
}

func TestPDCCalculator_Calculate_CompliantPatient(t *testing.T) {
	// maria: four on-time 90-day fills across the year, well above 80%
	calc := NewPDCCalculator(NewIntervalMerger())
	period := domain.NewMeasurementYear(2026)
	asOf := mustDate(2026, time.November, 15)

	fills := []domain.Fill{
		{FillDate: mustDate(2026, time.January, 1), DaysSupply: 90},
		{FillDate: mustDate(2026, time.March, 30), DaysSupply: 90},
		{FillDate: mustDate(2026, time.June, 26), DaysSupply: 90},
		{FillDate: mustDate(2026, time.September, 22), DaysSupply: 90},
	}

	result := calc.Calculate(fills, period, asOf, domain.MeasureMAC, 0.2)

	assert.GreaterOrEqual(t, result.PDCStatusQuo, float64(80))
	assert.True(t, result.IsAboveThreshold())
	assert.False(t, result.IsOutOfMeds())
	assert.Equal(t, 4, result.FillCount)
}

func TestPDCCalculator_Calculate_OutOfMedsPatient(t *testing.T) {
	// robert: single 30-day fill at the start of the year, long since expired
	calc := NewPDCCalculator(NewIntervalMerger())
	period := domain.NewMeasurementYear(2026)
	asOf := mustDate(2026, time.November, 15)

	fills := []domain.Fill{
		{FillDate: mustDate(2026, time.January, 1), DaysSupply: 30},
	}

	result := calc.Calculate(fills, period, asOf, domain.MeasureMAH, 0.2)

	assert.True(t, result.IsOutOfMeds())
	assert.Less(t, result.DaysUntilRunout, 0)
	assert.Less(t, result.PDCStatusQuo, float64(80))
}

func TestPDCCalculator_Calculate_NewPatientOnPace(t *testing.T) {
	// james: single fill 20 days ago, well within its own supply window
	calc := NewPDCCalculator(NewIntervalMerger())
	period := domain.NewMeasurementYear(2026)
	asOf := mustDate(2026, time.November, 15)
	fillDate := asOf.AddDate(0, 0, -20)

	fills := []domain.Fill{
		{FillDate: fillDate, DaysSupply: 30},
	}

	result := calc.Calculate(fills, period, asOf, domain.MeasureMAD, 0.2)

	assert.False(t, result.IsOutOfMeds())
	assert.Equal(t, 10, result.CurrentSupply)
}

func TestPDCCalculator_Calculate_ClampsPDCAt100(t *testing.T) {
	calc := NewPDCCalculator(NewIntervalMerger())
	period := domain.NewMeasurementYear(2026)
	asOf := mustDate(2026, time.December, 31)

	// far more supply than the measurement period needs
	fills := []domain.Fill{
		{FillDate: mustDate(2026, time.January, 1), DaysSupply: 400},
	}

	result := calc.Calculate(fills, period, asOf, domain.MeasureMAC, 0.2)

	assert.LessOrEqual(t, result.PDC, float64(100))
	assert.LessOrEqual(t, result.PDCStatusQuo, float64(100))
	assert.LessOrEqual(t, result.PDCPerfect, float64(100))
}
