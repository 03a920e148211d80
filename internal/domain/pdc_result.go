package domain

import "time"

// PDCResult is the full Proportion-of-Days-Covered computation for one
// drug or one measure over a measurement period, including both forward
// projections. Produced by the PDC calculator (C4); never mutated after
// construction.
type PDCResult struct {
	Measure           Measure
	PDC               float64 // 0-100, coveredDays / treatmentDays
	CoveredDays       int
	TreatmentDays     int
	GapDaysUsed       int
	GapDaysAllowed    int
	GapDaysRemaining  int // may be negative
	PDCStatusQuo      float64
	PDCPerfect        float64
	DaysUntilRunout   int // may be negative when out of meds
	CurrentSupply     int
	RefillsNeeded     int
	DaysToYearEnd     int
	LastFillDate      *time.Time
	FillCount         int
	MeasurementPeriod MeasurementPeriod
}

// IsAboveThreshold reports whether the status-quo projection already clears
// the HEDIS 80% adherence threshold.
func (r PDCResult) IsAboveThreshold() bool {
	return r.PDCStatusQuo >= 80
}

// IsOutOfMeds reports whether the patient has already run out of supply as
// of the current date.
func (r PDCResult) IsOutOfMeds() bool {
	return r.DaysUntilRunout <= 0
}
