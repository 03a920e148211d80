package domain

import (
	"fmt"
	"time"
)

// MeasurementPeriod is the inclusive closed interval [Start, End] over which
// PDC is computed. End is always 31 December of the measurement year; Start
// is the Index Prescription Start Date (IPSD) — the earliest valid fill.
type MeasurementPeriod struct {
	Start time.Time
	End   time.Time
}

// NewMeasurementYear builds the full calendar-year period [Jan 1, Dec 31] for
// the given year, used as the default period before an IPSD narrows Start.
func NewMeasurementYear(year int) MeasurementPeriod {
	return MeasurementPeriod{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// WithStart returns a copy of the period narrowed to start at the IPSD.
func (p MeasurementPeriod) WithStart(ipsd time.Time) MeasurementPeriod {
	p.Start = ipsd
	return p
}

// Validate reports whether the period is a well-formed non-empty interval.
func (p MeasurementPeriod) Validate() error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("measurement period end %s is before start %s", p.End, p.Start)
	}
	return nil
}

// Days returns the inclusive length of the period in calendar days.
func (p MeasurementPeriod) Days() int {
	return daysBetweenInclusive(p.Start, p.End)
}

// daysBetweenInclusive returns (end - start) + 1 in whole calendar days.
func daysBetweenInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
