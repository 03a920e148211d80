package domain

import (
	"errors"
	"time"
)

// PatientSummary is the patient-level rollup the orchestrator (C8) maintains
// alongside per-measure observations: the worst-case tier across all of a
// patient's enrolled measures, and the nearest runout date among them. It is
// the record a care-management worklist sorts and filters on.
type PatientSummary struct {
	PatientID          string
	WorstTier          Tier
	MinDaysUntilRunout int
	EnrolledMeasures   []Measure
	TopPriorityScore   int
	CalculatedAt       time.Time
}

// errPatientSummaryMissingID is returned when a summary is validated without
// a patient id set.
var errPatientSummaryMissingID = errors.New("patient summary: patient id is required")

// Validate reports whether the summary carries a usable patient id and a
// known tier.
func (s PatientSummary) Validate() error {
	if s.PatientID == "" {
		return errPatientSummaryMissingID
	}
	return s.WorstTier.Validate()
}
