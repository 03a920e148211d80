package domain

import (
	"fmt"
	"time"
)

// Observation is an immutable clinical fact produced by one pass of the
// orchestrator: either a measure-level rollup (MedicationRxnorm empty) or a
// medication-level record for one drug within that measure
// (ParentObservationID pointing back at the measure-level observation).
// Observations are never updated in place; a recomputation appends a new
// row with a later EffectiveAt.
type Observation struct {
	ID                  string
	PatientID           string
	Measure             Measure
	MedicationRxnorm    string // empty for measure-level observations
	MedicationDisplay   string
	ParentObservationID *string
	EffectiveAt         time.Time

	PDC       float64 // ratio in [0, 1], not a percentage
	PDCResult PDCResult
	Fragility FragilityResult
}

// Validate reports whether the observation is internally consistent enough
// to persist: required identifiers are present, a medication-level
// observation always names both its drug and its parent, and a
// measure-level observation never does.
func (o Observation) Validate() error {
	if o.PatientID == "" {
		return fmt.Errorf("observation: patient id is required")
	}
	if err := o.Measure.Validate(); err != nil {
		return fmt.Errorf("observation: %w", err)
	}
	isMedicationLevel := o.MedicationRxnorm != ""
	if isMedicationLevel && o.ParentObservationID == nil {
		return fmt.Errorf("observation: medication-level observation missing parent observation id")
	}
	if !isMedicationLevel && o.ParentObservationID != nil {
		return fmt.Errorf("observation: measure-level observation must not carry a parent observation id")
	}
	if err := o.Fragility.Tier.Validate(); err != nil {
		return fmt.Errorf("observation: %w", err)
	}
	return nil
}

// IsMeasureLevel reports whether this observation rolls up a whole measure
// rather than describing a single drug within it.
func (o Observation) IsMeasureLevel() bool {
	return o.MedicationRxnorm == ""
}
