package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridgeline-health/medadherence/internal/domain"
)

// observationWriter is the default ObservationWriter.
type observationWriter struct {
	repo ObservationRepository
}

// NewObservationWriter returns an ObservationWriter persisting through repo.
func NewObservationWriter(repo ObservationRepository) ObservationWriter {
	return observationWriter{repo: repo}
}

// WriteMeasureObservation constructs and persists a measure-level
// observation. It never overwrites a prior observation for the same
// (patient, measure); the writer always appends.
func (w observationWriter) WriteMeasureObservation(ctx context.Context, patientID string, measure domain.Measure, result domain.PDCResult, fragility domain.FragilityResult, effectiveAt time.Time) (domain.Observation, error) {
	obs := domain.Observation{
		ID:          uuid.NewString(),
		PatientID:   patientID,
		Measure:     measure,
		EffectiveAt: effectiveAt,
		PDC:         result.PDC / 100,
		PDCResult:   result,
		Fragility:   fragility,
	}
	return w.create(ctx, obs)
}

// WriteMedicationObservation constructs and persists a medication-level
// observation linked as a child of parentObservationID.
func (w observationWriter) WriteMedicationObservation(ctx context.Context, parentObservationID string, patientID string, measure domain.Measure, rxnormCode, display string, result domain.PDCResult, fragility domain.FragilityResult, effectiveAt time.Time) (domain.Observation, error) {
	parent := parentObservationID
	obs := domain.Observation{
		ID:                  uuid.NewString(),
		PatientID:           patientID,
		Measure:             measure,
		MedicationRxnorm:    rxnormCode,
		MedicationDisplay:   display,
		ParentObservationID: &parent,
		EffectiveAt:         effectiveAt,
		PDC:                 result.PDC / 100,
		PDCResult:           result,
		Fragility:           fragility,
	}
	return w.create(ctx, obs)
}

func (w observationWriter) create(ctx context.Context, obs domain.Observation) (domain.Observation, error) {
	if err := obs.Validate(); err != nil {
		return domain.Observation{}, fmt.Errorf("observation writer: %w", err)
	}
	created, err := w.repo.Create(ctx, &obs)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return *created, nil
}
