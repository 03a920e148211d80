package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

type fakeDispenseStore struct {
	byPatient map[string][]domain.Dispense
	errFor    map[string]error
}

func newFakeDispenseStore() *fakeDispenseStore {
	return &fakeDispenseStore{byPatient: make(map[string][]domain.Dispense), errFor: make(map[string]error)}
}

func (s *fakeDispenseStore) GetDispenses(ctx context.Context, patientID string, period domain.MeasurementPeriod) ([]domain.Dispense, error) {
	if err, ok := s.errFor[patientID]; ok {
		return nil, err
	}
	return s.byPatient[patientID], nil
}

type fakePatientRepo struct {
	mu        sync.Mutex
	summaries map[string]domain.PatientSummary
	upsertErr error
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{summaries: make(map[string]domain.PatientSummary)}
}

func (r *fakePatientRepo) UpsertSummary(ctx context.Context, summary *domain.PatientSummary) (*domain.PatientSummary, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[summary.PatientID] = *summary
	return summary, nil
}

func (r *fakePatientRepo) GetSummary(ctx context.Context, patientID string) (*domain.PatientSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[patientID]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	return &s, nil
}

func (r *fakePatientRepo) ListWorstTierFirst(ctx context.Context, limit int) ([]domain.PatientSummary, error) {
	return nil, nil
}

func newTestOrchestrator(dispenses DispenseStore, patients PatientRepository, obsRepo ObservationRepository) PatientOrchestrator {
	return NewPatientOrchestrator(
		dispenses,
		NewMeasureClassifier(),
		NewFillExtractor(),
		NewPDCCalculator(NewIntervalMerger()),
		NewRefillForecaster(),
		NewFragilityEngine(),
		NewObservationWriter(obsRepo),
		patients,
		OrchestratorParams{
			HEDISYear:              2026,
			DefaultDaysSupply:      30,
			GapDaysAllowedRatio:    0.2,
			NewPatientWindowDays:   90,
			Q4TighteningWindowDays: 60,
		},
	)
}

func TestPatientOrchestrator_RunPatient_CompliantPatient(t *testing.T) {
	dispenses := newFakeDispenseStore()
	dispenses.byPatient["maria"] = []domain.Dispense{
		{PatientID: "maria", WhenHandedOver: tp(mustDate(2026, time.January, 1)), DaysSupply: ip(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
		{PatientID: "maria", WhenHandedOver: tp(mustDate(2026, time.March, 30)), DaysSupply: ip(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
		{PatientID: "maria", WhenHandedOver: tp(mustDate(2026, time.June, 26)), DaysSupply: ip(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
		{PatientID: "maria", WhenHandedOver: tp(mustDate(2026, time.September, 22)), DaysSupply: ip(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
	}
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	result, err := orchestrator.RunPatient(context.Background(), "maria", mustDate(2026, time.November, 15))

	require.NoError(t, err)
	assert.Equal(t, domain.TierCompliant, result.Summary.WorstTier)
	assert.Contains(t, result.Summary.EnrolledMeasures, domain.MeasureMAC)
	assert.Empty(t, result.MeasureErrors)
	assert.NotEmpty(t, result.Observations)
	// one measure-level + one drug-level observation
	assert.Len(t, result.Observations, 2)
	assert.Equal(t, "maria", patients.summaries["maria"].PatientID)
}

func TestPatientOrchestrator_RunPatient_MultipleMeasuresTracksWorstTier(t *testing.T) {
	dispenses := newFakeDispenseStore()
	dispenses.byPatient["sarah"] = []domain.Dispense{
		{PatientID: "sarah", WhenHandedOver: tp(mustDate(2026, time.January, 1)), DaysSupply: ip(30), RxnormCode: "83367", MedicationDisplay: "rosuvastatin 10mg"},
		{PatientID: "sarah", WhenHandedOver: tp(mustDate(2026, time.February, 2)), DaysSupply: ip(30), RxnormCode: "83367", MedicationDisplay: "rosuvastatin 10mg"},
		{PatientID: "sarah", WhenHandedOver: tp(mustDate(2026, time.October, 19)), DaysSupply: ip(30), RxnormCode: "18867", MedicationDisplay: "losartan 50mg"},
	}
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	result, err := orchestrator.RunPatient(context.Background(), "sarah", mustDate(2026, time.November, 15))

	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Measure{domain.MeasureMAC, domain.MeasureMAH}, result.Summary.EnrolledMeasures)
	// worst across both measures should not be COMPLIANT given how stale the statin fills are
	assert.NotEqual(t, domain.TierCompliant, result.Summary.WorstTier)
}

func TestPatientOrchestrator_RunPatient_NoQualifyingDispenses(t *testing.T) {
	dispenses := newFakeDispenseStore()
	dispenses.byPatient["unknown"] = []domain.Dispense{
		{PatientID: "unknown", WhenHandedOver: tp(mustDate(2026, time.January, 1)), DaysSupply: ip(30), RxnormCode: "999999"},
	}
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	_, err := orchestrator.RunPatient(context.Background(), "unknown", mustDate(2026, time.November, 15))

	assert.ErrorIs(t, err, domain.ErrNoQualifyingDispenses)
}

func TestPatientOrchestrator_RunPatient_StoreReadFailure(t *testing.T) {
	dispenses := newFakeDispenseStore()
	dispenses.errFor["robert"] = errors.New("backend unavailable")
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	_, err := orchestrator.RunPatient(context.Background(), "robert", mustDate(2026, time.November, 15))

	assert.ErrorIs(t, err, domain.ErrStoreRead)
}

func TestPatientOrchestrator_RunPatient_ObservationWriteFailureIsPerMeasure(t *testing.T) {
	dispenses := newFakeDispenseStore()
	dispenses.byPatient["maria"] = []domain.Dispense{
		{PatientID: "maria", WhenHandedOver: tp(mustDate(2026, time.January, 1)), DaysSupply: ip(90), RxnormCode: "83367"},
	}
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{createErr: errors.New("write failed")}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	result, err := orchestrator.RunPatient(context.Background(), "maria", mustDate(2026, time.November, 15))

	require.NoError(t, err)
	assert.Contains(t, result.MeasureErrors, domain.MeasureMAC)
	assert.Empty(t, result.Observations)
}

func TestPatientOrchestrator_RunBatch_FanOutWithPartialFailure(t *testing.T) {
	dispenses := newFakeDispenseStore()
	dispenses.byPatient["maria"] = []domain.Dispense{
		{PatientID: "maria", WhenHandedOver: tp(mustDate(2026, time.January, 1)), DaysSupply: ip(90), RxnormCode: "83367"},
	}
	dispenses.errFor["robert"] = errors.New("backend unavailable")
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	var progressCalls int
	var mu sync.Mutex
	batch := orchestrator.RunBatch(context.Background(), []string{"maria", "robert"}, mustDate(2026, time.November, 15), BatchOptions{
		Concurrency: 2,
		OnProgress: func(completed, total int) {
			mu.Lock()
			progressCalls++
			mu.Unlock()
		},
	})

	assert.Len(t, batch.Results, 2)
	assert.Contains(t, batch.PatientErrors, "robert")
	assert.NotContains(t, batch.PatientErrors, "maria")
	assert.Equal(t, 2, progressCalls)
}

func TestPatientOrchestrator_RunBatch_EmptyPatientList(t *testing.T) {
	dispenses := newFakeDispenseStore()
	patients := newFakePatientRepo()
	obsRepo := &fakeObservationRepo{}
	orchestrator := newTestOrchestrator(dispenses, patients, obsRepo)

	batch := orchestrator.RunBatch(context.Background(), nil, mustDate(2026, time.November, 15), BatchOptions{})

	assert.Empty(t, batch.Results)
	assert.Empty(t, batch.PatientErrors)
}
