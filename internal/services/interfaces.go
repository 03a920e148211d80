package services

import (
	"context"
	"errors"
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// Common errors
var (
	ErrObservationNotFound    = errors.New("observation not found")
	ErrPatientSummaryNotFound = errors.New("patient summary not found")
)

// MeasureClassifier assigns a dispense to zero or more HEDIS measures based
// on its RxNorm code and a year-scoped code set.
type MeasureClassifier interface {
	Classify(rxnormCode string, year int) []domain.Measure
	CodeSetVersion(measure domain.Measure, year int) string
}

// FillExtractor normalizes raw dispense records into validated Fills,
// dropping any dispense that fails validation.
type FillExtractor interface {
	Extract(dispenses []domain.Dispense) (fills []domain.Fill, dropped int)
}

// IntervalMerger merges a fill's coverage intervals over a measurement
// period and reports covered/treatment/gap day counts.
type IntervalMerger interface {
	Merge(fills []domain.Fill, period domain.MeasurementPeriod) MergeResult
}

// MergeResult is the interval-accounting output of the merger (C3), the raw
// day counts the PDC calculator (C4) turns into a PDCResult.
type MergeResult struct {
	CoveredDays   int
	TreatmentDays int
	GapDaysUsed   int
}

// PDCCalculator computes the full PDC result, current-state ratio plus both
// forward projections, for one drug or measure.
type PDCCalculator interface {
	Calculate(fills []domain.Fill, period domain.MeasurementPeriod, asOf time.Time, measure domain.Measure, gapDaysAllowedRatio float64) domain.PDCResult
}

// RefillForecaster estimates supply-on-hand and refill cadence from a
// patient's fill history, feeding the delay-budget input to the fragility
// engine. period is the same MeasurementPeriod passed to PDCCalculator, so
// days-to-year-end agrees with PDCResult.DaysToYearEnd even when the
// measurement year differs from asOf's calendar year.
type RefillForecaster interface {
	Forecast(fills []domain.Fill, period domain.MeasurementPeriod, asOf time.Time, defaultDaysSupply int) RefillForecast
}

// RefillForecast is the output of the refill forecaster (C5).
type RefillForecast struct {
	CurrentSupplyDays      int
	EstimatedDaysPerRefill int
	RemainingRefillsNeeded int
	NextRefillDueBy        time.Time
}

// FragilityEngine classifies a PDCResult/RefillForecast pair into a tier and
// priority score, applying Q4 urgency tightening and composite bonuses.
type FragilityEngine interface {
	Classify(result domain.PDCResult, forecast RefillForecast, asOf time.Time, isNewPatient bool, measureCountForPatient int, q4TighteningWindowDays int) domain.FragilityResult
}

// ObservationWriter constructs and persists measure-level and
// medication-level observations for one patient/measure pass.
type ObservationWriter interface {
	WriteMeasureObservation(ctx context.Context, patientID string, measure domain.Measure, result domain.PDCResult, fragility domain.FragilityResult, effectiveAt time.Time) (domain.Observation, error)
	WriteMedicationObservation(ctx context.Context, parentObservationID string, patientID string, measure domain.Measure, rxnormCode, display string, result domain.PDCResult, fragility domain.FragilityResult, effectiveAt time.Time) (domain.Observation, error)
}

// PatientOrchestrator runs the full per-patient pipeline, classify, merge,
// calculate, forecast, classify tier, write observations, update the
// patient summary, and exposes a bounded-concurrency batch runner over many
// patients.
type PatientOrchestrator interface {
	RunPatient(ctx context.Context, patientID string, asOf time.Time) (PatientRunResult, error)
	RunBatch(ctx context.Context, patientIDs []string, asOf time.Time, opts BatchOptions) BatchRunResult
}

// PatientRunResult is the outcome of orchestrating one patient: the
// observations written and any per-measure errors that did not abort the
// patient as a whole.
type PatientRunResult struct {
	PatientID     string
	Observations  []domain.Observation
	Summary       domain.PatientSummary
	MeasureErrors map[domain.Measure]error
	SummaryError  error
}

// BatchOptions controls the orchestrator's batch runner.
type BatchOptions struct {
	Concurrency int
	OnProgress  func(completed, total int)
}

// BatchRunResult is the aggregated outcome of a batch run: every patient's
// result, plus patients that failed entirely (e.g. store read failure)
// keyed by patient id.
type BatchRunResult struct {
	Results       []PatientRunResult
	PatientErrors map[string]error
}

// Repository interfaces (for dependency injection)

// DispenseStore reads raw dispense records for a patient from the clinical
// record backend.
type DispenseStore interface {
	GetDispenses(ctx context.Context, patientID string, period domain.MeasurementPeriod) ([]domain.Dispense, error)
}

// ObservationRepository persists the append-only observation log.
type ObservationRepository interface {
	Create(ctx context.Context, observation *domain.Observation) (*domain.Observation, error)
	GetByID(ctx context.Context, id string) (*domain.Observation, error)
	GetLatestByPatientAndMeasure(ctx context.Context, patientID string, measure domain.Measure) (*domain.Observation, error)
	GetByPatientID(ctx context.Context, patientID string) ([]domain.Observation, error)
	GetChildren(ctx context.Context, parentObservationID string) ([]domain.Observation, error)
}

// PatientRepository persists the mutable patient-level summary rollup.
type PatientRepository interface {
	UpsertSummary(ctx context.Context, summary *domain.PatientSummary) (*domain.PatientSummary, error)
	GetSummary(ctx context.Context, patientID string) (*domain.PatientSummary, error)
	ListWorstTierFirst(ctx context.Context, limit int) ([]domain.PatientSummary, error)
}
