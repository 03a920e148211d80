package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ridgeline-health/medadherence/internal/domain"
	"github.com/ridgeline-health/medadherence/internal/logging"
)

// OrchestratorParams bundles the tunable thresholds the orchestrator needs
// that are not already captured by its collaborators, mirroring the
// measure-level configuration a caller supplies at startup.
type OrchestratorParams struct {
	HEDISYear              int
	DefaultDaysSupply      int
	GapDaysAllowedRatio    float64
	NewPatientWindowDays   int
	Q4TighteningWindowDays int
}

// patientOrchestrator is the default PatientOrchestrator, wiring C1-C7
// together into the per-patient pipeline and a bounded-concurrency batch
// runner over it.
type patientOrchestrator struct {
	dispenses  DispenseStore
	classifier MeasureClassifier
	extractor  FillExtractor
	calculator PDCCalculator
	forecaster RefillForecaster
	fragility  FragilityEngine
	writer     ObservationWriter
	patients   PatientRepository
	params     OrchestratorParams
}

// NewPatientOrchestrator wires the full pipeline. The caller supplies the
// current date explicitly to RunPatient/RunBatch, so calculations stay
// deterministic under test.
func NewPatientOrchestrator(
	dispenses DispenseStore,
	classifier MeasureClassifier,
	extractor FillExtractor,
	calculator PDCCalculator,
	forecaster RefillForecaster,
	fragility FragilityEngine,
	writer ObservationWriter,
	patients PatientRepository,
	params OrchestratorParams,
) PatientOrchestrator {
	return &patientOrchestrator{
		dispenses:  dispenses,
		classifier: classifier,
		extractor:  extractor,
		calculator: calculator,
		forecaster: forecaster,
		fragility:  fragility,
		writer:     writer,
		patients:   patients,
		params:     params,
	}
}

// RunPatient executes the full pipeline for one patient: fetch, extract,
// classify, compute PDC and fragility per measure and per drug, write
// observations, and assemble the patient summary. A failure in one measure
// or one drug is recorded in MeasureErrors and does not abort the rest of
// the patient.
func (o *patientOrchestrator) RunPatient(ctx context.Context, patientID string, asOf time.Time) (PatientRunResult, error) {
	result := PatientRunResult{
		PatientID:     patientID,
		MeasureErrors: make(map[domain.Measure]error),
	}

	year := o.params.HEDISYear
	if year == 0 {
		year = asOf.Year()
	}
	period := domain.NewMeasurementYear(year)

	dispenses, err := o.dispenses.GetDispenses(ctx, patientID, period)
	if err != nil {
		if logger := logging.ServiceLogger(); logger != nil {
			logger.Warn("dispense read failed",
				logging.WithOperation("run_patient"),
				logging.WithPatientID(patientID),
				logging.WithError(err))
		}
		return result, fmt.Errorf("%w: %v", domain.ErrStoreRead, err)
	}

	fills, _ := o.extractor.Extract(dispenses)
	byMeasure := o.groupByMeasure(fills, dispenses, year)
	if len(byMeasure) == 0 {
		return result, domain.ErrNoQualifyingDispenses
	}

	measureCount := len(byMeasure)
	worstTier := domain.TierCompliant
	minDaysUntilRunout := 0
	haveMinRunout := false
	topPriorityScore := 0
	var enrolled []domain.Measure

	for _, measure := range sortedMeasureKeys(byMeasure) {
		measureFills := byMeasure[measure]
		ipsd := earliestFillDate(measureFills)
		measurePeriod := period.WithStart(ipsd)

		pdcResult := o.calculator.Calculate(measureFills, measurePeriod, asOf, measure, o.params.GapDaysAllowedRatio)
		forecast := o.forecaster.Forecast(measureFills, measurePeriod, asOf, o.params.DefaultDaysSupply)
		isNew := isNewPatient(measureFills, asOf, o.params.NewPatientWindowDays)
		fragilityResult := o.fragility.Classify(pdcResult, forecast, asOf, isNew, measureCount, o.params.Q4TighteningWindowDays)

		measureObs, err := o.writer.WriteMeasureObservation(ctx, patientID, measure, pdcResult, fragilityResult, asOf)
		if err != nil {
			result.MeasureErrors[measure] = err
			continue
		}
		result.Observations = append(result.Observations, measureObs)
		enrolled = append(enrolled, measure)

		if fragilityResult.Tier.MoreSevereThan(worstTier) {
			worstTier = fragilityResult.Tier
		}
		if !haveMinRunout || pdcResult.DaysUntilRunout < minDaysUntilRunout {
			minDaysUntilRunout = pdcResult.DaysUntilRunout
			haveMinRunout = true
		}
		if fragilityResult.PriorityScore > topPriorityScore {
			topPriorityScore = fragilityResult.PriorityScore
		}

		byDrug := groupByDrug(measureFills)
		for _, rxnorm := range sortedDrugKeys(byDrug) {
			drugFills := byDrug[rxnorm]
			drugIPSD := earliestFillDate(drugFills)
			drugPeriod := period.WithStart(drugIPSD)

			drugResult := o.calculator.Calculate(drugFills, drugPeriod, asOf, measure, o.params.GapDaysAllowedRatio)
			drugForecast := o.forecaster.Forecast(drugFills, drugPeriod, asOf, o.params.DefaultDaysSupply)
			drugIsNew := isNewPatient(drugFills, asOf, o.params.NewPatientWindowDays)
			drugFragility := o.fragility.Classify(drugResult, drugForecast, asOf, drugIsNew, measureCount, o.params.Q4TighteningWindowDays)

			display := medicationDisplayFor(dispenses, rxnorm)
			drugObs, err := o.writer.WriteMedicationObservation(ctx, measureObs.ID, patientID, measure, rxnorm, display, drugResult, drugFragility, asOf)
			if err != nil {
				result.MeasureErrors[measure] = err
				continue
			}
			result.Observations = append(result.Observations, drugObs)
			if drugFragility.PriorityScore > topPriorityScore {
				topPriorityScore = drugFragility.PriorityScore
			}
		}
	}

	result.Summary = domain.PatientSummary{
		PatientID:          patientID,
		WorstTier:          worstTier,
		MinDaysUntilRunout: minDaysUntilRunout,
		EnrolledMeasures:   enrolled,
		TopPriorityScore:   topPriorityScore,
		CalculatedAt:       asOf,
	}

	if o.patients != nil {
		if _, err := o.patients.UpsertSummary(ctx, &result.Summary); err != nil {
			result.SummaryError = fmt.Errorf("%w: %v", domain.ErrSummaryUpdate, err)
		}
	}

	return result, nil
}

// RunBatch runs RunPatient over every patient id with bounded concurrency,
// reporting progress and accumulating per-patient failures without
// aborting the batch.
func (o *patientOrchestrator) RunBatch(ctx context.Context, patientIDs []string, asOf time.Time, opts BatchOptions) BatchRunResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	total := len(patientIDs)
	results := make([]PatientRunResult, total)
	errs := make([]error, total)

	runLogger := logging.NewBatchRunLogger(uuid.NewString())
	batchStart := time.Now()

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var completed int32
	var mu sync.Mutex

	for i, patientID := range patientIDs {
		select {
		case <-ctx.Done():
			mu.Lock()
			errs[i] = ctx.Err()
			mu.Unlock()
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			done := runLogger.StartPatient(id)
			res, err := o.RunPatient(ctx, id, asOf)
			done(err)

			mu.Lock()
			results[idx] = res
			errs[idx] = err
			completed++
			if opts.OnProgress != nil {
				opts.OnProgress(int(completed), total)
			}
			mu.Unlock()
		}(i, patientID)
	}
	wg.Wait()

	batch := BatchRunResult{
		Results:       results,
		PatientErrors: make(map[string]error),
	}
	for i, err := range errs {
		if err != nil {
			batch.PatientErrors[patientIDs[i]] = err
		}
	}
	runLogger.Summary(total, len(batch.PatientErrors), time.Since(batchStart))
	return batch
}

// groupByMeasure classifies each fill by its parent dispense's rxnorm code
// and buckets it into every measure it qualifies for. A fill with no
// measure match is dropped from MA calculations entirely.
func (o *patientOrchestrator) groupByMeasure(fills []domain.Fill, dispenses []domain.Dispense, year int) map[domain.Measure][]domain.Fill {
	byMeasure := make(map[domain.Measure][]domain.Fill)
	for _, fill := range fills {
		for _, measure := range o.classifier.Classify(fill.RxnormCode, year) {
			byMeasure[measure] = append(byMeasure[measure], fill)
		}
	}
	return byMeasure
}

// groupByDrug buckets fills within a measure by rxnorm code, the
// drug-granularity fan-out step 3(e) in the pipeline.
func groupByDrug(fills []domain.Fill) map[string][]domain.Fill {
	byDrug := make(map[string][]domain.Fill)
	for _, fill := range fills {
		byDrug[fill.RxnormCode] = append(byDrug[fill.RxnormCode], fill)
	}
	return byDrug
}

// earliestFillDate returns the IPSD for a fill set: the earliest fill date.
// Callers only invoke this on non-empty slices.
func earliestFillDate(fills []domain.Fill) time.Time {
	sorted := domain.SortFillsByDate(fills)
	return sorted[0].FillDate
}

// isNewPatient applies the 90-day (configurable) definition: the patient's
// first fill in this set falls within windowDays of asOf.
func isNewPatient(fills []domain.Fill, asOf time.Time, windowDays int) bool {
	if len(fills) == 0 {
		return false
	}
	first := earliestFillDate(fills)
	return daysBetween(first, asOf) <= windowDays
}

// medicationDisplayFor looks up the display name for a drug from the raw
// dispense list, since Fill itself does not carry it.
func medicationDisplayFor(dispenses []domain.Dispense, rxnormCode string) string {
	for _, d := range dispenses {
		if d.RxnormCode == rxnormCode && d.MedicationDisplay != "" {
			return d.MedicationDisplay
		}
	}
	return ""
}

// sortedMeasureKeys returns byMeasure's keys in a fixed, deterministic order
// so batch output ordering does not depend on map iteration.
func sortedMeasureKeys(byMeasure map[domain.Measure][]domain.Fill) []domain.Measure {
	keys := make([]domain.Measure, 0, len(byMeasure))
	for k := range byMeasure {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// sortedDrugKeys returns byDrug's keys in deterministic order.
func sortedDrugKeys(byDrug map[string][]domain.Fill) []string {
	keys := make([]string, 0, len(byDrug))
	for k := range byDrug {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
