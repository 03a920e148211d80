package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ridgeline-health/medadherence/internal/config"
	"github.com/ridgeline-health/medadherence/internal/domain"
	"github.com/ridgeline-health/medadherence/internal/logging"
	"github.com/ridgeline-health/medadherence/internal/models"
	"github.com/ridgeline-health/medadherence/internal/repositories"
	"github.com/ridgeline-health/medadherence/internal/services"
)

// day is a small helper for building synthetic fill dates relative to a
// fixed run date, the way a demo data generator would.
func day(base time.Time, offset int) *time.Time {
	t := base.AddDate(0, 0, offset)
	return &t
}

func supply(days int) *int {
	return &days
}

// seedSyntheticPatients loads a handful of illustrative patients into the
// in-memory dispense store. Maria refills a 90-day statin every 88 days and
// classifies COMPLIANT. James (one recent 30-day fill), Robert (one 30-day
// fill at the start of the year) and Sarah (two early statin fills plus one
// recent antihypertensive fill) all classify T5_UNSALVAGEABLE as of the
// mid-November run date: every uncovered day from the first fill through
// December 31 counts as a used gap day, and for each of them that exceeds
// the allowed gap budget.
func seedSyntheticPatients(store *repositories.MemoryDispenseStore, asOf time.Time) []string {
	yearStart := time.Date(asOf.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	store.Seed("maria", []domain.Dispense{
		{PatientID: "maria", WhenHandedOver: day(yearStart, 0), DaysSupply: supply(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
		{PatientID: "maria", WhenHandedOver: day(yearStart, 88), DaysSupply: supply(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
		{PatientID: "maria", WhenHandedOver: day(yearStart, 176), DaysSupply: supply(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
		{PatientID: "maria", WhenHandedOver: day(yearStart, 264), DaysSupply: supply(90), RxnormCode: "83367", MedicationDisplay: "atorvastatin 20mg"},
	})

	store.Seed("james", []domain.Dispense{
		{PatientID: "james", WhenHandedOver: day(asOf, -20), DaysSupply: supply(30), RxnormCode: "6809", MedicationDisplay: "metformin 500mg"},
	})

	store.Seed("robert", []domain.Dispense{
		{PatientID: "robert", WhenHandedOver: day(yearStart, 0), DaysSupply: supply(30), RxnormCode: "18867", MedicationDisplay: "lisinopril 10mg"},
	})

	store.Seed("sarah", []domain.Dispense{
		{PatientID: "sarah", WhenHandedOver: day(yearStart, 0), DaysSupply: supply(30), RxnormCode: "83367", MedicationDisplay: "rosuvastatin 10mg"},
		{PatientID: "sarah", WhenHandedOver: day(yearStart, 32), DaysSupply: supply(30), RxnormCode: "83367", MedicationDisplay: "rosuvastatin 10mg"},
		{PatientID: "sarah", WhenHandedOver: day(asOf, -27), DaysSupply: supply(30), RxnormCode: "18867", MedicationDisplay: "losartan 50mg"},
	})

	return []string{"maria", "james", "robert", "sarah"}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	if err := logging.InitLogger(logging.LogConfig{
		Environment: cfg.Logging.Environment,
		Level:       cfg.Logging.Level,
	}); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logger := logging.GetLogger()
	defer logging.Sync()

	logger.Info("configuration loaded",
		logging.WithComponent("main"),
		zap.String("environment", cfg.Orchestrator.Environment),
		zap.Int("hedis_year", cfg.Measure.HEDISYear))

	db, err := gorm.Open(sqlite.Open(":memory:"), config.GetGormConfig(cfg.Orchestrator.Environment))
	if err != nil {
		logger.Fatal("failed to open demo database", logging.WithError(err))
	}
	if err := db.AutoMigrate(&models.ObservationModel{}, &models.PatientSummaryModel{}); err != nil {
		logger.Fatal("failed to migrate demo schema", logging.WithError(err))
	}

	dispenses := repositories.NewMemoryDispenseStore()
	observations := repositories.NewObservationRepository(db)
	patients := repositories.NewPatientRepository(db)

	classifier := services.NewMeasureClassifier()
	extractor := services.NewFillExtractor()
	merger := services.NewIntervalMerger()
	calculator := services.NewPDCCalculator(merger)
	forecaster := services.NewRefillForecaster()
	fragility := services.NewFragilityEngine()
	writer := services.NewObservationWriter(observations)

	orchestrator := services.NewPatientOrchestrator(
		dispenses, classifier, extractor, calculator, forecaster, fragility, writer, patients,
		services.OrchestratorParams{
			HEDISYear:              cfg.Measure.HEDISYear,
			DefaultDaysSupply:      cfg.Measure.DefaultDaysSupply,
			GapDaysAllowedRatio:    cfg.Measure.GapDaysAllowedRatio,
			NewPatientWindowDays:   cfg.Measure.NewPatientWindowDays,
			Q4TighteningWindowDays: cfg.Measure.Q4TighteningWindowDays,
		},
	)

	asOf := time.Date(cfg.Measure.HEDISYear, time.November, 15, 0, 0, 0, 0, time.UTC)
	patientIDs := seedSyntheticPatients(dispenses, asOf)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batchLogCfg := config.GetBatchLogConfig(cfg.Orchestrator.Environment)
	batch := orchestrator.RunBatch(ctx, patientIDs, asOf, services.BatchOptions{
		Concurrency: cfg.Orchestrator.BatchConcurrency,
		OnProgress: func(completed, total int) {
			if completed%batchLogCfg.LogEveryNPatients != 0 && completed != total {
				return
			}
			logger.Info("batch progress", zap.Int("completed", completed), zap.Int("total", total))
		},
	})

	for i, patientID := range patientIDs {
		result := batch.Results[i]
		if err := batch.PatientErrors[patientID]; err != nil {
			fmt.Printf("%-8s error: %v\n", patientID, err)
			continue
		}
		fmt.Printf("%-8s worst_tier=%-18s min_days_until_runout=%-5d measures=%v\n",
			patientID, result.Summary.WorstTier, result.Summary.MinDaysUntilRunout, result.Summary.EnrolledMeasures)
	}

	worklist, err := patients.ListWorstTierFirst(ctx, 10)
	if err != nil {
		logger.Fatal("failed to list worklist", logging.WithError(err))
	}
	fmt.Println("\nworklist (most urgent first):")
	for _, summary := range worklist {
		fmt.Printf("  %-8s %s\n", summary.PatientID, summary.WorstTier)
	}
}
