package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ridgeline-health/medadherence/internal/models"
)

// RunObservationMigrations runs all observation-domain database migrations.
func RunObservationMigrations(db *gorm.DB) error {
	// ObservationModel must migrate before PatientSummaryModel references
	// its patient_id in queries, though the two tables have no FK between
	// them (summaries are rebuilt, observations are append-only).
	if err := db.AutoMigrate(
		&models.ObservationModel{},
		&models.PatientSummaryModel{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate observation models: %w", err)
	}

	if err := createObservationIndexes(db); err != nil {
		return fmt.Errorf("failed to create observation indexes: %w", err)
	}

	return nil
}

// createObservationIndexes creates composite indexes for the queries the
// orchestrator and worklist views run most often.
func createObservationIndexes(db *gorm.DB) error {
	if err := db.Exec("CREATE INDEX idx_observations_patient_measure_effective ON observations(patient_id, measure, effective_at DESC)").Error; err != nil && !isConstraintExistsError(err) {
		return fmt.Errorf("failed to create observations patient_measure_effective index: %w", err)
	}

	if err := db.Exec("CREATE INDEX idx_observations_parent ON observations(parent_observation_id)").Error; err != nil && !isConstraintExistsError(err) {
		return fmt.Errorf("failed to create observations parent index: %w", err)
	}

	if err := db.Exec("CREATE INDEX idx_observations_tier_runout ON observations(tier, days_until_runout)").Error; err != nil && !isConstraintExistsError(err) {
		return fmt.Errorf("failed to create observations tier_runout index: %w", err)
	}

	if err := db.Exec("CREATE INDEX idx_patient_summaries_tier_runout ON patient_summaries(worst_tier, min_days_until_runout ASC)").Error; err != nil && !isConstraintExistsError(err) {
		return fmt.Errorf("failed to create patient_summaries tier_runout index: %w", err)
	}

	return nil
}

// DropObservationTables drops the observation-domain tables, for test and
// demo cleanup between runs.
func DropObservationTables(db *gorm.DB) error {
	tables := []string{"observations", "patient_summaries"}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

// isConstraintExistsError checks if the error is due to a constraint that
// already exists, so migrations stay idempotent across repeated runs.
func isConstraintExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return contains(errStr, "Duplicate key name") ||
		contains(errStr, "already exists") ||
		contains(errStr, "Duplicate entry") ||
		contains(errStr, "Duplicate check constraint name")
}

// contains checks if a string contains a substring.
func contains(s, substr string) bool {
	return len(s) >= len(substr) &&
		(s == substr ||
			len(s) > len(substr) &&
				(stringContains(s, substr)))
}

func stringContains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
