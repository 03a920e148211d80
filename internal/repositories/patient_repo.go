package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ridgeline-health/medadherence/internal/domain"
	"github.com/ridgeline-health/medadherence/internal/logging"
	"github.com/ridgeline-health/medadherence/internal/models"
	"github.com/ridgeline-health/medadherence/internal/services"
)

// patientRepository implements services.PatientRepository over GORM. Unlike
// the observation log, a patient summary is rewritten in place on every
// orchestrator run.
type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository returns a PatientRepository backed by db.
func NewPatientRepository(db *gorm.DB) services.PatientRepository {
	return &patientRepository{db: db}
}

// UpsertSummary creates or overwrites the summary row for a patient.
func (r *patientRepository) UpsertSummary(ctx context.Context, summary *domain.PatientSummary) (*domain.PatientSummary, error) {
	model := &models.PatientSummaryModel{}
	model.FromDomain(summary)

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "patient_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"worst_tier", "min_days_until_runout", "enrolled_measures", "top_priority_score", "calculated_at", "updated_at"}),
		}).
		Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert patient summary for %s: %w", summary.PatientID, err)
	}

	if logger := logging.RepositoryLogger(); logger != nil {
		logger.Debug("patient summary upserted",
			logging.WithTable("patient_summaries"),
			logging.WithPatientID(summary.PatientID))
	}

	return model.ToDomain(), nil
}

// GetSummary retrieves the current summary row for a patient.
func (r *patientRepository) GetSummary(ctx context.Context, patientID string) (*domain.PatientSummary, error) {
	var model models.PatientSummaryModel
	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("patient %s: %w", patientID, services.ErrPatientSummaryNotFound)
		}
		return nil, fmt.Errorf("failed to get patient summary: %w", err)
	}
	return model.ToDomain(), nil
}

// ListWorstTierFirst returns the limit most urgent patient summaries,
// sorted by tier severity, then soonest runout, then top priority score as a
// final tie-break. Tier severity is encoded as a fixed CASE ordering so the
// worklist can be rendered by a single query rather than a full in-memory
// sort.
func (r *patientRepository) ListWorstTierFirst(ctx context.Context, limit int) ([]domain.PatientSummary, error) {
	var rows []models.PatientSummaryModel
	query := r.db.WithContext(ctx).
		Order(`CASE worst_tier
			WHEN 'T5_UNSALVAGEABLE' THEN 0
			WHEN 'F1_IMMINENT' THEN 1
			WHEN 'F2_FRAGILE' THEN 2
			WHEN 'F3_MODERATE' THEN 3
			WHEN 'F4_COMFORTABLE' THEN 4
			WHEN 'F5_SAFE' THEN 5
			ELSE 6
		END, min_days_until_runout ASC, top_priority_score DESC`)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list patient summaries: %w", err)
	}

	if logger := logging.RepositoryLogger(); logger != nil {
		logger.Debug("patient summaries listed",
			logging.WithTable("patient_summaries"),
			logging.WithQuery("worst_tier_first"),
			logging.WithRowsAffected(int64(len(rows))))
	}

	out := make([]domain.PatientSummary, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}
