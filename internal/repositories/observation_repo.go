package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ridgeline-health/medadherence/internal/domain"
	"github.com/ridgeline-health/medadherence/internal/logging"
	"github.com/ridgeline-health/medadherence/internal/models"
	"github.com/ridgeline-health/medadherence/internal/services"
)

// observationRepository implements services.ObservationRepository over
// GORM. Rows are append-only: no Update method is exposed.
type observationRepository struct {
	db *gorm.DB
}

// NewObservationRepository returns an ObservationRepository backed by db.
func NewObservationRepository(db *gorm.DB) services.ObservationRepository {
	return &observationRepository{db: db}
}

// Create persists a new observation row. Observations are never updated in
// place; a recomputation is always a fresh Create with a later EffectiveAt.
func (r *observationRepository) Create(ctx context.Context, observation *domain.Observation) (*domain.Observation, error) {
	model := &models.ObservationModel{}
	model.FromDomain(observation)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("observation %s already exists: unique constraint violation", observation.ID)
		}
		return nil, fmt.Errorf("failed to create observation: %w", err)
	}

	if logger := logging.RepositoryLogger(); logger != nil {
		logger.Debug("observation created",
			logging.WithTable("observations"),
			logging.WithPatientID(observation.PatientID),
			logging.WithMeasure(string(observation.Measure)))
	}

	return model.ToDomain(), nil
}

// GetByID retrieves a single observation by its external id.
func (r *observationRepository) GetByID(ctx context.Context, id string) (*domain.Observation, error) {
	var model models.ObservationModel
	if err := r.db.WithContext(ctx).Where("observation_id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("observation %s: %w", id, services.ErrObservationNotFound)
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return model.ToDomain(), nil
}

// GetLatestByPatientAndMeasure returns the current observation for a
// (patient, measure) pair: the one with the greatest effective timestamp,
// restricted to measure-level rows (no parent observation id).
func (r *observationRepository) GetLatestByPatientAndMeasure(ctx context.Context, patientID string, measure domain.Measure) (*domain.Observation, error) {
	var model models.ObservationModel
	if err := r.db.WithContext(ctx).
		Where("patient_id = ? AND measure = ? AND parent_observation_id IS NULL", patientID, string(measure)).
		Order("effective_at DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("patient %s measure %s: %w", patientID, measure, services.ErrObservationNotFound)
		}
		return nil, fmt.Errorf("failed to get latest observation: %w", err)
	}
	return model.ToDomain(), nil
}

// GetByPatientID returns every observation (measure- and medication-level)
// ever written for a patient, ordered oldest first.
func (r *observationRepository) GetByPatientID(ctx context.Context, patientID string) ([]domain.Observation, error) {
	var rows []models.ObservationModel
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("effective_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list observations for patient %s: %w", patientID, err)
	}
	return toDomainObservations(rows), nil
}

// GetChildren returns the medication-level observations linked to a
// measure-level observation.
func (r *observationRepository) GetChildren(ctx context.Context, parentObservationID string) ([]domain.Observation, error) {
	var rows []models.ObservationModel
	if err := r.db.WithContext(ctx).
		Where("parent_observation_id = ?", parentObservationID).
		Order("effective_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list children of observation %s: %w", parentObservationID, err)
	}
	return toDomainObservations(rows), nil
}

func toDomainObservations(rows []models.ObservationModel) []domain.Observation {
	out := make([]domain.Observation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
