package repositories

import (
	"context"
	"sync"

	"github.com/ridgeline-health/medadherence/internal/domain"
	"github.com/ridgeline-health/medadherence/internal/services"
)

// MemoryDispenseStore is an in-memory services.DispenseStore fake standing
// in for the clinical-record backend, which the core only ever consumes
// through the DispenseStore interface. Safe for concurrent use by the
// batch orchestrator.
type MemoryDispenseStore struct {
	mu        sync.RWMutex
	byPatient map[string][]domain.Dispense
}

// NewMemoryDispenseStore returns an empty MemoryDispenseStore.
func NewMemoryDispenseStore() *MemoryDispenseStore {
	return &MemoryDispenseStore{byPatient: make(map[string][]domain.Dispense)}
}

// Seed replaces the dispense list for a patient, for test and demo setup.
func (s *MemoryDispenseStore) Seed(patientID string, dispenses []domain.Dispense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPatient[patientID] = dispenses
}

// GetDispenses returns every dispense recorded for patientID whose fill
// date falls within period, preferring WhenHandedOver and falling back to
// WhenPrepared, matching the fill extractor's own date preference.
func (s *MemoryDispenseStore) GetDispenses(ctx context.Context, patientID string, period domain.MeasurementPeriod) ([]domain.Dispense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byPatient[patientID]
	out := make([]domain.Dispense, 0, len(all))
	for _, d := range all {
		fillDate := d.WhenHandedOver
		if fillDate == nil {
			fillDate = d.WhenPrepared
		}
		if fillDate == nil {
			continue
		}
		if fillDate.Before(period.Start) || fillDate.After(period.End) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

var _ services.DispenseStore = (*MemoryDispenseStore)(nil)
