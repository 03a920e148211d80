package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

func sampleSummary(patientID string, tier domain.Tier, minDaysUntilRunout int) domain.PatientSummary {
	return domain.PatientSummary{
		PatientID:          patientID,
		WorstTier:          tier,
		MinDaysUntilRunout: minDaysUntilRunout,
		EnrolledMeasures:   []domain.Measure{domain.MeasureMAC},
		TopPriorityScore:   50,
		CalculatedAt:       time.Date(2026, time.November, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestPatientRepository_UpsertSummary_CreatesNewRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	summary := sampleSummary("maria", domain.TierCompliant, 45)

	result, err := repo.UpsertSummary(ctx, &summary)

	require.NoError(t, err)
	assert.Equal(t, "maria", result.PatientID)
	assert.Equal(t, domain.TierCompliant, result.WorstTier)
}

func TestPatientRepository_UpsertSummary_OverwritesExistingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	first := sampleSummary("robert", domain.TierF3Moderate, 20)
	_, err := repo.UpsertSummary(ctx, &first)
	require.NoError(t, err)

	second := sampleSummary("robert", domain.TierUnsalvageable, -40)
	_, err = repo.UpsertSummary(ctx, &second)
	require.NoError(t, err)

	stored, err := repo.GetSummary(ctx, "robert")
	require.NoError(t, err)
	assert.Equal(t, domain.TierUnsalvageable, stored.WorstTier)
	assert.Equal(t, -40, stored.MinDaysUntilRunout)
}

func TestPatientRepository_GetSummary_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	_, err := repo.GetSummary(ctx, "does-not-exist")

	assert.Error(t, err)
}

func TestPatientRepository_ListWorstTierFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	compliant := sampleSummary("maria", domain.TierCompliant, 90)
	fragile := sampleSummary("sarah", domain.TierF2Fragile, 3)
	unsalvageable := sampleSummary("robert", domain.TierUnsalvageable, -30)

	for _, s := range []domain.PatientSummary{compliant, fragile, unsalvageable} {
		s := s
		_, err := repo.UpsertSummary(ctx, &s)
		require.NoError(t, err)
	}

	worklist, err := repo.ListWorstTierFirst(ctx, 10)

	require.NoError(t, err)
	require.Len(t, worklist, 3)
	assert.Equal(t, "robert", worklist[0].PatientID)
	assert.Equal(t, "sarah", worklist[1].PatientID)
	assert.Equal(t, "maria", worklist[2].PatientID)
}

func TestPatientRepository_ListWorstTierFirst_RespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	for i, tier := range []domain.Tier{domain.TierCompliant, domain.TierF2Fragile, domain.TierUnsalvageable} {
		s := sampleSummary(string(rune('a'+i)), tier, i)
		_, err := repo.UpsertSummary(ctx, &s)
		require.NoError(t, err)
	}

	worklist, err := repo.ListWorstTierFirst(ctx, 1)

	require.NoError(t, err)
	assert.Len(t, worklist, 1)
	assert.Equal(t, domain.TierUnsalvageable, worklist[0].WorstTier)
}
