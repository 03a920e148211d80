package models

import (
	"strings"
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
	"gorm.io/gorm"
)

// PatientSummaryModel is the rewritten-on-every-run patient-level rollup,
// one row per patient, kept distinct from the append-only observation log.
type PatientSummaryModel struct {
	gorm.Model

	PatientID          string `gorm:"not null;uniqueIndex;size:64" json:"patient_id"`
	WorstTier          string `gorm:"size:20;index:idx_summary_worst_tier" json:"worst_tier"`
	MinDaysUntilRunout int    `gorm:"index:idx_summary_runout" json:"min_days_until_runout"`
	EnrolledMeasures   string `gorm:"size:32" json:"enrolled_measures"` // comma-joined measure codes
	TopPriorityScore   int    `json:"top_priority_score"`
	CalculatedAt       int64  `json:"calculated_at"`
}

// TableName overrides the table name used by PatientSummaryModel.
func (PatientSummaryModel) TableName() string {
	return "patient_summaries"
}

// ToDomain converts PatientSummaryModel to domain.PatientSummary.
func (m *PatientSummaryModel) ToDomain() *domain.PatientSummary {
	return &domain.PatientSummary{
		PatientID:          m.PatientID,
		WorstTier:          domain.Tier(m.WorstTier),
		MinDaysUntilRunout: m.MinDaysUntilRunout,
		EnrolledMeasures:   parseMeasures(m.EnrolledMeasures),
		TopPriorityScore:   m.TopPriorityScore,
		CalculatedAt:       time.Unix(m.CalculatedAt, 0).UTC(),
	}
}

// FromDomain populates a PatientSummaryModel from a domain.PatientSummary.
func (m *PatientSummaryModel) FromDomain(s *domain.PatientSummary) {
	m.PatientID = s.PatientID
	m.WorstTier = string(s.WorstTier)
	m.MinDaysUntilRunout = s.MinDaysUntilRunout
	m.EnrolledMeasures = joinMeasures(s.EnrolledMeasures)
	m.TopPriorityScore = s.TopPriorityScore
	m.CalculatedAt = s.CalculatedAt.Unix()
}

func joinMeasures(measures []domain.Measure) string {
	parts := make([]string, len(measures))
	for i, m := range measures {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}

func parseMeasures(joined string) []domain.Measure {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	measures := make([]domain.Measure, len(parts))
	for i, p := range parts {
		measures[i] = domain.Measure(p)
	}
	return measures
}
