package models

import (
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
	"gorm.io/gorm"
)

// ObservationModel is the append-only persisted row for one measure-level
// or medication-level observation. Rows are never updated after creation;
// AfterUpdate is intentionally not implemented.
type ObservationModel struct {
	gorm.Model

	ObservationID       string  `gorm:"not null;uniqueIndex;size:36" json:"observation_id"`
	PatientID           string  `gorm:"not null;size:64;index:idx_patient_measure" json:"patient_id"`
	Measure             string  `gorm:"not null;size:8;index:idx_patient_measure;check:measure IN ('MAC','MAD','MAH')" json:"measure"`
	MedicationRxnorm    string  `gorm:"size:32;index:idx_medication_rxnorm" json:"medication_rxnorm"`
	MedicationDisplay   string  `gorm:"size:200" json:"medication_display"`
	ParentObservationID *string `gorm:"size:36;index:idx_parent_observation" json:"parent_observation_id"`
	EffectiveAt         int64   `gorm:"not null;index:idx_effective_at" json:"effective_at"`

	PDC float64 `gorm:"not null" json:"pdc"`

	CoveredDays      int     `json:"covered_days"`
	TreatmentDays    int     `json:"treatment_days"`
	GapDaysUsed      int     `json:"gap_days_used"`
	GapDaysAllowed   int     `json:"gap_days_allowed"`
	GapDaysRemaining int     `json:"gap_days_remaining"`
	PDCStatusQuo     float64 `json:"pdc_status_quo"`
	PDCPerfect       float64 `json:"pdc_perfect"`
	DaysUntilRunout  int     `json:"days_until_runout"`
	CurrentSupply    int     `json:"current_supply"`
	RefillsNeeded    int     `json:"refills_needed"`
	DaysToYearEnd    int     `json:"days_to_year_end"`
	LastFillDate     *int64  `json:"last_fill_date"`
	FillCount        int     `json:"fill_count"`
	PeriodStart      int64   `json:"period_start"`
	PeriodEnd        int64   `json:"period_end"`

	Tier            string `gorm:"size:20;index:idx_observation_tier" json:"tier"`
	DelayBudget     int    `json:"delay_budget"`
	PriorityScore   int    `json:"priority_score"`
	Urgency         string `gorm:"size:10" json:"urgency"`
	ContactWindow   string `gorm:"size:32" json:"contact_window"`
	Action          string `gorm:"size:64" json:"action"`
	BonusBase       int    `json:"bonus_base"`
	BonusOutOfMeds  int    `json:"bonus_out_of_meds"`
	BonusQ4         int    `json:"bonus_q4"`
	BonusMultipleMA int    `json:"bonus_multiple_ma"`
	BonusNewPatient int    `json:"bonus_new_patient"`
	IsCompliant     bool   `json:"is_compliant"`
	IsUnsalvageable bool   `json:"is_unsalvageable"`
	IsOutOfMeds     bool   `json:"is_out_of_meds"`
	IsQ4            bool   `json:"is_q4"`
	IsMultipleMA    bool   `json:"is_multiple_ma"`
	IsNewPatient    bool   `json:"is_new_patient"`
	Q4Tightened     bool   `json:"q4_tightened"`
}

// TableName overrides the table name used by ObservationModel.
func (ObservationModel) TableName() string {
	return "observations"
}

// ToDomain converts ObservationModel to domain.Observation.
func (m *ObservationModel) ToDomain() *domain.Observation {
	obs := &domain.Observation{
		ID:                  m.ObservationID,
		PatientID:           m.PatientID,
		Measure:             domain.Measure(m.Measure),
		MedicationRxnorm:    m.MedicationRxnorm,
		MedicationDisplay:   m.MedicationDisplay,
		ParentObservationID: m.ParentObservationID,
		EffectiveAt:         time.Unix(m.EffectiveAt, 0).UTC(),
		PDC:                 m.PDC,
		PDCResult: domain.PDCResult{
			Measure:           domain.Measure(m.Measure),
			PDC:               m.PDC * 100,
			CoveredDays:       m.CoveredDays,
			TreatmentDays:     m.TreatmentDays,
			GapDaysUsed:       m.GapDaysUsed,
			GapDaysAllowed:    m.GapDaysAllowed,
			GapDaysRemaining:  m.GapDaysRemaining,
			PDCStatusQuo:      m.PDCStatusQuo,
			PDCPerfect:        m.PDCPerfect,
			DaysUntilRunout:   m.DaysUntilRunout,
			CurrentSupply:     m.CurrentSupply,
			RefillsNeeded:     m.RefillsNeeded,
			DaysToYearEnd:     m.DaysToYearEnd,
			FillCount:         m.FillCount,
			MeasurementPeriod: domain.MeasurementPeriod{Start: time.Unix(m.PeriodStart, 0).UTC(), End: time.Unix(m.PeriodEnd, 0).UTC()},
		},
		Fragility: domain.FragilityResult{
			Tier:          domain.Tier(m.Tier),
			DelayBudget:   m.DelayBudget,
			PriorityScore: m.PriorityScore,
			Urgency:       domain.UrgencyLevel(m.Urgency),
			ContactWindow: m.ContactWindow,
			Action:        m.Action,
			Bonuses: domain.Bonuses{
				Base:       m.BonusBase,
				OutOfMeds:  m.BonusOutOfMeds,
				Q4:         m.BonusQ4,
				MultipleMA: m.BonusMultipleMA,
				NewPatient: m.BonusNewPatient,
			},
			Flags: domain.Flags{
				IsCompliant:     m.IsCompliant,
				IsUnsalvageable: m.IsUnsalvageable,
				IsOutOfMeds:     m.IsOutOfMeds,
				IsQ4:            m.IsQ4,
				IsMultipleMA:    m.IsMultipleMA,
				IsNewPatient:    m.IsNewPatient,
				Q4Tightened:     m.Q4Tightened,
			},
		},
	}
	obs.Fragility.TierLevel = obs.Fragility.Tier.Level()
	if m.LastFillDate != nil {
		t := time.Unix(*m.LastFillDate, 0).UTC()
		obs.PDCResult.LastFillDate = &t
	}
	return obs
}

// FromDomain populates an ObservationModel from a domain.Observation.
func (m *ObservationModel) FromDomain(o *domain.Observation) {
	m.ObservationID = o.ID
	m.PatientID = o.PatientID
	m.Measure = string(o.Measure)
	m.MedicationRxnorm = o.MedicationRxnorm
	m.MedicationDisplay = o.MedicationDisplay
	m.ParentObservationID = o.ParentObservationID
	m.EffectiveAt = o.EffectiveAt.Unix()

	m.PDC = o.PDC
	m.CoveredDays = o.PDCResult.CoveredDays
	m.TreatmentDays = o.PDCResult.TreatmentDays
	m.GapDaysUsed = o.PDCResult.GapDaysUsed
	m.GapDaysAllowed = o.PDCResult.GapDaysAllowed
	m.GapDaysRemaining = o.PDCResult.GapDaysRemaining
	m.PDCStatusQuo = o.PDCResult.PDCStatusQuo
	m.PDCPerfect = o.PDCResult.PDCPerfect
	m.DaysUntilRunout = o.PDCResult.DaysUntilRunout
	m.CurrentSupply = o.PDCResult.CurrentSupply
	m.RefillsNeeded = o.PDCResult.RefillsNeeded
	m.DaysToYearEnd = o.PDCResult.DaysToYearEnd
	if o.PDCResult.LastFillDate != nil {
		unix := o.PDCResult.LastFillDate.Unix()
		m.LastFillDate = &unix
	}
	m.FillCount = o.PDCResult.FillCount
	m.PeriodStart = o.PDCResult.MeasurementPeriod.Start.Unix()
	m.PeriodEnd = o.PDCResult.MeasurementPeriod.End.Unix()

	m.Tier = string(o.Fragility.Tier)
	m.DelayBudget = o.Fragility.DelayBudget
	m.PriorityScore = o.Fragility.PriorityScore
	m.Urgency = string(o.Fragility.Urgency)
	m.ContactWindow = o.Fragility.ContactWindow
	m.Action = o.Fragility.Action
	m.BonusBase = o.Fragility.Bonuses.Base
	m.BonusOutOfMeds = o.Fragility.Bonuses.OutOfMeds
	m.BonusQ4 = o.Fragility.Bonuses.Q4
	m.BonusMultipleMA = o.Fragility.Bonuses.MultipleMA
	m.BonusNewPatient = o.Fragility.Bonuses.NewPatient
	m.IsCompliant = o.Fragility.Flags.IsCompliant
	m.IsUnsalvageable = o.Fragility.Flags.IsUnsalvageable
	m.IsOutOfMeds = o.Fragility.Flags.IsOutOfMeds
	m.IsQ4 = o.Fragility.Flags.IsQ4
	m.IsMultipleMA = o.Fragility.Flags.IsMultipleMA
	m.IsNewPatient = o.Fragility.Flags.IsNewPatient
	m.Q4Tightened = o.Fragility.Flags.Q4Tightened
}
