package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatientSummary_Validate(t *testing.T) {
	tests := []struct {
		name    string
		summary PatientSummary
		wantErr bool
	}{
		{
			name:    "valid_summary",
			summary: PatientSummary{PatientID: "maria", WorstTier: TierCompliant},
			wantErr: false,
		},
		{
			name:    "missing_patient_id",
			summary: PatientSummary{WorstTier: TierCompliant},
			wantErr: true,
		},
		{
			name:    "invalid_tier",
			summary: PatientSummary{PatientID: "maria", WorstTier: Tier("BOGUS")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.summary.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
