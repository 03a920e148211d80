package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTier_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		wantErr bool
	}{
		{name: "compliant", tier: TierCompliant, wantErr: false},
		{name: "unsalvageable", tier: TierUnsalvageable, wantErr: false},
		{name: "f2_fragile", tier: TierF2Fragile, wantErr: false},
		{name: "unknown", tier: Tier("NOT_A_TIER"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tier.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTier_Level(t *testing.T) {
	// most severe to least severe, level should be strictly increasing
	assert.Less(t, TierUnsalvageable.Level(), TierF1Imminent.Level())
	assert.Less(t, TierF1Imminent.Level(), TierF2Fragile.Level())
	assert.Less(t, TierF2Fragile.Level(), TierF3Moderate.Level())
	assert.Less(t, TierF3Moderate.Level(), TierF4Comfortable.Level())
	assert.Less(t, TierF4Comfortable.Level(), TierF5Safe.Level())
	assert.Less(t, TierF5Safe.Level(), TierCompliant.Level())
}

func TestTier_Level_Unknown(t *testing.T) {
	unknown := Tier("BOGUS")
	assert.Equal(t, TierCompliant.Level()+1, unknown.Level())
}

func TestTier_MoreSevereThan(t *testing.T) {
	assert.True(t, TierUnsalvageable.MoreSevereThan(TierCompliant))
	assert.True(t, TierF1Imminent.MoreSevereThan(TierF5Safe))
	assert.False(t, TierCompliant.MoreSevereThan(TierUnsalvageable))
	assert.False(t, TierCompliant.MoreSevereThan(TierCompliant))
}

func TestBonuses_Total(t *testing.T) {
	b := Bonuses{Base: 10, OutOfMeds: 25, Q4: 15, MultipleMA: 5, NewPatient: 0}
	assert.Equal(t, 55, b.Total())
}

func TestBonuses_Total_Zero(t *testing.T) {
	var b Bonuses
	assert.Equal(t, 0, b.Total())
}
