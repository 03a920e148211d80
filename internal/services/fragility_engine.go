package services

import (
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// Fixed bonus constants per the composite priority score.
const (
	bonusOutOfMeds  = 30
	bonusQ4         = 25
	bonusMultipleMA = 15
	bonusNewPatient = 10
)

// tierBand is one row of the delay-budget-per-refill classification table.
type tierBand struct {
	maxBudget     int // inclusive upper bound; the last band has no upper bound
	noUpperBound  bool
	tier          domain.Tier
	base          int
	contactWindow string
}

// tierBands is evaluated top to bottom; the first band whose maxBudget
// covers the computed delay budget wins.
var tierBands = []tierBand{
	{maxBudget: 2, tier: domain.TierF1Imminent, base: 100, contactWindow: "24 hours"},
	{maxBudget: 5, tier: domain.TierF2Fragile, base: 80, contactWindow: "48 hours"},
	{maxBudget: 10, tier: domain.TierF3Moderate, base: 60, contactWindow: "1 week"},
	{maxBudget: 20, tier: domain.TierF4Comfortable, base: 40, contactWindow: "2 weeks"},
	{noUpperBound: true, tier: domain.TierF5Safe, base: 20, contactWindow: "monthly"},
}

// tierActions gives the fixed action label per tier.
var tierActions = map[domain.Tier]string{
	domain.TierCompliant:     "no action",
	domain.TierUnsalvageable: "document loss, focus next year",
}

func actionForTier(tier domain.Tier, contactWindow string) string {
	if action, ok := tierActions[tier]; ok {
		return action
	}
	return "outreach within " + contactWindow
}

// tierPromotionOrder is the one-step-toward-F1 ladder used by Q4 tightening.
// COMPLIANT and T5_UNSALVAGEABLE never appear here; they never tighten.
var tierPromotionOrder = []domain.Tier{
	domain.TierF1Imminent,
	domain.TierF2Fragile,
	domain.TierF3Moderate,
	domain.TierF4Comfortable,
	domain.TierF5Safe,
}

// fragilityEngine is the default FragilityEngine.
type fragilityEngine struct{}

// NewFragilityEngine returns a FragilityEngine.
func NewFragilityEngine() FragilityEngine {
	return fragilityEngine{}
}

// Classify applies the pre-classification short-circuits, the delay-budget
// table, Q4 tightening, and the composite priority score in the fixed order
// the table-driven classification depends on.
func (fragilityEngine) Classify(result domain.PDCResult, forecast RefillForecast, asOf time.Time, isNewPatient bool, measureCountForPatient int, q4TighteningWindowDays int) domain.FragilityResult {
	flags := domain.Flags{
		IsOutOfMeds:  result.DaysUntilRunout <= 0,
		IsQ4:         isQ4Month(asOf),
		IsMultipleMA: measureCountForPatient >= 2,
		IsNewPatient: isNewPatient,
	}

	var tier domain.Tier
	var base int
	var contactWindow string
	var delayBudget int

	switch {
	case result.PDCStatusQuo >= 80:
		tier = domain.TierCompliant
		base = 0
		flags.IsCompliant = true
	case result.PDCPerfect < 80 || result.GapDaysRemaining < 0:
		tier = domain.TierUnsalvageable
		base = 0
		flags.IsUnsalvageable = true
	default:
		refillsRemaining := maxInt(1, forecast.RemainingRefillsNeeded)
		delayBudget = result.GapDaysRemaining / refillsRemaining
		band := selectTierBand(delayBudget)
		tier = band.tier
		base = band.base
		contactWindow = band.contactWindow
	}

	if canTighten(tier) && flags.IsQ4 && result.GapDaysRemaining <= 5 && result.DaysToYearEnd < q4TighteningWindowDays {
		tier = promoteTowardF1(tier)
		flags.Q4Tightened = true
		band := bandForTier(tier)
		base = band.base
		contactWindow = band.contactWindow
	}

	bonuses := domain.Bonuses{Base: base}
	if flags.IsOutOfMeds {
		bonuses.OutOfMeds = bonusOutOfMeds
	}
	if flags.IsQ4 {
		bonuses.Q4 = bonusQ4
	}
	if flags.IsMultipleMA {
		bonuses.MultipleMA = bonusMultipleMA
	}
	if flags.IsNewPatient {
		bonuses.NewPatient = bonusNewPatient
	}
	priorityScore := bonuses.Total()

	return domain.FragilityResult{
		Tier:          tier,
		TierLevel:     tier.Level(),
		DelayBudget:   delayBudget,
		PriorityScore: priorityScore,
		Urgency:       urgencyForScore(priorityScore),
		ContactWindow: contactWindow,
		Action:        actionForTier(tier, contactWindow),
		Bonuses:       bonuses,
		Flags:         flags,
	}
}

// selectTierBand picks the first band whose inclusive bound covers budget.
func selectTierBand(budget int) tierBand {
	for _, band := range tierBands {
		if band.noUpperBound || budget <= band.maxBudget {
			return band
		}
	}
	return tierBands[len(tierBands)-1]
}

// bandForTier looks up a band's base/contactWindow by tier, used after Q4
// promotion changes the tier out from under the originally selected band.
func bandForTier(tier domain.Tier) tierBand {
	for _, band := range tierBands {
		if band.tier == tier {
			return band
		}
	}
	return tierBand{}
}

// canTighten reports whether a tier is eligible for Q4 promotion.
// COMPLIANT and T5_UNSALVAGEABLE are fixed points.
func canTighten(tier domain.Tier) bool {
	for _, t := range tierPromotionOrder {
		if t == tier {
			return true
		}
	}
	return false
}

// promoteTowardF1 moves a tier one step up the promotion ladder. F1 is
// already the top of the ladder and stays put.
func promoteTowardF1(tier domain.Tier) domain.Tier {
	for i, t := range tierPromotionOrder {
		if t == tier && i > 0 {
			return tierPromotionOrder[i-1]
		}
	}
	return tier
}

// isQ4Month reports whether asOf falls in October, November, or December.
func isQ4Month(asOf time.Time) bool {
	switch asOf.Month() {
	case time.October, time.November, time.December:
		return true
	default:
		return false
	}
}

// urgencyForScore bands a composite priority score into an urgency level.
func urgencyForScore(score int) domain.UrgencyLevel {
	switch {
	case score >= 150:
		return domain.UrgencyExtreme
	case score >= 100:
		return domain.UrgencyHigh
	case score >= 50:
		return domain.UrgencyModerate
	default:
		return domain.UrgencyLow
	}
}
