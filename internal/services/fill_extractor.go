package services

import (
	"time"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// fillExtractor is the default FillExtractor.
type fillExtractor struct{}

// NewFillExtractor returns a FillExtractor using WhenHandedOver as the
// preferred fill-date source and WhenPrepared as the fallback.
func NewFillExtractor() FillExtractor {
	return fillExtractor{}
}

// Extract normalizes each dispense into a Fill, dropping dispenses with no
// usable fill date or a non-positive days supply. dropped counts every
// dispense that did not produce a Fill.
func (fillExtractor) Extract(dispenses []domain.Dispense) ([]domain.Fill, int) {
	fills := make([]domain.Fill, 0, len(dispenses))
	dropped := 0
	for _, d := range dispenses {
		fill, ok := extractOne(d)
		if !ok {
			dropped++
			continue
		}
		fills = append(fills, fill)
	}
	return fills, dropped
}

// extractOne normalizes a single dispense, returning ok=false when the
// dispense cannot yield a valid fill.
func extractOne(d domain.Dispense) (domain.Fill, bool) {
	if d.DaysSupply == nil || *d.DaysSupply <= 0 {
		return domain.Fill{}, false
	}
	fillDate := firstNonNil(d.WhenHandedOver, d.WhenPrepared)
	if fillDate == nil {
		return domain.Fill{}, false
	}
	fill := domain.Fill{
		FillDate:   fillDate.UTC().Truncate(24 * time.Hour),
		DaysSupply: *d.DaysSupply,
		RxnormCode: d.RxnormCode,
	}
	if err := fill.Validate(); err != nil {
		return domain.Fill{}, false
	}
	return fill, true
}

// firstNonNil returns the first non-nil time pointer among preferred
// candidates, honoring the preference order of the arguments.
func firstNonNil(candidates ...*time.Time) *time.Time {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
