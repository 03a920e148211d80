package services

import (
	"fmt"

	"github.com/ridgeline-health/medadherence/internal/domain"
)

// rxnormCodeSet maps each HEDIS measurement year to the RxNorm codes counted
// toward one measure. Code sets are republished annually; a year not present
// here resolves as resolveYear describes.
type rxnormCodeSet map[int]map[string]struct{}

// yearlyCodeSets holds the per-measure, per-year RxNorm membership used for
// classification. Entries are illustrative of the shape a real code-set
// feed would populate; production deployments load these from the annual
// HEDIS value set publication rather than a literal table.
var yearlyCodeSets = map[domain.Measure]rxnormCodeSet{
	domain.MeasureMAC: {
		2026: setOf("83367", "36567", "301542", "259255", "597967"),
	},
	domain.MeasureMAD: {
		2026: setOf("6809", "4821", "253182", "861007", "274783"),
	},
	domain.MeasureMAH: {
		2026: setOf("18867", "52175", "979480", "349199", "321064"),
	},
}

func setOf(codes ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// measureClassifier is the default MeasureClassifier.
type measureClassifier struct{}

// NewMeasureClassifier returns a MeasureClassifier backed by the built-in
// yearly RxNorm code sets.
func NewMeasureClassifier() MeasureClassifier {
	return measureClassifier{}
}

// Classify reports every measure whose code set for the given year contains
// rxnormCode. A code absent from every measure's set, or an empty code,
// classifies to no measures.
func (measureClassifier) Classify(rxnormCode string, year int) []domain.Measure {
	if rxnormCode == "" {
		return nil
	}
	var matched []domain.Measure
	for _, measure := range domain.AllMeasures {
		codes := resolveCodeSet(measure, year)
		if _, ok := codes[rxnormCode]; ok {
			matched = append(matched, measure)
		}
	}
	return matched
}

// CodeSetVersion identifies which year's code set was actually used to
// classify a given measure/year pair, after the fallback resolveYear
// applies.
func (measureClassifier) CodeSetVersion(measure domain.Measure, year int) string {
	resolvedYear := resolveYear(measure, year)
	return fmt.Sprintf("%s-%d", measure, resolvedYear)
}

// resolveCodeSet returns the code set for measure at year. When the exact
// year is not published it falls back to the most recent published year at
// or before it, otherwise to the earliest year on record.
func resolveCodeSet(measure domain.Measure, year int) map[string]struct{} {
	sets, ok := yearlyCodeSets[measure]
	if !ok {
		return nil
	}
	if codes, ok := sets[year]; ok {
		return codes
	}
	return sets[resolveYear(measure, year)]
}

// resolveYear returns the year actually used: the requested year if a code
// set is published for it, otherwise the most recent published year below
// it, otherwise the earliest year on record.
func resolveYear(measure domain.Measure, year int) int {
	sets, ok := yearlyCodeSets[measure]
	if !ok {
		return year
	}
	if _, ok := sets[year]; ok {
		return year
	}
	best := 0
	for y := range sets {
		if y <= year && y > best {
			best = y
		}
	}
	if best == 0 {
		for y := range sets {
			if best == 0 || y < best {
				best = y
			}
		}
	}
	return best
}
