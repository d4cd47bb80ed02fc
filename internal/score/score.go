package score

import "fmt"

// Score aggregates mutant verdicts into a mutation score.
type Score struct {
	Total       int     `json:"total"`
	Killed      int     `json:"killed"`
	Survived    int     `json:"survived"`
	Problematic int     `json:"problematic"`
	Valid       int     `json:"valid"`
	Percent     float64 `json:"percent"`
}

// Calculate folds mutant outcomes into a score. Problematic mutants are
// excluded from the denominator; a run with no valid mutants scores zero.
func Calculate(outcomes []Outcome) Score {
	var s Score
	for _, o := range outcomes {
		if o.Kind != KindMutant {
			continue
		}
		s.Total++
		switch o.Classification() {
		case Killed:
			s.Killed++
		case Survived:
			s.Survived++
		default:
			s.Problematic++
		}
	}
	s.Valid = s.Killed + s.Survived
	if s.Valid > 0 {
		s.Percent = float64(s.Killed) / float64(s.Valid) * 100
	}
	return s
}

// Band describes the score for reporting purposes.
func (s Score) Band() string {
	switch {
	case s.Percent >= 85:
		return "excellent"
	case s.Percent >= 70:
		return "good"
	case s.Percent >= 50:
		return "moderate"
	default:
		return "poor"
	}
}

// Perfect reports whether every valid mutant was killed.
func (s Score) Perfect() bool {
	return s.Valid > 0 && s.Killed == s.Valid
}

// String renders the score in the summary format used across reports.
func (s Score) String() string {
	return fmt.Sprintf("%d/%d killed (%.1f%%)", s.Killed, s.Valid, s.Percent)
}
