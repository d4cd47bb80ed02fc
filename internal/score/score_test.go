package score

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		total  int
		want   Classification
	}{
		{"pass with tests survives", StatusPass, 5, Survived},
		{"pass with zero tests is problematic", StatusPass, 0, Problematic},
		{"fail with tests kills", StatusFail, 5, Killed},
		{"fail with zero tests is problematic", StatusFail, 0, Problematic},
		{"timeout is problematic", StatusTimeout, 5, Problematic},
		{"timeout with zero tests is problematic", StatusTimeout, 0, Problematic},
		{"error is problematic", StatusError, 5, Problematic},
		{"error with zero tests is problematic", StatusError, 0, Problematic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.status, tt.total); got != tt.want {
				t.Errorf("Classify(%s, %d) = %s, want %s", tt.status, tt.total, got, tt.want)
			}
		})
	}
}

func mutant(name string, status Status, total, passed, failed int) Outcome {
	return Outcome{Subject: name, Kind: KindMutant, Status: status,
		TestsTotal: total, TestsPassed: passed, TestsFailed: failed}
}

func TestCalculate(t *testing.T) {
	outcomes := []Outcome{
		{Subject: "calculator.py", Kind: KindOriginal, Status: StatusPass, TestsTotal: 8, TestsPassed: 8},
		mutant("mutant_calculator_0.py", StatusFail, 8, 6, 2),
		mutant("mutant_calculator_1.py", StatusPass, 8, 8, 0),
		mutant("mutant_calculator_2.py", StatusFail, 8, 5, 3),
	}

	s := Calculate(outcomes)
	if s.Total != 3 {
		t.Errorf("Total = %d, want 3 (original must not count)", s.Total)
	}
	if s.Killed != 2 || s.Survived != 1 || s.Problematic != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/1/0", s.Killed, s.Survived, s.Problematic)
	}
	if s.Valid != 3 {
		t.Errorf("Valid = %d, want 3", s.Valid)
	}
	if math.Abs(s.Percent-66.666) > 0.01 {
		t.Errorf("Percent = %.3f, want ~66.667", s.Percent)
	}
}

func TestCalculateCounterInvariant(t *testing.T) {
	outcomes := []Outcome{
		mutant("m0.py", StatusFail, 4, 2, 2),
		mutant("m1.py", StatusPass, 4, 4, 0),
		mutant("m2.py", StatusTimeout, 0, 0, 1),
		mutant("m3.py", StatusError, 0, 0, 0),
		mutant("m4.py", StatusFail, 0, 0, 0),
	}
	s := Calculate(outcomes)
	if s.Killed+s.Survived+s.Problematic != s.Total {
		t.Errorf("killed+survived+problematic = %d, want total %d",
			s.Killed+s.Survived+s.Problematic, s.Total)
	}
	if s.Problematic != 3 {
		t.Errorf("Problematic = %d, want 3", s.Problematic)
	}
}

func TestCalculateExcludesProblematic(t *testing.T) {
	outcomes := []Outcome{
		mutant("m0.py", StatusFail, 6, 4, 2),
		mutant("m1.py", StatusFail, 6, 3, 3),
		mutant("m2.py", StatusPass, 6, 6, 0),
		mutant("m3.py", StatusTimeout, 0, 0, 1),
		mutant("m4.py", StatusError, 0, 0, 0),
	}
	s := Calculate(outcomes)
	if s.Total != 5 || s.Valid != 3 {
		t.Errorf("Total/Valid = %d/%d, want 5/3", s.Total, s.Valid)
	}
	if math.Abs(s.Percent-66.666) > 0.01 {
		t.Errorf("Percent = %.3f, want ~66.667", s.Percent)
	}
}

func TestCalculateNoValidMutants(t *testing.T) {
	outcomes := []Outcome{
		mutant("m0.py", StatusTimeout, 0, 0, 1),
		mutant("m1.py", StatusError, 0, 0, 0),
	}
	s := Calculate(outcomes)
	if s.Percent != 0 {
		t.Errorf("Percent = %.1f, want 0 when no valid mutants", s.Percent)
	}
	if s.Perfect() {
		t.Error("Perfect() must be false with zero valid mutants")
	}
}

func TestScoreBounds(t *testing.T) {
	for killed := 0; killed <= 4; killed++ {
		var outcomes []Outcome
		for i := 0; i < 4; i++ {
			status := StatusPass
			failed := 0
			if i < killed {
				status = StatusFail
				failed = 1
			}
			outcomes = append(outcomes, mutant("m.py", status, 4, 4-failed, failed))
		}
		s := Calculate(outcomes)
		if s.Percent < 0 || s.Percent > 100 {
			t.Errorf("Percent = %.1f out of bounds for killed=%d", s.Percent, killed)
		}
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{100, "excellent"},
		{85, "excellent"},
		{84.9, "good"},
		{70, "good"},
		{69.9, "moderate"},
		{50, "moderate"},
		{49.9, "poor"},
		{0, "poor"},
	}
	for _, tt := range tests {
		s := Score{Percent: tt.percent}
		if got := s.Band(); got != tt.want {
			t.Errorf("Band(%.1f) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}

func TestPerfect(t *testing.T) {
	outcomes := []Outcome{
		mutant("m0.py", StatusFail, 3, 2, 1),
		mutant("m1.py", StatusFail, 3, 1, 2),
	}
	s := Calculate(outcomes)
	if !s.Perfect() {
		t.Error("expected perfect score when all valid mutants are killed")
	}
	if s.Percent != 100 {
		t.Errorf("Percent = %.1f, want exactly 100", s.Percent)
	}
}
