// Package score classifies test outcomes and computes mutation scores.
package score

// Status is the raw result of one pytest run.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusTimeout Status = "TIMEOUT"
	StatusError   Status = "ERROR"
)

// SubjectKind distinguishes the unmutated module from its mutants.
type SubjectKind string

const (
	KindOriginal SubjectKind = "original"
	KindMutant   SubjectKind = "mutant"
)

// Outcome records one test run against one subject file.
type Outcome struct {
	Subject       string      // file name of the module or mutant under test
	Kind          SubjectKind // original or mutant
	Status        Status
	TestsTotal    int
	TestsPassed   int
	TestsFailed   int
	ExecutionTime string // human-readable, e.g. "1.24s" or "30.0s (timeout)"
	ErrorMsg      string

	// Output holds the raw pytest stdout+stderr. It feeds repair
	// prompts and is never persisted to the results CSV.
	Output string `json:"-"`
}

// Classification is the mutation-testing verdict for a mutant outcome.
type Classification string

const (
	Killed      Classification = "killed"
	Survived    Classification = "survived"
	Problematic Classification = "problematic"
)

// Classify maps a run status and its collected test count to a verdict.
// A passing run with zero collected tests means the suite never executed,
// which is a harness problem rather than a surviving mutant.
func Classify(status Status, testsTotal int) Classification {
	switch status {
	case StatusPass:
		if testsTotal > 0 {
			return Survived
		}
		return Problematic
	case StatusFail:
		if testsTotal > 0 {
			return Killed
		}
		return Problematic
	default:
		return Problematic
	}
}

// Classification returns the verdict for this outcome.
func (o Outcome) Classification() Classification {
	return Classify(o.Status, o.TestsTotal)
}
