package harness

import (
	"sync"
	"time"
)

// Verdict is the final outcome of one test.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// TestResult is the record of one test file.
type TestResult struct {
	SourcePath string
	BinaryPath string
	Verdict    Verdict
	Diagnostic string

	// Expected is the number of sub-cases in the header; Runs is how many ran.
	Expected int
	Runs     int
	Kills    int

	Started  time.Time
	Duration time.Duration
}

// Passed reports whether the test passed.
func (r *TestResult) Passed() bool { return r.Verdict == VerdictPass }

// Failure is one entry of the batch failure list.
type Failure struct {
	Path       string
	Diagnostic string
}

// Counts is a point-in-time copy of the batch counters.
type Counts struct {
	Total     int
	Completed int
	Passed    int
	Failed    int
}

// PassRate returns the passed share of the total as a percentage.
func (c Counts) PassRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return 100 * float64(c.Passed) / float64(c.Total)
}

// BatchState holds the counters and the failure list of a batch.
type BatchState struct {
	mu       sync.Mutex
	counts   Counts
	failures []Failure
	results  []TestResult
}

// NewBatchState creates a state expecting total tests.
func NewBatchState(total int) *BatchState {
	return &BatchState{counts: Counts{Total: total}}
}

// Record accounts for a finished test.
func (s *BatchState) Record(r TestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.Completed++
	if r.Passed() {
		s.counts.Passed++
	} else {
		s.counts.Failed++
		s.failures = append(s.failures, Failure{Path: r.SourcePath, Diagnostic: r.Diagnostic})
	}
	s.results = append(s.results, r)
}

// Counts returns a copy of the counters.
func (s *BatchState) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Failures returns the failures in the order they occurred.
func (s *BatchState) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Failure(nil), s.failures...)
}

// Results returns every recorded test in completion order.
func (s *BatchState) Results() []TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TestResult(nil), s.results...)
}

// ExitCode is 0 when nothing failed and 1 otherwise.
func (s *BatchState) ExitCode() int {
	if s.Counts().Failed > 0 {
		return ExitFailed
	}
	return ExitOK
}
