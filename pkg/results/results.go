// Package results models the outcome of test runs: per-assertion records,
// per-test results, and the batch summary the report renderers consume.
package results

import (
	"encoding/json"

	"github.com/flintmc/flint/pkg/spatial"
	"github.com/flintmc/flint/pkg/spec"
)

// Info is a diagnostic value attached to an assertion failure: free text or
// a block. Blocks render in command form (id[key=value,...]).
type Info struct {
	Text  string
	Block *spec.Block
}

// TextInfo wraps free text.
func TextInfo(text string) Info {
	return Info{Text: text}
}

// BlockInfo wraps a block.
func BlockInfo(b spec.Block) Info {
	return Info{Block: &b}
}

// String renders the info for terminal and TAP output.
func (i Info) String() string {
	if i.Block != nil {
		return i.Block.Command()
	}
	return i.Text
}

// MarshalJSON emits the rendered string form.
func (i Info) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// AssertFailure describes one failed block expectation. ExecutionTimeMs is
// the optional per-assertion timing; the runner leaves it unset.
type AssertFailure struct {
	Tick            int       `json:"tick"`
	Message         string    `json:"message"`
	Position        *spec.Pos `json:"position,omitempty"`
	ExecutionTimeMs *int64    `json:"execution_time_ms,omitempty"`
	Expected        Info      `json:"expected"`
	Actual          Info      `json:"actual"`
}

// AssertionResult is one evaluated assert action: either a pass at a tick or
// a failure with diagnostics.
type AssertionResult struct {
	Tick    int            `json:"tick"`
	Passed  bool           `json:"passed"`
	Failure *AssertFailure `json:"failure,omitempty"`
}

// Success records a passing assert action at a tick.
func Success(tick int) AssertionResult {
	return AssertionResult{Tick: tick, Passed: true}
}

// Failed records a failing assert action.
func Failed(f AssertFailure) AssertionResult {
	return AssertionResult{Tick: f.Tick, Passed: false, Failure: &f}
}

// TestResult is the outcome of one test run. It accumulates assertion
// results while the runner drives the timeline, then freezes.
type TestResult struct {
	TestName        string            `json:"test_name"`
	Success         bool              `json:"success"`
	TotalTicks      int               `json:"total_ticks"`
	ExecutionTimeMs int64             `json:"execution_time_ms"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	Offset          *spatial.Offset   `json:"test_offset,omitempty"`
	Assertions      []AssertionResult `json:"assertions,omitempty"`
}

// NewTestResult starts a result for a named test. It is successful until an
// assertion fails or a failure reason is recorded.
func NewTestResult(name string) *TestResult {
	return &TestResult{TestName: name, Success: true}
}

// AddAssertion appends an assertion result, flipping Success on failure.
func (r *TestResult) AddAssertion(a AssertionResult) {
	r.Assertions = append(r.Assertions, a)
	if !a.Passed {
		r.Success = false
	}
}

// Fail marks the test failed for a reason outside assertion checking, such
// as an adapter error.
func (r *TestResult) Fail(reason string) {
	r.Success = false
	r.FailureReason = reason
}

// PassedAssertions counts passing assertion records.
func (r *TestResult) PassedAssertions() int {
	n := 0
	for _, a := range r.Assertions {
		if a.Passed {
			n++
		}
	}
	return n
}

// FailedAssertions counts failing assertion records.
func (r *TestResult) FailedAssertions() int {
	return len(r.Assertions) - r.PassedAssertions()
}

// FirstFailure returns the first failed assertion, nil if none.
func (r *TestResult) FirstFailure() *AssertFailure {
	for _, a := range r.Assertions {
		if a.Failure != nil {
			return a.Failure
		}
	}
	return nil
}

// TestSummary aggregates a batch of test results.
type TestSummary struct {
	TotalTests  int           `json:"total_tests"`
	Passed      int           `json:"passed_tests"`
	Failed      int           `json:"failed_tests"`
	TotalTimeMs int64         `json:"total_execution_time_ms"`
	Results     []*TestResult `json:"results"`
}

// FromResults builds a summary over a batch. An empty batch yields zero
// counts, success rate 0.0, and AllPassed true.
func FromResults(results []*TestResult) *TestSummary {
	s := &TestSummary{TotalTests: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			s.Passed++
		} else {
			s.Failed++
		}
		s.TotalTimeMs += r.ExecutionTimeMs
	}
	return s
}

// SuccessRate returns passed/total, 0.0 for an empty batch.
func (s *TestSummary) SuccessRate() float64 {
	if s.TotalTests == 0 {
		return 0.0
	}
	return float64(s.Passed) / float64(s.TotalTests)
}

// AllPassed reports whether no test failed. Vacuously true for an empty batch.
func (s *TestSummary) AllPassed() bool {
	return s.Failed == 0
}
