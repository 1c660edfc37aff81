package results

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/flintmc/flint/pkg/spatial"
	"github.com/flintmc/flint/pkg/spec"
)

func TestEmptySummary(t *testing.T) {
	s := FromResults(nil)
	if s.TotalTests != 0 || s.Passed != 0 || s.Failed != 0 {
		t.Errorf("counts = %d/%d/%d", s.TotalTests, s.Passed, s.Failed)
	}
	if rate := s.SuccessRate(); rate != 0.0 {
		t.Errorf("SuccessRate = %v, want 0.0", rate)
	}
	if !s.AllPassed() {
		t.Error("empty summary should report AllPassed")
	}
}

func TestSummaryCounts(t *testing.T) {
	pass := NewTestResult("a")
	pass.AddAssertion(Success(3))
	pass.ExecutionTimeMs = 10

	fail := NewTestResult("b")
	fail.AddAssertion(Success(1))
	fail.AddAssertion(Failed(AssertFailure{Tick: 2, Message: "mismatch"}))
	fail.ExecutionTimeMs = 5

	s := FromResults([]*TestResult{pass, fail})
	if s.TotalTests != 2 || s.Passed != 1 || s.Failed != 1 {
		t.Errorf("counts = %d/%d/%d", s.TotalTests, s.Passed, s.Failed)
	}
	if s.TotalTimeMs != 15 {
		t.Errorf("TotalTimeMs = %d", s.TotalTimeMs)
	}
	if s.SuccessRate() != 0.5 {
		t.Errorf("SuccessRate = %v", s.SuccessRate())
	}
	if s.AllPassed() {
		t.Error("summary with a failure should not report AllPassed")
	}
}

func TestResultAccumulation(t *testing.T) {
	r := NewTestResult("x")
	if !r.Success {
		t.Error("fresh result should be successful")
	}
	r.AddAssertion(Success(0))
	r.AddAssertion(Failed(AssertFailure{Tick: 4, Message: "boom"}))
	if r.Success {
		t.Error("failed assertion should flip Success")
	}
	if r.PassedAssertions() != 1 || r.FailedAssertions() != 1 {
		t.Errorf("assertion counts = %d/%d", r.PassedAssertions(), r.FailedAssertions())
	}
	if f := r.FirstFailure(); f == nil || f.Tick != 4 {
		t.Errorf("FirstFailure = %+v", f)
	}
}

func TestSummaryWireFieldNames(t *testing.T) {
	r := NewTestResult("redstone/lever_on")
	r.AddAssertion(Success(2))
	r.Offset = &spatial.Offset{X: 16, Z: 16}
	s := FromResults([]*TestResult{r})

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"total_tests":1`,
		`"passed_tests":1`,
		`"failed_tests":0`,
		`"total_execution_time_ms":0`,
		`"test_offset":{"x":16,"y":0,"z":16}`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("summary JSON missing %s:\n%s", want, out)
		}
	}
}

func TestAssertFailureOptionalTiming(t *testing.T) {
	f := AssertFailure{Tick: 3, Message: "mismatch"}
	out, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "execution_time_ms") {
		t.Errorf("unset timing should be omitted:\n%s", out)
	}

	ms := int64(7)
	f.ExecutionTimeMs = &ms
	out, err = json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"execution_time_ms":7`) {
		t.Errorf("set timing should be emitted:\n%s", out)
	}
}

func TestInfoRendering(t *testing.T) {
	text := TextInfo("no block")
	if text.String() != "no block" {
		t.Errorf("text info = %q", text.String())
	}

	block := BlockInfo(spec.BlockWithProperties("minecraft:lever", map[string]string{"powered": "true"}))
	if block.String() != "minecraft:lever[powered=true]" {
		t.Errorf("block info = %q", block.String())
	}

	out, err := json.Marshal(block)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "minecraft:lever[powered=true]") {
		t.Errorf("marshaled info = %s", out)
	}
}
