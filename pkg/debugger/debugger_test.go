package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/flintmc/flint/pkg/adapters/memory"
	"github.com/flintmc/flint/pkg/runner"
	"github.com/flintmc/flint/pkg/spec"
)

func debugSpec(t *testing.T) *spec.TestSpec {
	t.Helper()
	ts, err := spec.Load(strings.NewReader(`{
		"name": "stepped",
		"setup": {"cleanup": {"region": [[0,0,0],[4,4,4]]}},
		"breakpoints": [2],
		"timeline": [
			{"at": 0, "do": "place", "pos": [1,0,1], "block": {"id": "stone"}},
			{"at": 3, "do": "assert", "checks": [{"pos": [1,0,1], "is": {"id": "stone"}}]}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func newTestDebugger(t *testing.T) (*Debugger, *bytes.Buffer) {
	t.Helper()
	d := New(memory.New(), debugSpec(t))
	var buf bytes.Buffer
	d.output = &buf
	return d, &buf
}

func TestNextStepsOneTick(t *testing.T) {
	d, _ := newTestDebugger(t)

	if err := d.handleNext(); err != nil {
		t.Fatal(err)
	}
	if d.session.CurrentTick() != 1 {
		t.Errorf("tick after next = %d, want 1", d.session.CurrentTick())
	}
	if d.session.State() != runner.StateRunning {
		t.Errorf("state = %v", d.session.State())
	}
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	d, _ := newTestDebugger(t)

	// First continue executes tick 0 (first action tick).
	if err := d.handleContinue(); err != nil {
		t.Fatal(err)
	}
	if d.session.CurrentTick() != 1 {
		t.Errorf("tick after first continue = %d, want 1", d.session.CurrentTick())
	}

	// Second continue runs through the breakpoint at tick 2.
	if err := d.handleContinue(); err != nil {
		t.Fatal(err)
	}
	if d.session.CurrentTick() != 3 {
		t.Errorf("tick after second continue = %d, want 3 (breakpoint at 2 executed)", d.session.CurrentTick())
	}
	if d.session.State() != runner.StateRunning {
		t.Errorf("state = %v, want still running", d.session.State())
	}
}

func TestRunToCompletion(t *testing.T) {
	d, buf := newTestDebugger(t)

	if err := d.handleRun(); err != nil {
		t.Fatal(err)
	}
	if d.session.State() != runner.StateCompleted {
		t.Fatalf("state = %v", d.session.State())
	}
	if !strings.Contains(buf.String(), "Completed at tick 3") {
		t.Errorf("output:\n%s", buf.String())
	}

	buf.Reset()
	d.handlePrint([]string{"print", "result"})
	out := buf.String()
	if !strings.Contains(out, "completed") || !strings.Contains(out, "1/1 assertions passed") {
		t.Errorf("print result:\n%s", out)
	}
}

func TestPrintTimelineAndBreakpoints(t *testing.T) {
	d, buf := newTestDebugger(t)

	d.handlePrint([]string{"print", "timeline"})
	out := buf.String()
	if !strings.Contains(out, "tick 0: place") || !strings.Contains(out, "tick 3: assert") {
		t.Errorf("print timeline:\n%s", out)
	}

	buf.Reset()
	d.handlePrint([]string{"print", "breakpoints"})
	if !strings.Contains(buf.String(), "tick 2") {
		t.Errorf("print breakpoints:\n%s", buf.String())
	}
}
