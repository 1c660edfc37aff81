// Package debugger implements the interactive REPL for stepping a test
// timeline tick by tick.
package debugger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/flintmc/flint/pkg/runner"
	"github.com/flintmc/flint/pkg/spatial"
	"github.com/flintmc/flint/pkg/spec"
)

// Debugger drives one test session interactively.
type Debugger struct {
	spec    *spec.TestSpec
	session *runner.Session
	output  io.Writer
	rl      *readline.Instance
}

// New creates a debugger for one test against an adapter. The test runs at
// the origin; grid layout only matters for batches.
func New(adapter runner.Adapter, ts *spec.TestSpec) *Debugger {
	return &Debugger{
		spec:    ts,
		session: runner.NewSession(adapter, ts, spatial.Offset{}),
		output:  os.Stdout,
	}
}

// Run starts the interactive REPL loop.
func (d *Debugger) Run() error {
	commands := []string{"next", "continue", "run", "print timeline",
		"print breakpoints", "print result", "help", "quit"}

	var completer = readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children,
			readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          d.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	d.rl = rl
	defer rl.Close()

	agg := d.session.Timeline()
	fmt.Fprintf(d.output, "flint debugger — %s: %d action ticks, max tick %d\n",
		d.spec.Name, agg.UniqueTickCount(), agg.MaxTick)
	fmt.Fprintf(d.output, "Type 'help' for available commands, 'next' to execute the next tick.\n\n")

	for {
		rl.SetPrompt(d.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "next", "n":
			if err := d.handleNext(); err != nil {
				fmt.Fprintf(d.output, "Error: %v\n", err)
			}
		case "continue", "c":
			if err := d.handleContinue(); err != nil {
				fmt.Fprintf(d.output, "Error: %v\n", err)
			}
		case "run", "r":
			if err := d.handleRun(); err != nil {
				fmt.Fprintf(d.output, "Error: %v\n", err)
			}
		case "print", "p":
			d.handlePrint(parts)
		case "help", "?":
			d.handleHelp()
		case "quit", "q":
			fmt.Fprintf(d.output, "Exiting debugger.\n")
			return nil
		default:
			fmt.Fprintf(d.output, "Unknown command: %q. Type 'help' for available commands.\n", cmd)
		}
	}
}

// buildPrompt creates the prompt string: flint[tick N/max]>
func (d *Debugger) buildPrompt() string {
	switch d.session.State() {
	case runner.StateCompleted:
		return "flint[done]> "
	case runner.StateFailed:
		return "flint[failed]> "
	}
	return fmt.Sprintf("flint[tick %d/%d]> ", d.session.CurrentTick(), d.session.Timeline().MaxTick)
}

// ensureStarted lazily starts the session on the first stepping command.
func (d *Debugger) ensureStarted() error {
	if d.session.State() != runner.StateNotStarted {
		return nil
	}
	return d.session.Start()
}

// handleNext executes one tick.
func (d *Debugger) handleNext() error {
	if err := d.ensureStarted(); err != nil {
		return err
	}
	if !d.running() {
		return nil
	}
	tick := d.session.CurrentTick()
	if err := d.session.StepTick(); err != nil {
		return err
	}
	d.reportTick(tick)
	return nil
}

// handleContinue runs until the next breakpoint or action tick, whichever
// comes first, and executes it.
func (d *Debugger) handleContinue() error {
	if err := d.ensureStarted(); err != nil {
		return err
	}
	if !d.running() {
		return nil
	}
	agg := d.session.Timeline()
	target, ok := agg.NextEventTick(d.session.CurrentTick() - 1)
	if !ok {
		return d.handleRun()
	}
	for d.session.State() == runner.StateRunning && d.session.CurrentTick() <= target {
		tick := d.session.CurrentTick()
		if err := d.session.StepTick(); err != nil {
			return err
		}
		if tick == target || d.session.State() != runner.StateRunning {
			d.reportTick(tick)
		}
	}
	return nil
}

// handleRun executes the session to completion.
func (d *Debugger) handleRun() error {
	if err := d.ensureStarted(); err != nil {
		return err
	}
	for d.session.State() == runner.StateRunning {
		tick := d.session.CurrentTick()
		if err := d.session.StepTick(); err != nil {
			return err
		}
		if d.session.State() != runner.StateRunning {
			d.reportTick(tick)
		}
	}
	return nil
}

// running reports and explains whether stepping is possible.
func (d *Debugger) running() bool {
	switch d.session.State() {
	case runner.StateCompleted:
		fmt.Fprintf(d.output, "Session completed. 'print result' shows the outcome.\n")
		return false
	case runner.StateFailed:
		fmt.Fprintf(d.output, "Session failed. 'print result' shows the outcome.\n")
		return false
	}
	return true
}

// reportTick prints what happened at a tick.
func (d *Debugger) reportTick(tick int) {
	entries := d.session.Timeline().EntriesAt(tick)
	for _, e := range entries {
		fmt.Fprintf(d.output, "tick %d: %s\n", tick, e.Entry.Action.Do())
	}
	switch d.session.State() {
	case runner.StateCompleted:
		fmt.Fprintf(d.output, "Completed at tick %d.\n", tick)
	case runner.StateFailed:
		result := d.session.Result()
		if f := result.FirstFailure(); f != nil {
			fmt.Fprintf(d.output, "Failed at tick %d: %s (expected %s, actual %s)\n",
				f.Tick, f.Message, f.Expected, f.Actual)
		} else {
			fmt.Fprintf(d.output, "Failed at tick %d: %s\n", tick, result.FailureReason)
		}
	}
}

// handlePrint dispatches the print subcommands.
func (d *Debugger) handlePrint(parts []string) {
	what := "timeline"
	if len(parts) > 1 {
		what = parts[1]
	}
	agg := d.session.Timeline()

	switch what {
	case "timeline":
		for _, tick := range agg.ActionTicks() {
			names := make([]string, 0, len(agg.EntriesAt(tick)))
			for _, e := range agg.EntriesAt(tick) {
				names = append(names, e.Entry.Action.Do())
			}
			marker := "  "
			if tick == d.session.CurrentTick() && d.session.State() == runner.StateRunning {
				marker = "->"
			}
			fmt.Fprintf(d.output, "%s tick %d: %s\n", marker, tick, strings.Join(names, ", "))
		}
	case "breakpoints":
		if len(agg.Breakpoints) == 0 {
			fmt.Fprintf(d.output, "No breakpoints.\n")
			return
		}
		ticks := make([]int, 0, len(agg.Breakpoints))
		for tick := range agg.Breakpoints {
			ticks = append(ticks, tick)
		}
		sort.Ints(ticks)
		for _, tick := range ticks {
			fmt.Fprintf(d.output, "  tick %d\n", tick)
		}
	case "result":
		result := d.session.Result()
		status := "running"
		switch d.session.State() {
		case runner.StateNotStarted:
			status = "not started"
		case runner.StateCompleted:
			status = "completed"
		case runner.StateFailed:
			status = "failed"
		}
		fmt.Fprintf(d.output, "%s: %s, %d/%d assertions passed, %d ticks\n",
			result.TestName, status, result.PassedAssertions(),
			len(result.Assertions), result.TotalTicks)
		if f := result.FirstFailure(); f != nil {
			fmt.Fprintf(d.output, "  tick %d: %s\n", f.Tick, f.Message)
			fmt.Fprintf(d.output, "    expected: %s\n", f.Expected)
			fmt.Fprintf(d.output, "    actual:   %s\n", f.Actual)
		}
	default:
		fmt.Fprintf(d.output, "Unknown print target %q (timeline, breakpoints, result).\n", what)
	}
}

// handleHelp prints the command reference.
func (d *Debugger) handleHelp() {
	fmt.Fprint(d.output, `Commands:
  next, n              execute the next tick
  continue, c          run to the next breakpoint or action tick
  run, r               run to completion
  print timeline       show scheduled ticks and their actions
  print breakpoints    show breakpoint ticks
  print result         show the result so far
  help, ?              this help
  quit, q              exit the debugger
`)
}
