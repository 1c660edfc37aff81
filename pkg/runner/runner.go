// Package runner drives test timelines against a world adapter: one session
// per test, ticks executed in order, fail-fast on the first failing
// assertion.
package runner

import (
	"fmt"
	"time"

	"github.com/flintmc/flint/pkg/results"
	"github.com/flintmc/flint/pkg/spatial"
	"github.com/flintmc/flint/pkg/spec"
	"github.com/flintmc/flint/pkg/timeline"
)

// State is the lifecycle of a session.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Session executes one test's timeline tick by tick. The debugger drives it
// a tick at a time; Run drives it to completion.
type Session struct {
	adapter Adapter
	spec    *spec.TestSpec
	offset  spatial.Offset
	agg     *timeline.Aggregate

	world  World
	player Player

	state  State
	tick   int
	result *results.TestResult
	start  time.Time
}

// NewSession prepares a session for one test at a world offset. The spec
// must already be validated.
func NewSession(adapter Adapter, ts *spec.TestSpec, offset spatial.Offset) *Session {
	return &Session{
		adapter: adapter,
		spec:    ts,
		offset:  offset,
		agg: timeline.FromSpecs([]timeline.Placed{
			{Spec: ts, Offset: offset},
		}),
		result: results.NewTestResult(ts.Name),
	}
}

// State returns the session lifecycle state.
func (s *Session) State() State { return s.state }

// CurrentTick returns the next tick to execute.
func (s *Session) CurrentTick() int { return s.tick }

// Timeline returns the session's aggregated schedule.
func (s *Session) Timeline() *timeline.Aggregate { return s.agg }

// Start creates the world and applies the player setup. Player setup is
// eager when the spec declares one; otherwise the player is created lazily
// on the first player action.
func (s *Session) Start() error {
	if s.state != StateNotStarted {
		return fmt.Errorf("session already started")
	}
	s.start = time.Now()

	world, err := s.adapter.CreateWorld()
	if err != nil {
		s.fail(fmt.Sprintf("create world: %v", err))
		return nil
	}
	s.world = world

	if s.spec.Setup != nil && s.spec.Setup.Player != nil {
		if err := s.setupPlayer(s.spec.Setup.Player); err != nil {
			s.fail(fmt.Sprintf("player setup: %v", err))
			return nil
		}
	}

	s.state = StateRunning
	return nil
}

// setupPlayer applies the declared inventory and hotbar selection.
func (s *Session) setupPlayer(cfg *spec.PlayerConfig) error {
	player, err := s.ensurePlayer()
	if err != nil {
		return err
	}
	for slot, item := range cfg.Inventory {
		it := item
		if err := player.SetSlot(slot, &it); err != nil {
			return fmt.Errorf("set slot %s: %w", slot, err)
		}
	}
	if err := player.SelectHotbar(cfg.SelectedHotbar); err != nil {
		return fmt.Errorf("select hotbar %d: %w", cfg.SelectedHotbar, err)
	}
	return nil
}

// ensurePlayer creates the player on first use.
func (s *Session) ensurePlayer() (Player, error) {
	if s.player != nil {
		return s.player, nil
	}
	player, err := s.world.CreatePlayer()
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	s.player = player
	return player, nil
}

// StepTick executes all actions scheduled at the current tick, then
// advances the world by one tick. The first failing assertion ends the
// session at this tick; later actions do not run.
func (s *Session) StepTick() error {
	if s.state != StateRunning {
		return fmt.Errorf("session is %s", s.state)
	}
	tick := s.tick

	for _, entry := range s.agg.EntriesAt(tick) {
		if err := s.executeAction(tick, entry.Entry.Action); err != nil {
			s.fail(fmt.Sprintf("tick %d: %v", tick, err))
			return nil
		}
		if s.state == StateFailed {
			return nil
		}
	}

	if err := s.world.DoTick(); err != nil {
		s.fail(fmt.Sprintf("tick %d: advance world: %v", tick, err))
		return nil
	}

	s.result.TotalTicks = tick
	s.tick++
	if s.tick > s.agg.MaxTick {
		s.state = StateCompleted
	}
	return nil
}

// Run drives the session from its current position to completion.
func (s *Session) Run() error {
	if s.state == StateNotStarted {
		if err := s.Start(); err != nil {
			return err
		}
	}
	for s.state == StateRunning {
		if err := s.StepTick(); err != nil {
			return err
		}
	}
	return nil
}

// Result finalizes and returns the test result. Valid once the session has
// left the running state.
func (s *Session) Result() *results.TestResult {
	done := s.state == StateCompleted || s.state == StateFailed
	if done && !s.start.IsZero() && s.result.ExecutionTimeMs == 0 {
		s.result.ExecutionTimeMs = time.Since(s.start).Milliseconds()
	}
	if s.offset != (spatial.Offset{}) {
		off := s.offset
		s.result.Offset = &off
	}
	return s.result
}

// fail ends the session with a non-assertion failure at the current tick.
func (s *Session) fail(reason string) {
	s.result.Fail(reason)
	s.result.TotalTicks = s.tick
	s.state = StateFailed
}

// executeAction dispatches one timeline action. Assertion mismatches flip
// the session to failed directly; returned errors are adapter failures.
func (s *Session) executeAction(tick int, action spec.Action) error {
	switch a := action.(type) {
	case spec.Place:
		return s.world.SetBlock(spatial.ApplyOffset(a.Pos, s.offset), a.Block)

	case spec.PlaceEach:
		for _, placement := range a.Blocks {
			if err := s.world.SetBlock(spatial.ApplyOffset(placement.Pos, s.offset), placement.Block); err != nil {
				return err
			}
		}
		return nil

	case spec.Fill:
		region := spatial.ApplyOffsetToRegion(a.Region.Normalized(), s.offset)
		for x := region[0][0]; x <= region[1][0]; x++ {
			for y := region[0][1]; y <= region[1][1]; y++ {
				for z := region[0][2]; z <= region[1][2]; z++ {
					if err := s.world.SetBlock(spec.Pos{x, y, z}, a.With); err != nil {
						return err
					}
				}
			}
		}
		return nil

	case spec.Remove:
		return s.world.SetBlock(spatial.ApplyOffset(a.Pos, s.offset), spec.AirBlock())

	case spec.Assert:
		return s.executeAssert(tick, a)

	case spec.UseItemOn:
		player, err := s.ensurePlayer()
		if err != nil {
			return err
		}
		if a.Item != "" {
			item := spec.NewItem(a.Item)
			if err := player.SetSlot(spec.Hotbar1, &item); err != nil {
				return err
			}
			if err := player.SelectHotbar(1); err != nil {
				return err
			}
		}
		return player.UseItemOn(spatial.ApplyOffset(a.Pos, s.offset), a.Face)

	case spec.SetSlot:
		player, err := s.ensurePlayer()
		if err != nil {
			return err
		}
		if a.Item == "" {
			return player.SetSlot(a.Slot, nil)
		}
		item := spec.ItemWithCount(a.Item, a.Count)
		return player.SetSlot(a.Slot, &item)

	case spec.SelectHotbar:
		player, err := s.ensurePlayer()
		if err != nil {
			return err
		}
		return player.SelectHotbar(a.Slot)
	}
	return fmt.Errorf("unknown action %T", action)
}

// executeAssert evaluates the checks of one assert action. The first
// mismatch records the failure, pins the tick count, and ends the session;
// all checks passing records a single success for the action.
func (s *Session) executeAssert(tick int, a spec.Assert) error {
	for _, check := range a.Checks {
		actual, err := s.world.GetBlock(spatial.ApplyOffset(check.Pos, s.offset))
		if err != nil {
			return fmt.Errorf("read block at [%d, %d, %d]: %w", check.Pos[0], check.Pos[1], check.Pos[2], err)
		}
		if !check.Is.Matches(actual) {
			pos := check.Pos
			s.result.AddAssertion(results.Failed(results.AssertFailure{
				Tick:     tick,
				Message:  fmt.Sprintf("block at [%d, %d, %d] does not match", pos[0], pos[1], pos[2]),
				Position: &pos,
				Expected: results.BlockInfo(check.Is),
				Actual:   results.BlockInfo(actual),
			}))
			s.result.TotalTicks = tick
			s.state = StateFailed
			return nil
		}
	}
	s.result.AddAssertion(results.Success(tick))
	return nil
}

// RunTest executes a single test at the origin.
func RunTest(adapter Adapter, ts *spec.TestSpec) *results.TestResult {
	return RunTestAt(adapter, ts, spatial.Offset{})
}

// RunTestAt executes a single test at a world offset.
func RunTestAt(adapter Adapter, ts *spec.TestSpec, offset spatial.Offset) *results.TestResult {
	session := NewSession(adapter, ts, offset)
	// Session errors are folded into the result; Run only fails on misuse.
	_ = session.Run()
	return session.Result()
}

// RunTests executes a batch sequentially and independently, each test in a
// fresh world at its grid offset. One result per spec, always: a test
// failing (or its world failing to come up) never stops the batch.
func RunTests(adapter Adapter, specs []*spec.TestSpec) *results.TestSummary {
	return runBatch(adapter, specs, false)
}

// RunTestsFailFast executes a batch like RunTests but stops after the first
// failing test; the summary covers only the tests that ran.
func RunTestsFailFast(adapter Adapter, specs []*spec.TestSpec) *results.TestSummary {
	return runBatch(adapter, specs, true)
}

func runBatch(adapter Adapter, specs []*spec.TestSpec, failFast bool) *results.TestSummary {
	offsets := spatial.AllOffsets(len(specs), spatial.DefaultCellSize)
	batch := make([]*results.TestResult, 0, len(specs))
	for i, ts := range specs {
		result := RunTestAt(adapter, ts, offsets[i])
		batch = append(batch, result)
		if failFast && !result.Success {
			break
		}
	}
	return results.FromResults(batch)
}
