// Package timeline merges the timelines of a batch of tests into one
// tick-indexed schedule. Aggregation is pure bookkeeping over already
// validated specs and cannot fail.
package timeline

import (
	"sort"

	"github.com/flintmc/flint/pkg/spatial"
	"github.com/flintmc/flint/pkg/spec"
)

// Placed pairs a test spec with its world offset in the batch.
type Placed struct {
	Spec   *spec.TestSpec
	Offset spatial.Offset
}

// Entry is one scheduled occurrence of a timeline action. A multi-tick
// binding (at: [0, 5, 10]) yields one Entry per tick, distinguished by
// ValueIndex (0 for the first listed tick, 1 for the second, and so on).
type Entry struct {
	TestIndex  int
	Entry      *spec.TimelineEntry
	ValueIndex int
}

// Aggregate is the merged schedule of a batch: per-tick entry bags plus the
// union of every test's breakpoints. Within a tick, entries keep test order
// first and timeline order within each test.
type Aggregate struct {
	ByTick      map[int][]Entry
	MaxTick     int
	Breakpoints map[int]bool
}

// FromSpecs builds the aggregate schedule for an ordered batch.
func FromSpecs(placed []Placed) *Aggregate {
	agg := &Aggregate{
		ByTick:      make(map[int][]Entry),
		Breakpoints: make(map[int]bool),
	}
	for testIndex, p := range placed {
		for i := range p.Spec.Timeline {
			entry := &p.Spec.Timeline[i]
			for valueIndex, tick := range entry.At {
				agg.ByTick[tick] = append(agg.ByTick[tick], Entry{
					TestIndex:  testIndex,
					Entry:      entry,
					ValueIndex: valueIndex,
				})
				if tick > agg.MaxTick {
					agg.MaxTick = tick
				}
			}
		}
		for _, bp := range p.Spec.Breakpoints {
			agg.Breakpoints[bp] = true
		}
	}
	return agg
}

// EntriesAt returns the entries scheduled at tick, nil if none.
func (a *Aggregate) EntriesAt(tick int) []Entry {
	return a.ByTick[tick]
}

// UniqueTickCount returns the number of distinct ticks with at least one
// scheduled entry.
func (a *Aggregate) UniqueTickCount() int {
	return len(a.ByTick)
}

// ActionTicks returns every tick with at least one scheduled entry, sorted.
func (a *Aggregate) ActionTicks() []int {
	ticks := make([]int, 0, len(a.ByTick))
	for tick := range a.ByTick {
		ticks = append(ticks, tick)
	}
	sort.Ints(ticks)
	return ticks
}

// NextActionTick returns the first tick strictly after the given tick with a
// scheduled entry. The second return is false when no such tick exists.
func (a *Aggregate) NextActionTick(after int) (int, bool) {
	next, found := 0, false
	for tick := range a.ByTick {
		if tick > after && (!found || tick < next) {
			next, found = tick, true
		}
	}
	return next, found
}

// NextBreakpoint returns the first breakpoint strictly after the given tick.
func (a *Aggregate) NextBreakpoint(after int) (int, bool) {
	next, found := 0, false
	for tick := range a.Breakpoints {
		if tick > after && (!found || tick < next) {
			next, found = tick, true
		}
	}
	return next, found
}

// NextEventTick returns the first tick strictly after the given tick that is
// either an action tick or a breakpoint, whichever comes first.
func (a *Aggregate) NextEventTick(after int) (int, bool) {
	action, haveAction := a.NextActionTick(after)
	bp, haveBP := a.NextBreakpoint(after)
	switch {
	case haveAction && haveBP:
		if bp < action {
			return bp, true
		}
		return action, true
	case haveAction:
		return action, true
	case haveBP:
		return bp, true
	}
	return 0, false
}
