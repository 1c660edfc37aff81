// Package spec defines the Go struct types for the flint test specification
// JSON format and provides strict parsing and validation.
package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Maximum allowed cleanup region dimensions, in blocks.
const (
	MaxWidth  = 15
	MaxHeight = 384
	MaxDepth  = 15
)

// Pos is a block position [x, y, z] in world coordinates.
type Pos [3]int

// Region is an inclusive axis-aligned box given by two corner positions.
// Corners may be given in either order; Normalized returns min/max corners.
type Region [2]Pos

// Normalized returns the region with per-axis min in the first corner and
// per-axis max in the second.
func (r Region) Normalized() Region {
	min, max := r[0], r[1]
	for axis := 0; axis < 3; axis++ {
		if min[axis] > max[axis] {
			min[axis], max[axis] = max[axis], min[axis]
		}
	}
	return Region{min, max}
}

// Contains reports whether pos lies within the region (inclusive).
// The region must already be in min/max order.
func (r Region) Contains(pos Pos) bool {
	for axis := 0; axis < 3; axis++ {
		if pos[axis] < r[0][axis] || pos[axis] > r[1][axis] {
			return false
		}
	}
	return true
}

// TestSpec is the top-level document describing one acceptance test.
// It is parsed and validated once at load time and never mutated afterwards.
type TestSpec struct {
	FlintVersion string          `json:"flintVersion,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Setup        *SetupSpec      `json:"setup,omitempty"`
	Timeline     []TimelineEntry `json:"timeline"`
	MinecraftIDs []string        `json:"minecraftIds,omitempty"`
	Breakpoints  []int           `json:"breakpoints,omitempty"`
}

// SetupSpec holds the pre-run world and player state for a test.
type SetupSpec struct {
	Cleanup *CleanupSpec  `json:"cleanup,omitempty"`
	Player  *PlayerConfig `json:"player,omitempty"`
}

// CleanupSpec names the region a test is allowed to touch. Every position
// referenced by the timeline must fall inside it.
type CleanupSpec struct {
	Region Region `json:"region"`
}

// PlayerConfig is the initial inventory state for tests that need a player
// set up before tick 0.
type PlayerConfig struct {
	Inventory      map[PlayerSlot]Item `json:"inventory,omitempty"`
	SelectedHotbar int                 `json:"selected_hotbar,omitempty"`
}

// UnmarshalJSON applies the default hotbar selection (slot 1).
func (p *PlayerConfig) UnmarshalJSON(data []byte) error {
	type alias PlayerConfig
	var a alias
	a.SelectedHotbar = 1
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PlayerConfig(a)
	return nil
}

// Item is something that can be held or placed in a player slot.
type Item struct {
	ID    string `json:"id"`
	Count int    `json:"count,omitempty"`
}

// UnmarshalJSON applies the default stack count (1) when count is omitted.
func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	a := alias{Count: 1}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Item(a)
	return nil
}

// NewItem creates an item with count 1. The id "empty" (and prefixed forms)
// yields an empty slot.
func NewItem(id string) Item {
	if id == "" || id == "empty" || id == "minecraft:empty" {
		return EmptyItem()
	}
	return Item{ID: id, Count: 1}
}

// ItemWithCount creates an item with an explicit stack count.
func ItemWithCount(id string, count int) Item {
	return Item{ID: id, Count: count}
}

// EmptyItem returns the empty-slot sentinel (air with count 0).
func EmptyItem() Item {
	return Item{ID: "minecraft:air", Count: 0}
}

// PlayerSlot names one inventory slot: nine hotbar slots, the off-hand,
// and four armor slots.
type PlayerSlot string

const (
	Hotbar1    PlayerSlot = "hotbar1"
	Hotbar2    PlayerSlot = "hotbar2"
	Hotbar3    PlayerSlot = "hotbar3"
	Hotbar4    PlayerSlot = "hotbar4"
	Hotbar5    PlayerSlot = "hotbar5"
	Hotbar6    PlayerSlot = "hotbar6"
	Hotbar7    PlayerSlot = "hotbar7"
	Hotbar8    PlayerSlot = "hotbar8"
	Hotbar9    PlayerSlot = "hotbar9"
	OffHand    PlayerSlot = "off_hand"
	Helmet     PlayerSlot = "helmet"
	Chestplate PlayerSlot = "chestplate"
	Leggings   PlayerSlot = "leggings"
	Boots      PlayerSlot = "boots"
)

// HotbarSlot converts a hotbar number (1-9) to its PlayerSlot.
func HotbarSlot(n int) (PlayerSlot, bool) {
	if n < 1 || n > 9 {
		return "", false
	}
	return PlayerSlot(fmt.Sprintf("hotbar%d", n)), true
}

// Valid reports whether the slot names a known inventory slot.
func (s PlayerSlot) Valid() bool {
	switch s {
	case Hotbar1, Hotbar2, Hotbar3, Hotbar4, Hotbar5, Hotbar6, Hotbar7,
		Hotbar8, Hotbar9, OffHand, Helmet, Chestplate, Leggings, Boots:
		return true
	}
	return false
}

// BlockFace names the face of a block an item is used on.
type BlockFace string

const (
	FaceTop    BlockFace = "top"    // +Y
	FaceBottom BlockFace = "bottom" // -Y
	FaceNorth  BlockFace = "north"  // -Z
	FaceSouth  BlockFace = "south"  // +Z
	FaceEast   BlockFace = "east"   // +X
	FaceWest   BlockFace = "west"   // -X
)

// Valid reports whether the face names a known block face.
func (f BlockFace) Valid() bool {
	switch f {
	case FaceTop, FaceBottom, FaceNorth, FaceSouth, FaceEast, FaceWest:
		return true
	}
	return false
}

// TickSpec is the tick binding of a timeline entry: either a single tick or
// a list of ticks ("replay this action at each listed tick").
type TickSpec []int

// UnmarshalJSON accepts either a number or an array of numbers.
func (t *TickSpec) UnmarshalJSON(data []byte) error {
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TickSpec{single}
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("'at' must be a tick number or an array of tick numbers")
	}
	*t = TickSpec(many)
	return nil
}

// MarshalJSON emits a bare number for a single tick, an array otherwise.
func (t TickSpec) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]int(t))
}

// BlockPlacement pairs a position with the block to place there.
type BlockPlacement struct {
	Pos   Pos   `json:"pos"`
	Block Block `json:"block"`
}

// BlockCheck is one expectation of an assert action: the block at Pos must
// match Is (per the runner's tolerant matching rules).
type BlockCheck struct {
	Pos Pos   `json:"pos"`
	Is  Block `json:"is"`
}

// MaxTick returns the highest tick referenced by the timeline, 0 if empty.
func (t *TestSpec) MaxTick() int {
	max := 0
	for _, entry := range t.Timeline {
		for _, tick := range entry.At {
			if tick > max {
				max = tick
			}
		}
	}
	return max
}

// CleanupRegion returns the test's cleanup region. The second return is
// false if the spec has no setup.cleanup section (invalid, caught at load).
func (t *TestSpec) CleanupRegion() (Region, bool) {
	if t.Setup == nil || t.Setup.Cleanup == nil {
		return Region{}, false
	}
	return t.Setup.Cleanup.Region, true
}

// LoadFile reads and strictly parses a test spec JSON file. Unknown fields
// are rejected. The result is not yet validated; see ValidateFile.
func LoadFile(path string) (*TestSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test spec: %w", err)
	}
	defer f.Close()
	ts, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// Load strictly parses a test spec from a reader.
func Load(r io.Reader) (*TestSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read test spec: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var ts TestSpec
	if err := dec.Decode(&ts); err != nil {
		return nil, fmt.Errorf("decode test spec: %w", err)
	}
	return &ts, nil
}
