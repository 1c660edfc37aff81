package runner

import "github.com/flintmc/flint/pkg/spec"

// Adapter is the pluggable binding to a game server implementation. The
// engine owns scheduling and assertion checking; the adapter owns world and
// player mechanics. Adapter errors abort only the current test, never the
// batch; assertion mismatches are modeled results and must not surface as
// errors.
type Adapter interface {
	// CreateWorld returns a fresh world for one test run.
	CreateWorld() (World, error)
}

// World is one isolated test world.
type World interface {
	// CreatePlayer spawns the test player. Called at most once per world.
	CreatePlayer() (Player, error)
	// SetBlock places a block at a world position.
	SetBlock(pos spec.Pos, block spec.Block) error
	// GetBlock reads the block at a world position. Positions never
	// written report air.
	GetBlock(pos spec.Pos) (spec.Block, error)
	// DoTick advances the world simulation by one tick.
	DoTick() error
}

// Player is the test player within a world.
type Player interface {
	// SetSlot puts an item into an inventory slot; nil clears the slot.
	SetSlot(slot spec.PlayerSlot, item *spec.Item) error
	// SelectHotbar makes hotbar slot n (1-9) the active one.
	SelectHotbar(n int) error
	// UseItemOn uses the held item on the given face of the block at pos.
	UseItemOn(pos spec.Pos, face spec.BlockFace) error
}
