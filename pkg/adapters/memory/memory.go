// Package memory is an in-memory world adapter. It implements block storage
// and player inventory exactly, and nothing of game mechanics: DoTick only
// counts, UseItemOn only records. It backs engine tests and `--adapter
// memory` runs.
package memory

import (
	"fmt"

	"github.com/flintmc/flint/pkg/runner"
	"github.com/flintmc/flint/pkg/spec"
)

// Adapter creates independent in-memory worlds.
type Adapter struct{}

// New returns a memory adapter.
func New() *Adapter {
	return &Adapter{}
}

// CreateWorld returns a fresh empty world.
func (a *Adapter) CreateWorld() (runner.World, error) {
	return NewWorld(), nil
}

// World is a map-backed block store with a tick counter. Unwritten
// positions read as air.
type World struct {
	blocks map[spec.Pos]spec.Block
	player *Player
	ticks  int
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{blocks: make(map[spec.Pos]spec.Block)}
}

// CreatePlayer spawns the world's single test player.
func (w *World) CreatePlayer() (runner.Player, error) {
	if w.player != nil {
		return nil, fmt.Errorf("player already created")
	}
	w.player = NewPlayer()
	return w.player, nil
}

// Player returns the spawned player, nil if none.
func (w *World) Player() *Player {
	return w.player
}

// SetBlock stores a block. Storing air deletes the position, keeping reads
// and map size consistent with never having written it.
func (w *World) SetBlock(pos spec.Pos, block spec.Block) error {
	if block.IsAir() {
		delete(w.blocks, pos)
		return nil
	}
	w.blocks[pos] = block
	return nil
}

// GetBlock reads a block; absent positions are air.
func (w *World) GetBlock(pos spec.Pos) (spec.Block, error) {
	if block, ok := w.blocks[pos]; ok {
		return block, nil
	}
	return spec.AirBlock(), nil
}

// DoTick advances the tick counter.
func (w *World) DoTick() error {
	w.ticks++
	return nil
}

// Ticks returns how many ticks have elapsed.
func (w *World) Ticks() int {
	return w.ticks
}

// BlockCount returns the number of non-air blocks stored.
func (w *World) BlockCount() int {
	return len(w.blocks)
}

// UseRecord is one recorded UseItemOn call.
type UseRecord struct {
	Pos  spec.Pos
	Face spec.BlockFace
	Held spec.Item
}

// Player records inventory state and item uses.
type Player struct {
	slots    map[spec.PlayerSlot]spec.Item
	selected int
	uses     []UseRecord
}

// NewPlayer returns a player with hotbar slot 1 selected and empty slots.
func NewPlayer() *Player {
	return &Player{slots: make(map[spec.PlayerSlot]spec.Item), selected: 1}
}

// SetSlot stores an item; nil clears the slot.
func (p *Player) SetSlot(slot spec.PlayerSlot, item *spec.Item) error {
	if !slot.Valid() {
		return fmt.Errorf("unknown player slot %q", slot)
	}
	if item == nil || item.ID == "" || (spec.Block{ID: item.ID}).IsAir() {
		delete(p.slots, slot)
		return nil
	}
	p.slots[slot] = *item
	return nil
}

// SelectHotbar changes the active hotbar slot.
func (p *Player) SelectHotbar(n int) error {
	if n < 1 || n > 9 {
		return fmt.Errorf("hotbar slot %d out of range 1-9", n)
	}
	p.selected = n
	return nil
}

// UseItemOn records the use of the held item on a block face.
func (p *Player) UseItemOn(pos spec.Pos, face spec.BlockFace) error {
	p.uses = append(p.uses, UseRecord{Pos: pos, Face: face, Held: p.Held()})
	return nil
}

// Slot returns the item in a slot, empty if unset.
func (p *Player) Slot(slot spec.PlayerSlot) spec.Item {
	if item, ok := p.slots[slot]; ok {
		return item
	}
	return spec.EmptyItem()
}

// Selected returns the active hotbar slot number.
func (p *Player) Selected() int {
	return p.selected
}

// Held returns the item in the active hotbar slot.
func (p *Player) Held() spec.Item {
	slot, _ := spec.HotbarSlot(p.selected)
	return p.Slot(slot)
}

// Uses returns the recorded item uses in order.
func (p *Player) Uses() []UseRecord {
	return p.uses
}
