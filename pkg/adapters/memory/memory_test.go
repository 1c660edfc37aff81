package memory

import (
	"testing"

	"github.com/flintmc/flint/pkg/spec"
)

func TestWorldBlockStore(t *testing.T) {
	w := NewWorld()

	got, err := w.GetBlock(spec.Pos{0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsAir() {
		t.Errorf("unwritten position = %+v, want air", got)
	}

	if err := w.SetBlock(spec.Pos{1, 2, 3}, spec.NewBlock("stone")); err != nil {
		t.Fatal(err)
	}
	got, _ = w.GetBlock(spec.Pos{1, 2, 3})
	if got.ID != "stone" {
		t.Errorf("block = %q", got.ID)
	}
	if w.BlockCount() != 1 {
		t.Errorf("BlockCount = %d", w.BlockCount())
	}

	// Writing air clears the position.
	if err := w.SetBlock(spec.Pos{1, 2, 3}, spec.AirBlock()); err != nil {
		t.Fatal(err)
	}
	if w.BlockCount() != 0 {
		t.Errorf("BlockCount after air = %d", w.BlockCount())
	}
}

func TestWorldTicks(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 3; i++ {
		if err := w.DoTick(); err != nil {
			t.Fatal(err)
		}
	}
	if w.Ticks() != 3 {
		t.Errorf("Ticks = %d", w.Ticks())
	}
}

func TestWorldSinglePlayer(t *testing.T) {
	w := NewWorld()
	if _, err := w.CreatePlayer(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.CreatePlayer(); err == nil {
		t.Error("second CreatePlayer should fail")
	}
}

func TestPlayerInventory(t *testing.T) {
	p := NewPlayer()
	if p.Selected() != 1 {
		t.Errorf("default selected = %d", p.Selected())
	}

	torch := spec.ItemWithCount("minecraft:torch", 16)
	if err := p.SetSlot(spec.Hotbar2, &torch); err != nil {
		t.Fatal(err)
	}
	if got := p.Slot(spec.Hotbar2); got != torch {
		t.Errorf("slot = %+v", got)
	}
	if got := p.Slot(spec.Hotbar3); got != spec.EmptyItem() {
		t.Errorf("unset slot = %+v, want empty", got)
	}

	// nil clears.
	if err := p.SetSlot(spec.Hotbar2, nil); err != nil {
		t.Fatal(err)
	}
	if got := p.Slot(spec.Hotbar2); got != spec.EmptyItem() {
		t.Errorf("cleared slot = %+v", got)
	}

	if err := p.SetSlot("pocket", &torch); err == nil {
		t.Error("unknown slot should error")
	}
	if err := p.SelectHotbar(0); err == nil {
		t.Error("hotbar 0 should error")
	}
}

func TestPlayerHeldAndUses(t *testing.T) {
	p := NewPlayer()
	lever := spec.NewItem("minecraft:lever")
	if err := p.SetSlot(spec.Hotbar4, &lever); err != nil {
		t.Fatal(err)
	}
	if err := p.SelectHotbar(4); err != nil {
		t.Fatal(err)
	}
	if got := p.Held(); got.ID != "minecraft:lever" {
		t.Errorf("Held = %+v", got)
	}

	if err := p.UseItemOn(spec.Pos{1, 0, 1}, spec.FaceTop); err != nil {
		t.Fatal(err)
	}
	uses := p.Uses()
	if len(uses) != 1 || uses[0].Face != spec.FaceTop || uses[0].Held.ID != "minecraft:lever" {
		t.Errorf("uses = %+v", uses)
	}
}
