package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action is the closed set of things a timeline entry can do: mutate the
// world, assert the world, or mutate player state. Dispatch sites switch on
// the concrete type, so adding a variant is a localized, compiler-checked
// change.
type Action interface {
	// Do returns the wire discriminator for this action.
	Do() string
	isAction()
}

// Place sets a single block.
type Place struct {
	Pos   Pos
	Block Block
}

// PlaceEach sets several blocks in one action.
type PlaceEach struct {
	Blocks []BlockPlacement
}

// Fill sets every block in an inclusive region. Corners may be given in
// either order.
type Fill struct {
	Region Region
	With   Block
}

// Remove clears a block (semantically a Place of air).
type Remove struct {
	Pos Pos
}

// Assert checks one or more block expectations atomically. The first
// failing check aborts the owning test.
type Assert struct {
	Checks []BlockCheck
}

// UseItemOn uses an item on a block face. If Item is set (simple mode), it
// is written to hotbar slot 1 and selected before use.
type UseItemOn struct {
	Pos  Pos
	Face BlockFace
	Item string
}

// SetSlot puts an item into a player slot, or clears it when Item is empty.
type SetSlot struct {
	Slot  PlayerSlot
	Item  string
	Count int
}

// SelectHotbar makes hotbar slot Slot (1-9) the active one.
type SelectHotbar struct {
	Slot int
}

func (Place) Do() string        { return "place" }
func (PlaceEach) Do() string    { return "place_each" }
func (Fill) Do() string         { return "fill" }
func (Remove) Do() string       { return "remove" }
func (Assert) Do() string       { return "assert" }
func (UseItemOn) Do() string    { return "use_item_on" }
func (SetSlot) Do() string      { return "set_slot" }
func (SelectHotbar) Do() string { return "select_hotbar" }

func (Place) isAction()        {}
func (PlaceEach) isAction()    {}
func (Fill) isAction()         {}
func (Remove) isAction()       {}
func (Assert) isAction()       {}
func (UseItemOn) isAction()    {}
func (SetSlot) isAction()      {}
func (SelectHotbar) isAction() {}

// TimelineEntry binds an action to one or more ticks. A multi-tick binding
// replays the same action at each listed tick.
type TimelineEntry struct {
	At     TickSpec
	Action Action
}

// timelineEntryWire is the flattened wire form of a timeline entry, shared
// by JSON decoding and schema generation. The slot field is a string for
// set_slot and an integer for select_hotbar, so it stays raw here.
type timelineEntryWire struct {
	At     TickSpec         `json:"at" jsonschema:"required"`
	Do     string           `json:"do" jsonschema:"required,enum=place,enum=place_each,enum=fill,enum=remove,enum=assert,enum=use_item_on,enum=set_slot,enum=select_hotbar"`
	Pos    *Pos             `json:"pos,omitempty"`
	Block  *Block           `json:"block,omitempty"`
	Blocks []BlockPlacement `json:"blocks,omitempty"`
	Region *Region          `json:"region,omitempty"`
	With   *Block           `json:"with,omitempty"`
	Checks []BlockCheck     `json:"checks,omitempty"`
	Face   *BlockFace       `json:"face,omitempty"`
	Item   *string          `json:"item,omitempty"`
	Slot   json.RawMessage  `json:"slot,omitempty" jsonschema:"oneof_type=string;integer"`
	Count  *int             `json:"count,omitempty"`
}

// UnmarshalJSON decodes the flattened wire form and converts it to the
// typed action variant for its "do" discriminator. Unknown fields and
// missing per-action fields are rejected.
func (e *TimelineEntry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var w timelineEntryWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	if len(w.At) == 0 {
		return fmt.Errorf("timeline entry missing required field 'at'")
	}
	action, err := w.action()
	if err != nil {
		return err
	}
	e.At = w.At
	e.Action = action
	return nil
}

// MarshalJSON emits the flattened wire form.
func (e TimelineEntry) MarshalJSON() ([]byte, error) {
	w := timelineEntryWire{At: e.At}
	if e.Action != nil {
		w.Do = e.Action.Do()
	}
	switch a := e.Action.(type) {
	case Place:
		pos, block := a.Pos, a.Block
		w.Pos, w.Block = &pos, &block
	case PlaceEach:
		w.Blocks = a.Blocks
	case Fill:
		region, with := a.Region, a.With
		w.Region, w.With = &region, &with
	case Remove:
		pos := a.Pos
		w.Pos = &pos
	case Assert:
		w.Checks = a.Checks
	case UseItemOn:
		pos, face := a.Pos, a.Face
		w.Pos, w.Face = &pos, &face
		if a.Item != "" {
			item := a.Item
			w.Item = &item
		}
	case SetSlot:
		slot, err := json.Marshal(string(a.Slot))
		if err != nil {
			return nil, err
		}
		w.Slot = slot
		if a.Item != "" {
			item := a.Item
			w.Item = &item
		}
		count := a.Count
		w.Count = &count
	case SelectHotbar:
		slot, err := json.Marshal(a.Slot)
		if err != nil {
			return nil, err
		}
		w.Slot = slot
	}
	return json.Marshal(w)
}

// action converts the wire form to its typed variant, checking that the
// fields the variant needs are present.
func (w *timelineEntryWire) action() (Action, error) {
	switch w.Do {
	case "place":
		if w.Pos == nil || w.Block == nil {
			return nil, fmt.Errorf("'place' requires 'pos' and 'block'")
		}
		return Place{Pos: *w.Pos, Block: *w.Block}, nil

	case "place_each":
		if len(w.Blocks) == 0 {
			return nil, fmt.Errorf("'place_each' requires a non-empty 'blocks' list")
		}
		return PlaceEach{Blocks: w.Blocks}, nil

	case "fill":
		if w.Region == nil || w.With == nil {
			return nil, fmt.Errorf("'fill' requires 'region' and 'with'")
		}
		return Fill{Region: *w.Region, With: *w.With}, nil

	case "remove":
		if w.Pos == nil {
			return nil, fmt.Errorf("'remove' requires 'pos'")
		}
		return Remove{Pos: *w.Pos}, nil

	case "assert":
		if len(w.Checks) == 0 {
			return nil, fmt.Errorf("'assert' requires a non-empty 'checks' list")
		}
		return Assert{Checks: w.Checks}, nil

	case "use_item_on":
		if w.Pos == nil || w.Face == nil {
			return nil, fmt.Errorf("'use_item_on' requires 'pos' and 'face'")
		}
		if !w.Face.Valid() {
			return nil, fmt.Errorf("unknown block face %q", *w.Face)
		}
		item := ""
		if w.Item != nil {
			item = *w.Item
		}
		return UseItemOn{Pos: *w.Pos, Face: *w.Face, Item: item}, nil

	case "set_slot":
		if len(w.Slot) == 0 {
			return nil, fmt.Errorf("'set_slot' requires 'slot'")
		}
		var name string
		if err := json.Unmarshal(w.Slot, &name); err != nil {
			return nil, fmt.Errorf("'set_slot' slot must be a slot name string")
		}
		slot := PlayerSlot(name)
		if !slot.Valid() {
			return nil, fmt.Errorf("unknown player slot %q", name)
		}
		item := ""
		if w.Item != nil {
			item = *w.Item
		}
		count := 1
		if w.Count != nil {
			count = *w.Count
		}
		return SetSlot{Slot: slot, Item: item, Count: count}, nil

	case "select_hotbar":
		if len(w.Slot) == 0 {
			return nil, fmt.Errorf("'select_hotbar' requires 'slot'")
		}
		var n int
		if err := json.Unmarshal(w.Slot, &n); err != nil {
			return nil, fmt.Errorf("'select_hotbar' slot must be a number")
		}
		if n < 1 || n > 9 {
			return nil, fmt.Errorf("'select_hotbar' slot %d out of range 1-9", n)
		}
		return SelectHotbar{Slot: n}, nil

	case "":
		return nil, fmt.Errorf("timeline entry missing required field 'do'")
	default:
		return nil, fmt.Errorf("unknown action %q", w.Do)
	}
}
