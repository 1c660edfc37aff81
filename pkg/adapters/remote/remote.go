// Package remote binds the runner to a live game server over a websocket.
// Every operation is a seq-tagged JSON request answered by a JSON response
// with the same seq; the protocol is strictly request/response on a single
// connection.
package remote

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flintmc/flint/pkg/runner"
	"github.com/flintmc/flint/pkg/spec"
)

// Op names understood by the server side of the protocol.
const (
	opCreateWorld  = "create_world"
	opCreatePlayer = "create_player"
	opSetBlock     = "set_block"
	opGetBlock     = "get_block"
	opTick         = "tick"
	opSetSlot      = "set_slot"
	opSelectHotbar = "select_hotbar"
	opUseItemOn    = "use_item_on"
)

type request struct {
	Seq      int             `json:"seq"`
	Op       string          `json:"op"`
	WorldID  string          `json:"world_id,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Pos      *spec.Pos       `json:"pos,omitempty"`
	Block    *spec.Block     `json:"block,omitempty"`
	Face     spec.BlockFace  `json:"face,omitempty"`
	Slot     spec.PlayerSlot `json:"slot,omitempty"`
	Hotbar   int             `json:"hotbar,omitempty"`
	Item     *spec.Item      `json:"item,omitempty"`
}

type response struct {
	Seq      int         `json:"seq"`
	OK       bool        `json:"ok"`
	Error    string      `json:"error,omitempty"`
	WorldID  string      `json:"world_id,omitempty"`
	PlayerID string      `json:"player_id,omitempty"`
	Block    *spec.Block `json:"block,omitempty"`
}

// Adapter speaks the test protocol to a game server binding.
type Adapter struct {
	conn *websocket.Conn

	mu  sync.Mutex
	seq int
}

// Dial connects to a server binding at a ws:// or wss:// URL.
func Dial(url string) (*Adapter, error) {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Adapter{conn: conn}, nil
}

// Close closes the underlying connection.
func (a *Adapter) Close() error {
	_ = a.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	return a.conn.Close()
}

// call sends one request and waits for its response. The connection carries
// one request at a time; the mutex serializes callers.
func (a *Adapter) call(req request) (*response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	req.Seq = a.seq

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", req.Op, err)
	}
	if err := a.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Op, err)
	}

	_, payload, err := a.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", req.Op, err)
	}
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", req.Op, err)
	}
	if resp.Seq != req.Seq {
		return nil, fmt.Errorf("%s: response seq %d does not match request seq %d", req.Op, resp.Seq, req.Seq)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%s: %s", req.Op, resp.Error)
	}
	return &resp, nil
}

// CreateWorld asks the server for a fresh world.
func (a *Adapter) CreateWorld() (runner.World, error) {
	resp, err := a.call(request{Op: opCreateWorld})
	if err != nil {
		return nil, err
	}
	if resp.WorldID == "" {
		return nil, fmt.Errorf("create_world: server returned no world_id")
	}
	return &World{adapter: a, id: resp.WorldID}, nil
}

// World is a handle to a server-side world.
type World struct {
	adapter *Adapter
	id      string
}

// ID returns the server-assigned world identifier.
func (w *World) ID() string { return w.id }

func (w *World) CreatePlayer() (runner.Player, error) {
	resp, err := w.adapter.call(request{Op: opCreatePlayer, WorldID: w.id})
	if err != nil {
		return nil, err
	}
	if resp.PlayerID == "" {
		return nil, fmt.Errorf("create_player: server returned no player_id")
	}
	return &Player{adapter: w.adapter, worldID: w.id, id: resp.PlayerID}, nil
}

func (w *World) SetBlock(pos spec.Pos, block spec.Block) error {
	_, err := w.adapter.call(request{Op: opSetBlock, WorldID: w.id, Pos: &pos, Block: &block})
	return err
}

func (w *World) GetBlock(pos spec.Pos) (spec.Block, error) {
	resp, err := w.adapter.call(request{Op: opGetBlock, WorldID: w.id, Pos: &pos})
	if err != nil {
		return spec.Block{}, err
	}
	if resp.Block == nil {
		return spec.AirBlock(), nil
	}
	return *resp.Block, nil
}

func (w *World) DoTick() error {
	_, err := w.adapter.call(request{Op: opTick, WorldID: w.id})
	return err
}

// Player is a handle to a server-side player.
type Player struct {
	adapter *Adapter
	worldID string
	id      string
}

func (p *Player) SetSlot(slot spec.PlayerSlot, item *spec.Item) error {
	_, err := p.adapter.call(request{
		Op: opSetSlot, WorldID: p.worldID, PlayerID: p.id, Slot: slot, Item: item,
	})
	return err
}

func (p *Player) SelectHotbar(n int) error {
	_, err := p.adapter.call(request{
		Op: opSelectHotbar, WorldID: p.worldID, PlayerID: p.id, Hotbar: n,
	})
	return err
}

func (p *Player) UseItemOn(pos spec.Pos, face spec.BlockFace) error {
	_, err := p.adapter.call(request{
		Op: opUseItemOn, WorldID: p.worldID, PlayerID: p.id, Pos: &pos, Face: face,
	})
	return err
}
