package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/flintmc/flint/pkg/spec"
)

// fakeServer implements enough of the server side of the protocol to drive
// the adapter: one world, one player, a map-backed block store.
type fakeServer struct {
	upgrader websocket.Upgrader
	blocks   map[spec.Pos]spec.Block
	ticks    int
}

func newFakeServer() *fakeServer {
	return &fakeServer{blocks: make(map[spec.Pos]spec.Block)}
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(payload, &req); err != nil {
			return
		}
		resp := s.handle(req)
		data, _ := json.Marshal(resp)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (s *fakeServer) handle(req request) response {
	resp := response{Seq: req.Seq, OK: true}
	switch req.Op {
	case opCreateWorld:
		resp.WorldID = "w1"
	case opCreatePlayer:
		resp.PlayerID = "p1"
	case opSetBlock:
		s.blocks[*req.Pos] = *req.Block
	case opGetBlock:
		if block, ok := s.blocks[*req.Pos]; ok {
			resp.Block = &block
		}
	case opTick:
		s.ticks++
	case opSetSlot, opSelectHotbar, opUseItemOn:
		// accepted, not modeled
	default:
		resp.OK = false
		resp.Error = "unknown op " + req.Op
	}
	return resp
}

func dialFake(t *testing.T) (*Adapter, *fakeServer) {
	t.Helper()
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	adapter, err := Dial(url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })
	return adapter, fake
}

func TestRemoteWorldRoundTrip(t *testing.T) {
	adapter, fake := dialFake(t)

	world, err := adapter.CreateWorld()
	if err != nil {
		t.Fatal(err)
	}

	lever := spec.BlockWithProperties("minecraft:lever", map[string]string{"powered": "true"})
	if err := world.SetBlock(spec.Pos{1, 0, 1}, lever); err != nil {
		t.Fatal(err)
	}
	got, err := world.GetBlock(spec.Pos{1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "minecraft:lever" || got.Properties["powered"] != "true" {
		t.Errorf("got %+v", got)
	}

	// Positions the server never saw come back as air.
	got, err = world.GetBlock(spec.Pos{9, 9, 9})
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsAir() {
		t.Errorf("unwritten position = %+v, want air", got)
	}

	if err := world.DoTick(); err != nil {
		t.Fatal(err)
	}
	if fake.ticks != 1 {
		t.Errorf("server ticks = %d", fake.ticks)
	}
}

func TestRemotePlayerOps(t *testing.T) {
	adapter, _ := dialFake(t)

	world, err := adapter.CreateWorld()
	if err != nil {
		t.Fatal(err)
	}
	player, err := world.CreatePlayer()
	if err != nil {
		t.Fatal(err)
	}

	torch := spec.ItemWithCount("minecraft:torch", 4)
	if err := player.SetSlot(spec.Hotbar2, &torch); err != nil {
		t.Fatal(err)
	}
	if err := player.SelectHotbar(2); err != nil {
		t.Fatal(err)
	}
	if err := player.UseItemOn(spec.Pos{0, 0, 0}, spec.FaceNorth); err != nil {
		t.Fatal(err)
	}
}

func TestRemoteServerError(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	adapter, err := Dial("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { adapter.Close() })

	if _, err := adapter.call(request{Op: "explode"}); err == nil {
		t.Error("expected error for op the server rejects")
	} else if !strings.Contains(err.Error(), "unknown op") {
		t.Errorf("error = %v", err)
	}
}
