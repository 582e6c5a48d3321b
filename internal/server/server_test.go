package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/internal/level"
	"savestate-server/internal/network"
	"savestate-server/pkg/api"
	"savestate-server/pkg/logger"

	"github.com/gorilla/websocket"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	slots, err := storage.NewFileSlots(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hub := network.NewBroadcaster()
	session := level.NewSession(level.Options{
		Slots:        slots,
		AutosaveSlot: "autosave",
		OnEvent:      func(e checkpoint.Event) { hub.Broadcast(level.EventResponse(e)) },
	})
	if err := session.LoadLevel(level.Demo()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	ts := httptest.NewServer(New(session, hub, slots, "0").Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: decode: %v", url, err)
	}
}

func TestHTTP_HealthAndVersion(t *testing.T) {
	ts := startServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	var info map[string]any
	getJSON(t, ts.URL+"/version", &info)
	if _, ok := info["SnapshotFormat"]; !ok {
		t.Errorf("version info = %v", info)
	}
}

func TestHTTP_DebugEndpoints(t *testing.T) {
	ts := startServer(t)

	var cps []api.CheckpointView
	getJSON(t, ts.URL+"/debug/checkpoints", &cps)
	if len(cps) != 4 {
		t.Fatalf("checkpoints = %d, want 4", len(cps))
	}
	if last := cps[len(cps)-1]; last.ID != checkpoint.SpawnID || !last.Active {
		t.Errorf("spawn = %+v", last)
	}

	var entries []api.SnapshotEntryView
	getJSON(t, ts.URL+"/debug/snapshot", &entries)
	if len(entries) != 0 {
		t.Errorf("snapshot before SAVE = %d entries", len(entries))
	}

	var state api.StateView
	getJSON(t, ts.URL+"/debug/state", &state)
	if !state.Loaded || len(state.Entities) != 6 {
		t.Errorf("state = %+v", state)
	}

	var slots []api.SlotView
	getJSON(t, ts.URL+"/debug/slots", &slots)
	if len(slots) != 0 {
		t.Errorf("slots = %+v", slots)
	}
}

func TestWS_TriggerPushesEvents(t *testing.T) {
	ts := startServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=tester"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// Первое сообщение - STATE
	var first api.ServerResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Command != "STATE" || first.State == nil {
		t.Fatalf("first message = %+v", first)
	}

	err = conn.WriteJSON(api.ClientCommand{Action: "trigger", Payload: json.RawMessage(`{"checkpointId":"hall"}`)})
	if err != nil {
		t.Fatal(err)
	}

	var events []api.EventView
	for {
		var msg api.ServerResponse
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type == api.ResponseEvent {
			events = append(events, *msg.Event)
			continue
		}
		if msg.Type != api.ResponseResult || msg.Command != "TRIGGER" {
			t.Fatalf("unexpected message %+v", msg)
		}
		if msg.State == nil || msg.State.ActiveCheckpoint != "hall" {
			t.Errorf("state = %+v", msg.State)
		}
		break
	}

	if len(events) != 3 {
		t.Errorf("events = %+v, want reached + 2 active changes", events)
	}

	// Неизвестная команда - ошибка только этому клиенту
	if err := conn.WriteJSON(api.ClientCommand{Action: "FLY"}); err != nil {
		t.Fatal(err)
	}
	var msg api.ServerResponse
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != api.ResponseError {
		t.Errorf("unknown action response = %+v", msg)
	}

	// Автосохранение после TRIGGER
	var slots []api.SlotView
	getJSON(t, ts.URL+"/debug/slots", &slots)
	if len(slots) != 1 || slots[0].Name != "autosave" {
		t.Errorf("slots = %+v", slots)
	}
}
