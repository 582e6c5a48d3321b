package level

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/components"
	"savestate-server/internal/domain"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestSlots(t *testing.T) *storage.FileSlots {
	t.Helper()
	slots, err := storage.NewFileSlots(t.TempDir())
	if err != nil {
		t.Fatalf("file slots: %v", err)
	}
	return slots
}

func loadedSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := NewSession(opts)
	if err := s.LoadLevel(Demo()); err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	return s
}

func exec(t *testing.T, s *Session, typ domain.CommandType, payload string) Result {
	t.Helper()
	cmd := domain.InternalCommand{Type: typ, Source: "test"}
	if payload != "" {
		cmd.Payload = json.RawMessage(payload)
	}
	return s.Execute(context.Background(), cmd)
}

func mustOK(t *testing.T, res Result) Result {
	t.Helper()
	if res.Err != nil {
		t.Fatalf("%s failed: %v", res.Command, res.Err)
	}
	return res
}

func door(t *testing.T, s *Session) *components.Door {
	t.Helper()
	d, ok := domain.ComponentOf[*components.Door](s.World().GetEntity(11))
	if !ok {
		t.Fatal("demo door not found")
	}
	return d
}

func TestLoadLevel_BuildsGraph(t *testing.T) {
	var events []checkpoint.Event
	s := loadedSession(t, Options{OnEvent: func(e checkpoint.Event) { events = append(events, e) }})

	// игрок, 4 сущности, сущность уровня
	if s.World().Len() != 6 {
		t.Errorf("entities = %d, want 6", s.World().Len())
	}
	if got := s.Controller().Active().ID(); got != checkpoint.SpawnID {
		t.Errorf("active = %s, want spawn", got)
	}
	if len(s.Controller().Checkpoints()) != 4 {
		t.Errorf("checkpoints = %d, want 4", len(s.Controller().Checkpoints()))
	}
	if stash := s.World().GetEntity(13); stash == nil || stash.Active {
		t.Error("inactive stash must be registered and stay inactive")
	}
	if len(events) != 1 || events[0].Type != checkpoint.EventInitialized {
		t.Errorf("events = %+v, want one INITIALIZED", events)
	}

	if err := s.LoadLevel(Demo()); !errors.Is(err, ErrLevelLoaded) {
		t.Errorf("second LoadLevel err = %v", err)
	}
}

func TestLoadLevel_BadComponent(t *testing.T) {
	def := Demo()
	def.Entities[0].Components = append(def.Entities[0].Components, components.Spec{Kind: "laser"})

	s := NewSession(Options{})
	if err := s.LoadLevel(def); err == nil {
		t.Fatal("expected error for unknown component kind")
	}
	if s.Loaded() {
		t.Error("failed load left session loaded")
	}
}

func TestSession_SaveLoad(t *testing.T) {
	s := loadedSession(t, Options{})

	mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"gate"}`))
	d := door(t, s)
	d.Unlock("rusty")
	_ = d.Toggle()

	res := mustOK(t, exec(t, s, domain.CommandSave, ""))
	if res.Report == nil || res.Report.Written != 7 {
		t.Fatalf("save report = %+v", res.Report)
	}

	// Портим мир и откатываемся
	_ = d.Toggle()
	d.Locked = true
	s.Player().Move(domain.Vec3{X: 50})

	res = mustOK(t, exec(t, s, domain.CommandLoad, ""))
	if res.Report.Restored != 7 || res.Report.Err() != nil {
		t.Fatalf("load report = %+v", res.Report)
	}
	if !d.Open || d.Locked {
		t.Errorf("door = %+v, want open and unlocked", d)
	}
	if s.Player().Pose().Position.X != 0 {
		t.Errorf("player X = %v, want 0", s.Player().Pose().Position.X)
	}
	if s.Controller().Active().ID() != "gate" {
		t.Errorf("active = %s, want gate", s.Controller().Active().ID())
	}
}

func TestSession_ReloadRestoresState(t *testing.T) {
	s := loadedSession(t, Options{})

	mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"hall"}`))
	chest, _ := domain.ComponentOf[*components.Container](s.World().GetEntity(12))
	chest.Take("gold", 25)

	s.UnloadLevel()
	if s.Loaded() || len(s.Entities()) != 0 {
		t.Fatal("unload left the graph behind")
	}

	if err := s.LoadLevel(Demo()); err != nil {
		t.Fatal(err)
	}
	if got := s.Controller().Active().ID(); got != "hall" {
		t.Errorf("active after reload = %s, want hall", got)
	}
	chest, _ = domain.ComponentOf[*components.Container](s.World().GetEntity(12))
	if _, ok := chest.Items["gold"]; ok {
		t.Errorf("chest restocked after reload: %v", chest.Items)
	}
}

func TestSession_Respawn(t *testing.T) {
	s := loadedSession(t, Options{})

	mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"vault"}`))
	s.Player().Move(domain.Vec3{X: 3, Z: 7})

	res := mustOK(t, exec(t, s, domain.CommandRespawn, ""))
	want := domain.Pose{Position: domain.Vec3{X: 30}}
	if s.Player().Pose() != want {
		t.Errorf("pose = %+v, want %+v", s.Player().Pose(), want)
	}
	if s.Player().Suspended() {
		t.Error("body left suspended")
	}
	if res.State == nil || res.State.ActiveCheckpoint != "vault" {
		t.Errorf("state = %+v", res.State)
	}
}

func TestSession_TriggerIgnored(t *testing.T) {
	s := loadedSession(t, Options{})

	mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"hall"}`))
	res := mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"gate"}`))
	if res.State != nil {
		t.Error("ignored trigger should not carry state")
	}
	mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"hall"}`))
	if s.Controller().Active().ID() != "hall" {
		t.Errorf("active = %s, want hall", s.Controller().Active().ID())
	}
}

func TestSession_Autosave(t *testing.T) {
	slots := newTestSlots(t)
	s := loadedSession(t, Options{Slots: slots, AutosaveSlot: "autosave"})

	mustOK(t, exec(t, s, domain.CommandTrigger, `{"checkpointId":"gate"}`))

	slot, err := slots.Get(context.Background(), "autosave")
	if err != nil {
		t.Fatalf("autosave slot: %v", err)
	}
	if slot.EntryCount != 7 {
		t.Errorf("autosave entries = %d, want 7", slot.EntryCount)
	}
}

func TestSession_MoveTriggersNearbyCheckpoint(t *testing.T) {
	slots := newTestSlots(t)
	s := loadedSession(t, Options{Slots: slots, AutosaveSlot: "autosave"})

	// 9.5: в радиусе gate (x=10)
	res := mustOK(t, exec(t, s, domain.CommandMove, `{"dx":9.5}`))
	if res.Message != "moved, reached gate" {
		t.Errorf("message = %q", res.Message)
	}
	if s.Controller().Active().ID() != "gate" {
		t.Errorf("active = %s, want gate", s.Controller().Active().ID())
	}
	if res.State == nil || res.State.Player.X != 9.5 {
		t.Errorf("state = %+v", res.State)
	}
	if _, err := slots.Get(context.Background(), "autosave"); err != nil {
		t.Errorf("autosave after reach: %v", err)
	}

	// 14.5: между чекпоинтами
	res = mustOK(t, exec(t, s, domain.CommandMove, `{"dx":5}`))
	if res.Message != "moved" || s.Controller().Active().ID() != "gate" {
		t.Errorf("message = %q, active = %s", res.Message, s.Controller().Active().ID())
	}

	// Назад на gate: уже достигнут, ничего не происходит
	res = mustOK(t, exec(t, s, domain.CommandMove, `{"dx":-4.5}`))
	if res.Message != "moved" {
		t.Errorf("message on reached gate = %q", res.Message)
	}
}

func TestSession_ExportImportAcrossSessions(t *testing.T) {
	slots := newTestSlots(t)

	s1 := loadedSession(t, Options{Slots: slots})
	mustOK(t, exec(t, s1, domain.CommandTrigger, `{"checkpointId":"hall"}`))
	golem, _ := domain.ComponentOf[*components.Health](s1.World().GetEntity(10))
	golem.TakeDamage(100)
	mustOK(t, exec(t, s1, domain.CommandSave, ""))
	mustOK(t, exec(t, s1, domain.CommandExport, `{"slot":"slot1"}`))

	s2 := loadedSession(t, Options{Slots: slots})
	res := mustOK(t, exec(t, s2, domain.CommandImport, `{"slot":"slot1","apply":true}`))
	if res.Report == nil || res.Report.Restored != 7 {
		t.Fatalf("import report = %+v", res.Report)
	}

	if s2.Controller().Active().ID() != "hall" {
		t.Errorf("active = %s, want hall", s2.Controller().Active().ID())
	}
	golem2, _ := domain.ComponentOf[*components.Health](s2.World().GetEntity(10))
	if !golem2.IsDead {
		t.Error("golem should be dead after import")
	}
}

func TestSession_CommandErrors(t *testing.T) {
	empty := NewSession(Options{})
	loaded := loadedSession(t, Options{})

	tests := []struct {
		name    string
		s       *Session
		typ     domain.CommandType
		payload string
		wantErr error
	}{
		{"trigger without level", empty, domain.CommandTrigger, `{"checkpointId":"gate"}`, ErrNoLevel},
		{"load without level", empty, domain.CommandLoad, "", ErrNoLevel},
		{"respawn without level", empty, domain.CommandRespawn, "", ErrNoLevel},
		{"move without level", empty, domain.CommandMove, `{"dx":1}`, ErrNoLevel},
		{"move too far", loaded, domain.CommandMove, `{"dx":50}`, nil},
		{"export without slots", loaded, domain.CommandExport, `{"slot":"a"}`, ErrNoSlots},
		{"import without slots", loaded, domain.CommandImport, `{"slot":"a"}`, ErrNoSlots},
		{"unknown", loaded, domain.CommandUnknown, "", ErrUnknownCommand},
		{"trigger bad payload", loaded, domain.CommandTrigger, `{}`, nil},
		{"export bad slot", loaded, domain.CommandExport, `{"slot":"../x"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec(t, tt.s, tt.typ, tt.payload)
			if res.Err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("err = %v, want %v", res.Err, tt.wantErr)
			}
			if resp := res.Response(); resp.Type != "ERROR" || resp.Error == "" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestSession_ImportMissingSlot(t *testing.T) {
	s := loadedSession(t, Options{Slots: newTestSlots(t)})
	res := exec(t, s, domain.CommandImport, `{"slot":"nothing"}`)
	if !errors.Is(res.Err, storage.ErrSlotNotFound) {
		t.Errorf("err = %v, want ErrSlotNotFound", res.Err)
	}
}

func TestSession_RunLoop(t *testing.T) {
	s := loadedSession(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()

	res, err := s.Submit(reqCtx, domain.InternalCommand{Type: domain.CommandTrigger, Payload: json.RawMessage(`{"checkpointId":"gate"}`)})
	if err != nil || res.Err != nil {
		t.Fatalf("submit: %v / %v", err, res.Err)
	}
	if res.Tick != 1 {
		t.Errorf("tick = %d, want 1", res.Tick)
	}

	var active string
	if err := s.Inspect(reqCtx, func(s *Session) { active = s.Controller().Active().ID() }); err != nil {
		t.Fatal(err)
	}
	if active != "gate" {
		t.Errorf("active = %s, want gate", active)
	}

	res, _ = s.Submit(reqCtx, domain.InternalCommand{Type: domain.CommandState})
	if res.State == nil || len(res.State.Entities) != 6 {
		t.Errorf("state = %+v", res.State)
	}

	cancel()
	<-done
}

func TestParseDefinition(t *testing.T) {
	data, err := json.Marshal(Demo())
	if err != nil {
		t.Fatal(err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		t.Fatalf("demo does not parse back: %v", err)
	}
	if len(def.Checkpoints) != 3 || def.Player.ID != 1 {
		t.Errorf("parsed = %+v", def)
	}

	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{`},
		{"no level id", `{"player":{"id":"1"}}`},
		{"no player id", `{"id":"1000"}`},
		{"player equals level", `{"id":"5","player":{"id":"5"}}`},
		{"entity without id", `{"id":"1000","player":{"id":"1"},"entities":[{"name":"box"}]}`},
		{"entity duplicates player", `{"id":"1000","player":{"id":"1"},"entities":[{"id":"1","name":"box"}]}`},
		{"entity without name", `{"id":"1000","player":{"id":"1"},"entities":[{"id":"7"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDefinition([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDefinition_File(t *testing.T) {
	path := t.TempDir() + "/level.json"
	data, _ := json.Marshal(Demo())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefinition(path); err != nil {
		t.Errorf("LoadDefinition: %v", err)
	}
	if _, err := LoadDefinition(path + ".missing"); err == nil {
		t.Error("expected error for missing file")
	}
}
