package level

import (
	"savestate-server/internal/checkpoint"
	"savestate-server/internal/components"
	"savestate-server/internal/domain"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/internal/persist"
	"savestate-server/pkg/api"
)

// StateView собирает DTO состояния сессии. withEntities добавляет дамп компонентов.
func (s *Session) StateView(withEntities bool) api.StateView {
	view := api.StateView{
		Level:           s.def.Name,
		Loaded:          s.loaded,
		Checkpoints:     []api.CheckpointView{},
		SnapshotEntries: s.store.Len(),
		Codec:           s.store.Codec().Name(),
	}
	if !s.loaded {
		return view
	}

	view.Player = PoseView(s.player.Pose())
	if active := s.controller.Active(); active != nil {
		view.ActiveCheckpoint = active.ID()
	}
	view.Checkpoints = CheckpointViews(s.controller)

	if withEntities {
		for _, e := range s.world.Entities() {
			view.Entities = append(view.Entities, EntityView(e))
		}
	}
	return view
}

func PoseView(p domain.Pose) api.PoseView {
	return api.PoseView{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z, Yaw: p.Yaw}
}

func CheckpointViews(c *checkpoint.Controller) []api.CheckpointView {
	views := []api.CheckpointView{}
	for _, cp := range c.Checkpoints() {
		v := api.CheckpointView{
			ID:      cp.ID(),
			Reached: cp.HasBeenReached(),
			Active:  cp.IsActive(),
			Pose:    PoseView(cp.Pose()),
		}
		if !cp.EntityID().IsNil() {
			v.EntityID = cp.EntityID().String()
		}
		views = append(views, v)
	}
	return views
}

// EntityView показывает логическое состояние компонентов, а не их байты.
func EntityView(e *domain.Entity) api.EntityView {
	v := api.EntityView{
		ID:     e.ID.String(),
		Type:   e.Type,
		Name:   e.Name,
		Active: e.Active,
	}

	for _, c := range e.Components() {
		name, state := componentState(c)
		if name == "" {
			continue
		}
		if v.Components == nil {
			v.Components = make(map[string]any)
		}
		v.Components[name] = state
	}
	return v
}

func componentState(c any) (string, any) {
	switch c := c.(type) {
	case *components.Health:
		return string(components.KindHealth), c.CaptureState()
	case *components.Door:
		return string(components.KindDoor), c.CaptureState()
	case *components.Container:
		return string(components.KindContainer), c.CaptureState()
	case *components.Body:
		return "body", PoseView(c.Pose())
	case *checkpoint.Controller:
		return "checkpoints", c.CaptureState()
	}
	return "", nil
}

func EventView(e checkpoint.Event) api.EventView {
	return api.EventView{Type: e.Type.String(), CheckpointID: e.CheckpointID, Value: e.Value}
}

func ReportView(r persist.Report) api.ReportView {
	v := api.ReportView{
		Scanned:  r.Scanned,
		Skipped:  r.Skipped,
		Written:  r.Written,
		Restored: r.Restored,
		Missing:  r.Missing,
	}
	for _, err := range r.Errors {
		v.Errors = append(v.Errors, err.Error())
	}
	return v
}

func SlotView(info storage.SlotInfo) api.SlotView {
	return api.SlotView{
		Name:       info.Name,
		SavedAt:    info.SavedAt.UnixMilli(),
		Size:       info.Size,
		EntryCount: info.EntryCount,
	}
}

func SnapshotEntryViews(snap *domain.Snapshot) []api.SnapshotEntryView {
	views := []api.SnapshotEntryView{}
	for _, e := range snap.Entries() {
		views = append(views, api.SnapshotEntryView{
			ObjectID:   e.ObjectID.String(),
			DataTypeID: uint32(e.DataTypeID),
			Size:       len(e.Payload),
		})
	}
	return views
}

// Response переводит результат команды в сообщение клиенту.
func (r Result) Response() api.ServerResponse {
	resp := api.ServerResponse{
		Type:    api.ResponseResult,
		Tick:    r.Tick,
		Command: r.Command.String(),
		Message: r.Message,
		State:   r.State,
	}
	if r.Report != nil {
		report := ReportView(*r.Report)
		resp.Report = &report
	}
	if r.Err != nil {
		resp.Type = api.ResponseError
		resp.Error = r.Err.Error()
	}
	return resp
}

// EventResponse оборачивает событие чекпоинта.
func EventResponse(e checkpoint.Event) api.ServerResponse {
	view := EventView(e)
	return api.ServerResponse{Type: api.ResponseEvent, Event: &view}
}
