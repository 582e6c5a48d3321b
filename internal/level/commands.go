package level

import (
	"fmt"
	"strings"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/domain"
	"savestate-server/pkg/api"
)

func handleState(ctx Context) (Result, error) {
	state := ctx.Session.StateView(true)
	return Result{State: &state}, nil
}

// handleTrigger - игрок вошел в объем чекпоинта.
func handleTrigger(ctx Context, p api.CheckpointPayload) (Result, error) {
	s := ctx.Session
	if !s.loaded {
		return Result{}, ErrNoLevel
	}

	if !s.controller.TriggerByID(p.CheckpointID) {
		return Result{Message: fmt.Sprintf("checkpoint %s ignored", p.CheckpointID)}, nil
	}

	s.autosave(ctx.Ctx)

	state := s.StateView(false)
	return Result{Message: fmt.Sprintf("checkpoint %s reached", p.CheckpointID), State: &state}, nil
}

// handleMove - шаг игрока. Чекпоинты в радиусе срабатывают как при TRIGGER.
func handleMove(ctx Context, p api.MovePayload) (Result, error) {
	s := ctx.Session
	if !s.loaded {
		return Result{}, ErrNoLevel
	}

	if !s.player.Move(domain.Vec3{X: p.DX, Y: p.DY, Z: p.DZ}) {
		return Result{}, ErrPlayerFrozen
	}

	msg := "moved"
	reached := s.controller.TriggerNear(s.player.Pose().Position, checkpoint.TriggerRadius)
	if len(reached) > 0 {
		s.autosave(ctx.Ctx)
		msg = "moved, reached " + strings.Join(reached, ", ")
	}

	state := s.StateView(false)
	return Result{Message: msg, State: &state}, nil
}

func handleSave(ctx Context) (Result, error) {
	report := ctx.Session.store.Save()
	return Result{
		Message: fmt.Sprintf("saved %d entries", report.Written),
		Report:  &report,
	}, nil
}

func handleLoad(ctx Context) (Result, error) {
	s := ctx.Session
	if !s.loaded {
		return Result{}, ErrNoLevel
	}

	report := s.store.Load()
	state := s.StateView(false)
	return Result{
		Message: fmt.Sprintf("restored %d components", report.Restored),
		Report:  &report,
		State:   &state,
	}, nil
}

func handleRespawn(ctx Context) (Result, error) {
	s := ctx.Session
	if !s.loaded {
		return Result{}, ErrNoLevel
	}

	s.controller.RespawnPlayer()
	state := s.StateView(false)
	return Result{Message: "respawned at " + s.controller.Active().ID(), State: &state}, nil
}

// handleExport пишет текущий снапшот в слот. Сначала нужен SAVE.
func handleExport(ctx Context, p api.SlotPayload) (Result, error) {
	s := ctx.Session
	if s.slots == nil {
		return Result{}, ErrNoSlots
	}

	blob, err := s.store.ExportSnapshot()
	if err != nil {
		return Result{}, err
	}
	if err := s.slots.Put(ctx.Ctx, p.Slot, blob); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("exported %d entries to %s", s.store.Len(), p.Slot)}, nil
}

// handleImport заменяет снапшот содержимым слота. С Apply сразу делает LOAD.
func handleImport(ctx Context, p api.SlotPayload) (Result, error) {
	s := ctx.Session
	if s.slots == nil {
		return Result{}, ErrNoSlots
	}

	slot, err := s.slots.Get(ctx.Ctx, p.Slot)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.ImportSnapshot(slot.Data); err != nil {
		return Result{}, err
	}

	res := Result{Message: fmt.Sprintf("imported %d entries from %s", s.store.Len(), p.Slot)}
	if p.Apply && s.loaded {
		report := s.store.Load()
		state := s.StateView(false)
		res.Report = &report
		res.State = &state
	}
	return res, nil
}
