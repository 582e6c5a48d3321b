package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"savestate-server/internal/infrastructure/storage"
	"savestate-server/internal/level"
	"savestate-server/pkg/api"
	"savestate-server/pkg/logger"
)

const inspectTimeout = 5 * time.Second

// DebugHandler предоставляет доступ к внутреннему состоянию сессии.
// Всё читается через Inspect, то есть внутри цикла сессии.
type DebugHandler struct {
	Session *level.Session
	Slots   storage.SlotStorage
}

func NewDebugHandler(s *level.Session, slots storage.SlotStorage) *DebugHandler {
	return &DebugHandler{Session: s, Slots: slots}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/snapshot", h.handleSnapshot)
	mux.HandleFunc("/debug/checkpoints", h.handleCheckpoints)
	mux.HandleFunc("/debug/state", h.handleState)
	mux.HandleFunc("/debug/slots", h.handleSlots)
}

// /debug/snapshot - ключи и размеры записей снапшота
func (h *DebugHandler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var entries []api.SnapshotEntryView
	h.inspect(w, r, func(s *level.Session) {
		entries = level.SnapshotEntryViews(s.Store().Snapshot())
	}, func() { writeJSON(w, entries) })
}

// /debug/checkpoints - состояние всех чекпоинтов уровня
func (h *DebugHandler) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	views := []api.CheckpointView{}
	h.inspect(w, r, func(s *level.Session) {
		if s.Loaded() {
			views = level.CheckpointViews(s.Controller())
		}
	}, func() { writeJSON(w, views) })
}

// /debug/state - полный дамп сущностей с компонентами
func (h *DebugHandler) handleState(w http.ResponseWriter, r *http.Request) {
	var state api.StateView
	h.inspect(w, r, func(s *level.Session) {
		state = s.StateView(true)
	}, func() { writeJSON(w, state) })
}

// /debug/slots - список слотов сохранения
func (h *DebugHandler) handleSlots(w http.ResponseWriter, r *http.Request) {
	if h.Slots == nil {
		http.Error(w, "save slots are not configured", http.StatusNotFound)
		return
	}

	infos, err := h.Slots.List(r.Context())
	if err != nil {
		logger.Log.WithError(err).Warn("List slots failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := []api.SlotView{}
	for _, info := range infos {
		views = append(views, level.SlotView(info))
	}
	writeJSON(w, views)
}

func (h *DebugHandler) inspect(w http.ResponseWriter, r *http.Request, fn func(s *level.Session), done func()) {
	ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
	defer cancel()

	if err := h.Session.Inspect(ctx, fn); err != nil {
		http.Error(w, "session is busy: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	done()
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	// Разрешаем запросы с любого источника (нужно для локального debug-клиента)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(data)
}
