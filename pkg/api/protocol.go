package api

import (
	"encoding/json"
)

// Типы сообщений сервер -> клиент.
const (
	ResponseResult = "RESULT"
	ResponseEvent  = "EVENT"
	ResponseError  = "ERROR"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerResponse это корневой объект, который сервер отправляет клиенту.
// Это либо ответ на команду (RESULT/ERROR), либо уведомление от контроллера чекпоинтов (EVENT).
type ServerResponse struct {
	// Type тип сообщения: RESULT, EVENT или ERROR.
	Type string `json:"type"`

	// Tick номер команды, обработанной сессией. Растет монотонно.
	Tick int `json:"tick"`

	// Command команда, на которую это ответ (пусто для EVENT).
	Command string `json:"command,omitempty"`

	// Message человекочитаемый итог команды.
	Message string `json:"message,omitempty"`

	// Error текст ошибки для Type == ERROR.
	Error string `json:"error,omitempty"`

	// Event уведомление о чекпоинте.
	Event *EventView `json:"event,omitempty"`

	// State снимок сессии. Отправляется на STATE и после команд, меняющих мир.
	State *StateView `json:"state,omitempty"`

	// Report счетчики прохода SAVE/LOAD.
	Report *ReportView `json:"report,omitempty"`
}

// EventView это DTO события контроллера чекпоинтов.
type EventView struct {
	Type         string `json:"type"` // INITIALIZED, REACHED_CHANGED, ACTIVE_CHANGED, RESPAWNED
	CheckpointID string `json:"checkpointId"`
	Value        bool   `json:"value"`
}

// PoseView это DTO позы в мире.
type PoseView struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

// CheckpointView это DTO одного чекпоинта.
type CheckpointView struct {
	ID       string   `json:"id"`
	EntityID string   `json:"entityId,omitempty"`
	Reached  bool     `json:"reached"`
	Active   bool     `json:"active"`
	Pose     PoseView `json:"pose"`
}

// EntityView это DTO сущности уровня вместе с её компонентами.
type EntityView struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Active     bool           `json:"active"`
	Components map[string]any `json:"components,omitempty"`
}

// StateView снимок сессии для клиента.
type StateView struct {
	Level            string           `json:"level"`
	Loaded           bool             `json:"loaded"`
	ActiveCheckpoint string           `json:"activeCheckpoint,omitempty"`
	Player           PoseView         `json:"player"`
	Checkpoints      []CheckpointView `json:"checkpoints"`
	Entities         []EntityView     `json:"entities,omitempty"`
	SnapshotEntries  int              `json:"snapshotEntries"`
	Codec            string           `json:"codec"`
}

// ReportView это DTO итога Save/Load.
type ReportView struct {
	Scanned  int      `json:"scanned"`
	Skipped  int      `json:"skipped"`
	Written  int      `json:"written,omitempty"`
	Restored int      `json:"restored,omitempty"`
	Missing  int      `json:"missing,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// SlotView описывает слот сохранения.
type SlotView struct {
	Name       string `json:"name"`
	SavedAt    int64  `json:"savedAt"` // Unix milliseconds
	Size       int    `json:"size"`
	EntryCount int    `json:"entryCount"`
}

// SnapshotEntryView описывает запись снапшота без полезной нагрузки.
type SnapshotEntryView struct {
	ObjectID   string `json:"objectId"`
	DataTypeID uint32 `json:"dataTypeId"`
	Size       int    `json:"size"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// Token необязательное имя клиента для логов.
	Token string `json:"token,omitempty"`

	// Action название команды: STATE, TRIGGER, SAVE, LOAD, RESPAWN, EXPORT, IMPORT.
	Action string `json:"action"`

	// Payload JSON-объект с данными для команды. Его структура зависит от Action.
	Payload json.RawMessage `json:"payload"`
}

// --- Payloads ---

// CheckpointPayload используется командой TRIGGER.
type CheckpointPayload struct {
	CheckpointID string `json:"checkpointId"`
}

// MovePayload — шаг игрока (смещение в единицах уровня).
type MovePayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
	DZ float64 `json:"dz"`
}

// SlotPayload используется командами EXPORT и IMPORT.
type SlotPayload struct {
	Slot string `json:"slot"`

	// Apply для IMPORT: сразу применить снапшот к уровню (как LOAD).
	Apply bool `json:"apply,omitempty"`
}
