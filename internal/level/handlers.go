package level

import (
	"context"
	"encoding/json"
	"fmt"

	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
	"savestate-server/pkg/api"
)

// Context передает хендлеру сессию и контекст запроса.
type Context struct {
	Ctx     context.Context
	Session *Session
}

// Result - результат выполнения команды.
// Хендлер не пишет клиенту напрямую, он возвращает данные.
type Result struct {
	Tick    int
	Command domain.CommandType
	Message string
	Report  *persist.Report
	State   *api.StateView
	Err     error
}

// HandlerFunc - контракт для любой команды (TRIGGER, SAVE, ...).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// TypedHandlerFunc - "чистый" хендлер, который работает с готовой структурой T
type TypedHandlerFunc[T any] func(ctx Context, payload T) (Result, error)

// EmptyHandlerFunc - хендлер, которому не нужны данные (STATE, SAVE)
type EmptyHandlerFunc func(ctx Context) (Result, error)

// WithPayload берет "чистый" хендлер и превращает его в стандартный HandlerFunc.
// Она берет на себя Unmarshal и Validate.
func WithPayload[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx Context, raw json.RawMessage) (Result, error) {
		var payload T

		// 1. Распаковка JSON
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Result{}, fmt.Errorf("invalid payload format: %w", err)
		}

		// 2. Автоматическая валидация
		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, fmt.Errorf("validation failed: %w", err)
			}
		}

		// 3. Вызов чистой логики
		return handler(ctx, payload)
	}
}

// WithEmptyPayload - обертка для команд без данных
func WithEmptyPayload(handler EmptyHandlerFunc) HandlerFunc {
	return func(ctx Context, _ json.RawMessage) (Result, error) {
		return handler(ctx)
	}
}

func (s *Session) registerHandlers() {
	s.handlers[domain.CommandState] = WithEmptyPayload(handleState)
	s.handlers[domain.CommandTrigger] = WithPayload(handleTrigger)
	s.handlers[domain.CommandSave] = WithEmptyPayload(handleSave)
	s.handlers[domain.CommandLoad] = WithEmptyPayload(handleLoad)
	s.handlers[domain.CommandRespawn] = WithEmptyPayload(handleRespawn)
	s.handlers[domain.CommandMove] = WithPayload(handleMove)
	s.handlers[domain.CommandExport] = WithPayload(handleExport)
	s.handlers[domain.CommandImport] = WithPayload(handleImport)
}
