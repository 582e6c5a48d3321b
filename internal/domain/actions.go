package domain

import (
	"encoding/json"
	"strings"
)

// CommandType - внутренний числовой идентификатор команды сессии уровня
type CommandType uint8

const (
	CommandUnknown CommandType = iota
	CommandState
	CommandTrigger
	CommandSave
	CommandLoad
	CommandRespawn
	CommandExport
	CommandImport
	CommandMove
)

// Маппинг для конвертации JSON -> Domain
var commandStringToType = map[string]CommandType{
	"STATE":   CommandState,
	"TRIGGER": CommandTrigger,
	"SAVE":    CommandSave,
	"LOAD":    CommandLoad,
	"RESPAWN": CommandRespawn,
	"EXPORT":  CommandExport,
	"IMPORT":  CommandImport,
	"MOVE":    CommandMove,
}

// Маппинг для логов Domain -> String
var commandTypeToString = map[CommandType]string{
	CommandState:   "STATE",
	CommandTrigger: "TRIGGER",
	CommandSave:    "SAVE",
	CommandLoad:    "LOAD",
	CommandRespawn: "RESPAWN",
	CommandExport:  "EXPORT",
	CommandImport:  "IMPORT",
	CommandMove:    "MOVE",
}

// ParseCommand конвертирует строку из JSON в CommandType
func ParseCommand(s string) CommandType {
	// Делаем нечувствительным к регистру для надежности
	if val, ok := commandStringToType[strings.ToUpper(s)]; ok {
		return val
	}
	return CommandUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (c CommandType) String() string {
	if val, ok := commandTypeToString[c]; ok {
		return val
	}
	return "UNKNOWN"
}

// InternalCommand - команда для цикла сессии.
type InternalCommand struct {
	Type    CommandType
	Source  string          // кто прислал (id клиента), только для логов
	Payload json.RawMessage // сырые данные (парсятся хендлером)
}
