package domain

import (
	"fmt"
	"strconv"
)

// StableID — внешний, неизменяемый идентификатор persistable-компонента.
//
// Выдается инструментом редактора/сборки (здесь не генерируется) и остается
// одинаковым между запусками процесса. Нулевое значение невалидно.
type StableID uint64

// NilStableID — отсутствующий идентификатор. Компонент с таким ID не может
// участвовать в сохранении.
const NilStableID StableID = 0

// IsNil проверяет, является ли идентификатор нулевым.
func (id StableID) IsNil() bool {
	return id == NilStableID
}

// String для логов.
func (id StableID) String() string {
	if id.IsNil() {
		return "<nil>"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// MarshalJSON сериализует ID в строку, так как JS теряет точность для больших uint64.
func (id StableID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(id), 10) + `"`), nil
}

// UnmarshalJSON парсит строку или число из JSON.
func (id *StableID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*id = NilStableID
		return nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid stable id %q: %w", s, err)
	}
	*id = StableID(v)
	return nil
}

// TypeTag отличает вид сохраняемого состояния. Одна сущность может иметь
// несколько независимых persistable-граней, у каждой свой TypeTag.
type TypeTag uint32

// SnapshotKey — уникальный ключ записи в снапшоте.
type SnapshotKey struct {
	ObjectID   StableID `json:"objectId"`
	DataTypeID TypeTag  `json:"dataTypeId"`
}

// Less задает детерминированный порядок ключей (для экспорта и отладки).
func (k SnapshotKey) Less(other SnapshotKey) bool {
	if k.ObjectID != other.ObjectID {
		return k.ObjectID < other.ObjectID
	}
	return k.DataTypeID < other.DataTypeID
}

func (k SnapshotKey) String() string {
	return fmt.Sprintf("(%s,%d)", k.ObjectID, k.DataTypeID)
}
