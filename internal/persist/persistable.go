package persist

import (
	"fmt"

	"savestate-server/internal/domain"
)

// Stateful — типизированный слой: компонент отдает и принимает своё логическое
// состояние, ничего не зная о кодировке.
//
// RestoreState обязан быть идемпотентным и работать на свежесозданном компоненте.
type Stateful[T any] interface {
	CaptureState() T
	RestoreState(state T)
}

// Persistable — байтовый слой, который видит Store.
// Обычно MarshalState/UnmarshalState — однострочники поверх Encode/Decode.
type Persistable interface {
	ObjectID() domain.StableID
	DataTypeID() domain.TypeTag
	ShouldPersist() bool
	MarshalState(c Codec) ([]byte, error)
	UnmarshalState(c Codec, payload []byte) error
}

// AfterRestorer — необязательный хук. Вызывается один раз после того,
// как Load применил все записи (пересчет производных полей и т.п.).
type AfterRestorer interface {
	OnAfterRestore()
}

// Encode снимает состояние и кодирует его.
func Encode[T any](c Codec, s Stateful[T]) ([]byte, error) {
	state := s.CaptureState()
	data, err := c.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", state, err)
	}
	return data, nil
}

// Decode декодирует payload в новое значение T и применяет его.
// При ошибке компонент не трогается.
func Decode[T any](c Codec, s Stateful[T], payload []byte) error {
	var state T
	if err := c.Unmarshal(payload, &state); err != nil {
		return fmt.Errorf("decode %T: %w", state, err)
	}
	s.RestoreState(state)
	return nil
}

// Identity — встраиваемый носитель внешнего идентификатора.
// По умолчанию компонент сохраняется; Transient отключает это
// (например, производная копия другого сохраняемого объекта).
type Identity struct {
	ID        domain.StableID `json:"objectId"`
	Tag       domain.TypeTag  `json:"dataTypeId"`
	Transient bool            `json:"transient,omitempty"`
}

// NewIdentity — короткий конструктор.
func NewIdentity(id domain.StableID, tag domain.TypeTag) Identity {
	return Identity{ID: id, Tag: tag}
}

func (i Identity) ObjectID() domain.StableID { return i.ID }

func (i Identity) DataTypeID() domain.TypeTag { return i.Tag }

func (i Identity) ShouldPersist() bool { return !i.Transient }

// Key возвращает ключ снапшота.
func (i Identity) Key() domain.SnapshotKey {
	return domain.SnapshotKey{ObjectID: i.ID, DataTypeID: i.Tag}
}

// adapter превращает готовый Stateful[T] в Persistable.
type adapter[T any] struct {
	Identity
	target Stateful[T]
}

// Adapt оборачивает Stateful[T], у которого нет собственных байтовых методов.
// Если target реализует AfterRestorer, хук прокидывается через обертку.
func Adapt[T any](id Identity, target Stateful[T]) Persistable {
	a := &adapter[T]{Identity: id, target: target}
	if _, ok := target.(AfterRestorer); ok {
		return &restoringAdapter[T]{adapter: a}
	}
	return a
}

func (a *adapter[T]) MarshalState(c Codec) ([]byte, error) {
	return Encode[T](c, a.target)
}

func (a *adapter[T]) UnmarshalState(c Codec, payload []byte) error {
	return Decode[T](c, a.target, payload)
}

type restoringAdapter[T any] struct {
	*adapter[T]
}

func (r *restoringAdapter[T]) OnAfterRestore() {
	r.target.(AfterRestorer).OnAfterRestore()
}
