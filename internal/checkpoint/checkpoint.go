package checkpoint

import (
	"savestate-server/internal/domain"
)

// Checkpoint — точка восстановления с двумя флагами: достигнута и активна.
//
// Допустимые состояния: (false,false), (true,false), (true,true).
// Активной можно стать только будучи достигнутой. Флаги меняет только Controller.
type Checkpoint struct {
	id       string
	entityID domain.StableID
	pose     domain.Pose

	reached bool
	active  bool

	reachedListeners listenerList[bool]
	activeListeners  listenerList[bool]
}

func newCheckpoint(id string, entityID domain.StableID, pose domain.Pose) *Checkpoint {
	return &Checkpoint{id: id, entityID: entityID, pose: pose}
}

// ID возвращает идентификатор чекпоинта (уникален в управляемом наборе).
func (c *Checkpoint) ID() string { return c.id }

// EntityID возвращает StableID сущности, объявившей чекпоинт (ноль для spawn).
func (c *Checkpoint) EntityID() domain.StableID { return c.entityID }

// Pose возвращает позу, в которую респавнится игрок.
func (c *Checkpoint) Pose() domain.Pose { return c.pose }

// HasBeenReached сообщает, проходил ли игрок этот чекпоинт.
func (c *Checkpoint) HasBeenReached() bool { return c.reached }

// IsActive сообщает, используется ли чекпоинт для респавна.
func (c *Checkpoint) IsActive() bool { return c.active }

// OnReachedChanged подписывает на изменение HasBeenReached.
func (c *Checkpoint) OnReachedChanged(fn func(reached bool)) Subscription {
	return c.reachedListeners.add(fn)
}

// OnActiveChanged подписывает на изменение IsActive.
func (c *Checkpoint) OnActiveChanged(fn func(active bool)) Subscription {
	return c.activeListeners.add(fn)
}

// setReached меняет флаг и уведомляет только при реальном переходе.
func (c *Checkpoint) setReached(v bool) bool {
	if c.reached == v {
		return false
	}
	c.reached = v
	c.reachedListeners.notify(v)
	return true
}

func (c *Checkpoint) teardown() {
	c.reachedListeners.clear()
	c.activeListeners.clear()
}
