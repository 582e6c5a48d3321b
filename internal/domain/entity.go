package domain

// Типы сущностей
const (
	EntityTypePlayer     = "PLAYER"
	EntityTypeProp       = "PROP"
	EntityTypeContainer  = "CONTAINER"
	EntityTypeCheckpoint = "CHECKPOINT"
	EntityTypeLevel      = "LEVEL"
)

// Entity — узел живого графа сцены.
//
// Компоненты хранятся как any: хранилище само выясняет через type assertion,
// какие из них умеют сохраняться. Неактивная сущность (Active == false)
// остается в графе и продолжает участвовать в Save/Load.
type Entity struct {
	ID     StableID `json:"id"`
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Active bool     `json:"active"`
	Pose   Pose     `json:"pose"`

	components []any
}

// NewEntity создает активную сущность.
func NewEntity(id StableID, entityType, name string) *Entity {
	return &Entity{
		ID:     id,
		Type:   entityType,
		Name:   name,
		Active: true,
	}
}

// AddComponent прикрепляет компонент. Возвращает сущность для цепочек.
func (e *Entity) AddComponent(c any) *Entity {
	e.components = append(e.components, c)
	return e
}

// Components возвращает компоненты в порядке добавления.
func (e *Entity) Components() []any {
	return e.components
}

// SetActive включает/выключает сущность. На сохранение не влияет.
func (e *Entity) SetActive(active bool) {
	e.Active = active
}

// ComponentOf ищет первый компонент типа T.
func ComponentOf[T any](e *Entity) (T, bool) {
	for _, c := range e.components {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
