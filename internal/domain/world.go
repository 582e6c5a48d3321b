package domain

// World — живой граф сущностей загруженного уровня.
//
// Хранит реестр по ID для быстрого поиска и слайс для стабильного порядка обхода
// (Save/Load сканируют сущности в порядке регистрации).
type World struct {
	Level int `json:"level"`

	registry map[StableID]*Entity
	order    []*Entity
}

// NewWorld создает пустой мир уровня.
func NewWorld(level int) *World {
	return &World{
		Level:    level,
		registry: make(map[StableID]*Entity),
	}
}

// RegisterEntity добавляет сущность в граф.
// Повторная регистрация того же ID заменяет старую сущность на месте.
func (w *World) RegisterEntity(e *Entity) {
	if w.registry == nil {
		w.registry = make(map[StableID]*Entity)
	}
	if old, ok := w.registry[e.ID]; ok {
		for i, other := range w.order {
			if other == old {
				w.order[i] = e
				break
			}
		}
		w.registry[e.ID] = e
		return
	}
	w.registry[e.ID] = e
	w.order = append(w.order, e)
}

// UnregisterEntity удаляет сущность из графа (уничтожение, выгрузка).
func (w *World) UnregisterEntity(id StableID) *Entity {
	e, ok := w.registry[id]
	if !ok {
		return nil
	}
	delete(w.registry, id)

	// Порядок обхода важен, поэтому без swap-with-last
	for i, other := range w.order {
		if other == e {
			copy(w.order[i:], w.order[i+1:])
			w.order[len(w.order)-1] = nil
			w.order = w.order[:len(w.order)-1]
			break
		}
	}
	return e
}

// GetEntity ищет сущность по ID.
func (w *World) GetEntity(id StableID) *Entity {
	if w.registry == nil {
		return nil
	}
	return w.registry[id]
}

// Entities возвращает все сущности, включая неактивные, в порядке регистрации.
func (w *World) Entities() []*Entity {
	return w.order
}

// Len возвращает количество сущностей.
func (w *World) Len() int {
	return len(w.order)
}

// Clear разрушает граф (выгрузка уровня).
func (w *World) Clear() {
	w.registry = make(map[StableID]*Entity)
	for i := range w.order {
		w.order[i] = nil
	}
	w.order = nil
}
