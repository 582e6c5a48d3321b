package components

import "savestate-server/internal/domain"

// TypeTag'и компонентов. Значения попадают в слоты сохранений: не переиспользовать.
const (
	TagHealth    domain.TypeTag = 1
	TagDoor      domain.TypeTag = 2
	TagContainer domain.TypeTag = 3
	TagBody      domain.TypeTag = 4
)

// Kind — имя компонента в описании уровня.
type Kind string

const (
	KindHealth    Kind = "health"
	KindDoor      Kind = "door"
	KindContainer Kind = "container"
)
