package components

import (
	"sort"

	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
)

// Container — сундук или ящик со стаками предметов.
type Container struct {
	persist.Identity
	MaxSlots int            `json:"maxSlots"`
	Items    map[string]int `json:"items"` // предмет -> размер стака
}

type ContainerState struct {
	Items map[string]int `json:"items"`
}

func NewContainer(id domain.StableID, maxSlots int) *Container {
	return &Container{
		Identity: persist.NewIdentity(id, TagContainer),
		MaxSlots: maxSlots,
		Items:    make(map[string]int),
	}
}

// Add кладет count предметов. Существующий стак увеличивается,
// новый занимает слот. Возвращает false, если слотов нет.
func (c *Container) Add(item string, count int) bool {
	if item == "" || count <= 0 {
		return false
	}

	// Попытка стакирования
	if _, ok := c.Items[item]; ok {
		c.Items[item] += count
		return true
	}

	// Проверка на переполнение слотов
	if c.MaxSlots > 0 && len(c.Items) >= c.MaxSlots {
		return false
	}
	c.Items[item] = count
	return true
}

// Take забирает до count предметов и возвращает, сколько удалось взять.
func (c *Container) Take(item string, count int) int {
	have := c.Items[item]
	if count > have {
		count = have
	}
	if count <= 0 {
		return 0
	}
	if have == count {
		delete(c.Items, item)
	} else {
		c.Items[item] = have - count
	}
	return count
}

// Names возвращает имена предметов в отсортированном порядке.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.Items))
	for name := range c.Items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Container) CaptureState() ContainerState {
	items := make(map[string]int, len(c.Items))
	for k, v := range c.Items {
		items[k] = v
	}
	return ContainerState{Items: items}
}

// RestoreState целиком заменяет содержимое.
func (c *Container) RestoreState(s ContainerState) {
	c.Items = make(map[string]int, len(s.Items))
	for k, v := range s.Items {
		c.Items[k] = v
	}
}

func (c *Container) MarshalState(codec persist.Codec) ([]byte, error) {
	return persist.Encode[ContainerState](codec, c)
}

func (c *Container) UnmarshalState(codec persist.Codec, payload []byte) error {
	return persist.Decode[ContainerState](codec, c, payload)
}
