package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/components"
	"savestate-server/internal/domain"
)

// Definition — описание уровня: сущности, их компоненты и объявленные чекпоинты.
type Definition struct {
	// ID — StableID сущности уровня, которая хранит прогресс чекпоинтов.
	ID          domain.StableID          `json:"id"`
	Name        string                   `json:"name"`
	Player      PlayerDef                `json:"player"`
	Entities    []EntityDef              `json:"entities"`
	Checkpoints []checkpoint.Declaration `json:"checkpoints"`
}

// PlayerDef описывает игрока и его стартовую позу.
type PlayerDef struct {
	ID        domain.StableID `json:"id"`
	Name      string          `json:"name"`
	Pose      domain.Pose     `json:"pose"`
	MaxHP     int             `json:"maxHp,omitempty"`
	Transient bool            `json:"transient,omitempty"` // не сохранять позу игрока
}

// EntityDef описывает одну сущность уровня.
type EntityDef struct {
	ID         domain.StableID   `json:"id"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Inactive   bool              `json:"inactive,omitempty"`
	Pose       domain.Pose       `json:"pose"`
	Components []components.Spec `json:"components"`
}

// ParseDefinition разбирает JSON-описание уровня.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse level: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDefinition читает описание уровня из файла.
func LoadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read level %s: %w", path, err)
	}
	return ParseDefinition(data)
}

// Validate проверяет то, без чего уровень не поднять.
// Совпадающие StableID компонентов здесь не проверяются: их ловит хранилище при Save.
func (d Definition) Validate() error {
	var errs []error
	if d.ID.IsNil() {
		errs = append(errs, errors.New("level id is required"))
	}
	if d.Player.ID.IsNil() {
		errs = append(errs, errors.New("player id is required"))
	}

	// Реестр мира держит одну сущность на ID
	seen := map[domain.StableID]string{d.ID: "level", d.Player.ID: "player"}
	if d.ID == d.Player.ID && !d.ID.IsNil() {
		errs = append(errs, fmt.Errorf("player id %s collides with level id", d.ID))
	}
	for i, e := range d.Entities {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("entity #%d: name is required", i))
		}
		if e.ID.IsNil() {
			errs = append(errs, fmt.Errorf("entity #%d (%s): id is required", i, e.Name))
			continue
		}
		if owner, dup := seen[e.ID]; dup {
			errs = append(errs, fmt.Errorf("entity #%d (%s): id %s already used by %s", i, e.Name, e.ID, owner))
			continue
		}
		seen[e.ID] = e.Name
	}
	return errors.Join(errs...)
}
