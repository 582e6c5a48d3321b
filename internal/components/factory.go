package components

import (
	"encoding/json"
	"fmt"

	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
)

// Spec — компонент в описании уровня: тип и его начальные параметры.
type Spec struct {
	Kind      Kind            `json:"kind"`
	Transient bool            `json:"transient,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

type healthParams struct {
	MaxHP int  `json:"maxHp"`
	HP    *int `json:"hp,omitempty"`
}

type doorParams struct {
	Open   bool   `json:"open"`
	Locked bool   `json:"locked"`
	KeyID  string `json:"keyId"`
}

type containerParams struct {
	MaxSlots int            `json:"maxSlots"`
	Items    map[string]int `json:"items"`
}

// Build создает компонент по описанию. id - StableID сущности-владельца.
func Build(id domain.StableID, spec Spec) (persist.Persistable, error) {
	var p persist.Persistable

	switch spec.Kind {
	case KindHealth:
		var params healthParams
		if err := decodeParams(spec.Params, &params); err != nil {
			return nil, err
		}
		if params.MaxHP <= 0 {
			params.MaxHP = 100
		}
		h := NewHealth(id, params.MaxHP)
		if params.HP != nil {
			h.HP = *params.HP
			h.OnAfterRestore()
		}
		h.Transient = spec.Transient
		p = h

	case KindDoor:
		var params doorParams
		if err := decodeParams(spec.Params, &params); err != nil {
			return nil, err
		}
		d := NewDoor(id)
		d.Open, d.Locked, d.KeyID = params.Open, params.Locked, params.KeyID
		d.Transient = spec.Transient
		p = d

	case KindContainer:
		var params containerParams
		if err := decodeParams(spec.Params, &params); err != nil {
			return nil, err
		}
		c := NewContainer(id, params.MaxSlots)
		for _, name := range sortedKeys(params.Items) {
			c.Add(name, params.Items[name])
		}
		c.Transient = spec.Transient
		p = c

	default:
		return nil, fmt.Errorf("unknown component kind %q", spec.Kind)
	}

	return p, nil
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("component params: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	c := Container{Items: m}
	return c.Names()
}
