package components

import (
	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
)

// Health — очки здоровья. IsDead производное и в сохранение не попадает.
type Health struct {
	persist.Identity
	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`

	IsDead bool `json:"-"`
}

type HealthState struct {
	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
}

func NewHealth(id domain.StableID, maxHP int) *Health {
	return &Health{Identity: persist.NewIdentity(id, TagHealth), HP: maxHP, MaxHP: maxHP}
}

// TakeDamage наносит урон. Возвращает true, если цель погибла.
func (h *Health) TakeDamage(amount int) bool {
	if h.IsDead {
		return false
	}
	if amount < 0 {
		amount = 0
	}

	h.HP -= amount

	if h.HP <= 0 {
		h.HP = 0
		h.IsDead = true
		return true
	}
	return false
}

// Heal лечит сущность
func (h *Health) Heal(amount int) {
	if h.IsDead {
		return // Трупы не лечим
	}
	h.HP += amount
	if h.HP > h.MaxHP {
		h.HP = h.MaxHP
	}
}

func (h *Health) CaptureState() HealthState {
	return HealthState{HP: h.HP, MaxHP: h.MaxHP}
}

func (h *Health) RestoreState(s HealthState) {
	h.HP = s.HP
	h.MaxHP = s.MaxHP
}

// OnAfterRestore пересчитывает IsDead из восстановленных HP.
func (h *Health) OnAfterRestore() {
	h.IsDead = h.HP <= 0
}

func (h *Health) MarshalState(c persist.Codec) ([]byte, error) {
	return persist.Encode[HealthState](c, h)
}

func (h *Health) UnmarshalState(c persist.Codec, payload []byte) error {
	return persist.Decode[HealthState](c, h, payload)
}
