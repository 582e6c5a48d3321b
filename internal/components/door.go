package components

import (
	"errors"

	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
)

var ErrDoorLocked = errors.New("door is locked")

// Door — дверь, которая может быть заперта.
type Door struct {
	persist.Identity
	Open   bool   `json:"open"`
	Locked bool   `json:"locked"`
	KeyID  string `json:"keyId,omitempty"`
}

type DoorState struct {
	Open   bool `json:"open"`
	Locked bool `json:"locked"`
}

func NewDoor(id domain.StableID) *Door {
	return &Door{Identity: persist.NewIdentity(id, TagDoor)}
}

// Toggle открывает или закрывает дверь. Запертую дверь открыть нельзя.
func (d *Door) Toggle() error {
	if d.Locked && !d.Open {
		return ErrDoorLocked
	}
	d.Open = !d.Open
	return nil
}

// Unlock снимает замок, если ключ подходит. Пустой KeyID открывается любым ключом.
func (d *Door) Unlock(key string) bool {
	if d.KeyID != "" && d.KeyID != key {
		return false
	}
	d.Locked = false
	return true
}

func (d *Door) CaptureState() DoorState {
	return DoorState{Open: d.Open, Locked: d.Locked}
}

func (d *Door) RestoreState(s DoorState) {
	d.Open = s.Open
	d.Locked = s.Locked
}

func (d *Door) MarshalState(c persist.Codec) ([]byte, error) {
	return persist.Encode[DoorState](c, d)
}

func (d *Door) UnmarshalState(c persist.Codec, payload []byte) error {
	return persist.Decode[DoorState](c, d, payload)
}
