package api

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

// MaxMoveStep — максимальная длина одного шага MOVE.
const MaxMoveStep = 10.0

var slotNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func (p CheckpointPayload) Validate() error {
	if p.CheckpointID == "" {
		return errors.New("checkpointId is required")
	}
	return nil
}

func (p SlotPayload) Validate() error {
	if p.Slot == "" {
		return errors.New("slot is required")
	}
	if !slotNamePattern.MatchString(p.Slot) {
		return errors.New("slot must be 1-64 chars of [a-zA-Z0-9_-]")
	}
	return nil
}

func (p MovePayload) Validate() error {
	for _, v := range []float64{p.DX, p.DY, p.DZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("move delta must be finite")
		}
	}
	if step := math.Sqrt(p.DX*p.DX + p.DY*p.DY + p.DZ*p.DZ); step > MaxMoveStep {
		return fmt.Errorf("move step %.2f exceeds %.0f", step, MaxMoveStep)
	}
	return nil
}
