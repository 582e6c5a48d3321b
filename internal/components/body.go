package components

import (
	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
)

// Body — подсистема передвижения игрока. Пока она приостановлена,
// Move игнорируется: телепорт не должен смешиваться с обычным шагом.
//
// Байтовых методов у Body нет, в граф кладется обертка из Persistable.
type Body struct {
	persist.Identity
	pose      domain.Pose
	suspended bool
	teleports int
}

type BodyState struct {
	Pose domain.Pose `json:"pose"`
}

func NewBody(id domain.StableID, pose domain.Pose) *Body {
	return &Body{Identity: persist.NewIdentity(id, TagBody), pose: pose}
}

func (b *Body) Pose() domain.Pose { return b.pose }

func (b *Body) Suspended() bool { return b.suspended }

// Teleports — число прямых записей позы (респавны и загрузки).
func (b *Body) Teleports() int { return b.teleports }

func (b *Body) Suspend() { b.suspended = true }

func (b *Body) Resume() { b.suspended = false }

// SetPose ставит позу напрямую, минуя физику.
func (b *Body) SetPose(p domain.Pose) {
	b.pose = p
	b.teleports++
}

// Move сдвигает игрока на delta. Возвращает false, если тело приостановлено.
func (b *Body) Move(delta domain.Vec3) bool {
	if b.suspended {
		return false
	}
	b.pose.Position = b.pose.Position.Add(delta)
	return true
}

func (b *Body) CaptureState() BodyState {
	return BodyState{Pose: b.pose}
}

// RestoreState переносит тело так же, как респавн: через suspend/resume.
func (b *Body) RestoreState(s BodyState) {
	b.Suspend()
	defer b.Resume()
	b.SetPose(s.Pose)
}

// Persistable возвращает сохраняемую обертку с текущей идентичностью тела.
func (b *Body) Persistable() persist.Persistable {
	return persist.Adapt[BodyState](b.Identity, b)
}
