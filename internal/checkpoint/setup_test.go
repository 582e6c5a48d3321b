package checkpoint

import (
	"os"
	"testing"

	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
	"savestate-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// fakeBody записывает последовательность вызовов передвижения.
type fakeBody struct {
	calls []string
	pose  domain.Pose
}

func (b *fakeBody) Suspend() { b.calls = append(b.calls, "suspend") }

func (b *fakeBody) Resume() { b.calls = append(b.calls, "resume") }

func (b *fakeBody) SetPose(p domain.Pose) {
	b.calls = append(b.calls, "pose")
	b.pose = p
}

func poseAt(x float64) domain.Pose {
	return domain.Pose{Position: domain.Vec3{X: x}}
}

func newTestController(t *testing.T) (*Controller, *fakeBody) {
	t.Helper()
	body := &fakeBody{}
	return NewController(persist.NewIdentity(900, 0), body), body
}

// threeCheckpoints — A, B, C вдоль оси X, ни один не активен.
func threeCheckpoints() []Declaration {
	return []Declaration{
		{ID: "A", EntityID: 11, Pose: poseAt(10)},
		{ID: "B", EntityID: 12, Pose: poseAt(20)},
		{ID: "C", EntityID: 13, Pose: poseAt(30)},
	}
}

// activeIDs собирает все активные чекпоинты (должен быть ровно один).
func activeIDs(c *Controller) []string {
	var ids []string
	for _, cp := range c.Checkpoints() {
		if cp.IsActive() {
			ids = append(ids, cp.ID())
		}
	}
	return ids
}
