package checkpoint

import (
	"errors"
	"fmt"

	"savestate-server/internal/domain"
	"savestate-server/internal/persist"
	"savestate-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SpawnID — ID синтезированного чекпоинта на стартовой позе игрока.
const SpawnID = "spawn"

// TagCheckpointProgress — TypeTag сохраняемого прогресса чекпоинтов.
const TagCheckpointProgress domain.TypeTag = 100

// TriggerRadius — радиус триггер-объема чекпоинта для TriggerNear.
const TriggerRadius = 1.5

var (
	// ErrNoActiveCheckpoint — нарушен инвариант: после Initialize активный чекпоинт есть всегда.
	ErrNoActiveCheckpoint = errors.New("no active checkpoint")
	// ErrAlreadyInitialized — повторный Initialize без Teardown.
	ErrAlreadyInitialized = errors.New("checkpoint controller already initialized")
)

// Пространство имен для детерминированных ID чекпоинтов без явного ID.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("savestate-server/checkpoint"))

// Locomotion — подсистема передвижения игрока. На время телепорта её нужно
// приостановить, иначе физика воспримет прыжок позы как столкновение или падение.
type Locomotion interface {
	Suspend()
	Resume()
	SetPose(pose domain.Pose)
}

// Declaration — чекпоинт, объявленный в описании уровня.
type Declaration struct {
	ID       string          `json:"id,omitempty"`
	EntityID domain.StableID `json:"entityId"`
	Pose     domain.Pose     `json:"pose"`
	Active   bool            `json:"active,omitempty"`
}

// DefaultID выводит ID из StableID объявившей сущности. Для сущности без ID
// используется позиция в списке объявлений. Результат одинаков между запусками.
func DefaultID(entityID domain.StableID, index int) string {
	name := fmt.Sprintf("entity:%d", uint64(entityID))
	if entityID.IsNil() {
		name = fmt.Sprintf("index:%d", index)
	}
	return "cp-" + uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// ProgressState — сохраняемое состояние набора чекпоинтов.
type ProgressState struct {
	Active  string   `json:"active"`
	Reached []string `json:"reached"`
}

// Controller владеет набором чекпоинтов уровня, держит инвариант
// "ровно один активный" и выполняет респавн игрока.
//
// Однопоточный: все вызовы идут из игрового цикла сессии.
type Controller struct {
	persist.Identity

	body Locomotion

	checkpoints []*Checkpoint
	byID        map[string]*Checkpoint
	active      *Checkpoint
	initialized bool

	subscribers listenerList[Event]
	log         *logrus.Entry
}

// NewController создает контроллер. id - идентичность для сохранения прогресса.
func NewController(id persist.Identity, body Locomotion) *Controller {
	if id.Tag == 0 {
		id.Tag = TagCheckpointProgress
	}
	return &Controller{
		Identity: id,
		body:     body,
		byID:     make(map[string]*Checkpoint),
		log:      logger.Component("checkpoint"),
	}
}

// Initialize материализует объявленные чекпоинты. Если ни один не активен,
// синтезирует spawn на позе игрока, уже достигнутый и активный.
func (c *Controller) Initialize(decls []Declaration, playerPose domain.Pose) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}

	for i, d := range decls {
		id := d.ID
		switch id {
		case "":
			id = DefaultID(d.EntityID, i)
			c.log.WithFields(logrus.Fields{
				"entity":     d.EntityID,
				"checkpoint": id,
			}).Debug("Checkpoint declared without id, derived one")
		case SpawnID:
			// spawn зарезервирован за синтезированным чекпоинтом
			id = DefaultID(d.EntityID, i)
			c.log.WithFields(logrus.Fields{
				"entity":     d.EntityID,
				"checkpoint": id,
			}).Warn("Checkpoint id \"spawn\" is reserved, derived another one")
		}

		cp := newCheckpoint(id, d.EntityID, d.Pose)
		if d.Active {
			if c.active == nil {
				// Активный всегда достигнут
				cp.reached = true
				cp.active = true
				c.active = cp
			} else {
				c.log.WithFields(logrus.Fields{
					"checkpoint": id,
					"active":     c.active.id,
				}).Warn("Multiple checkpoints declared active, keeping the first")
			}
		}
		c.register(cp)
	}

	if c.active == nil {
		spawn := newCheckpoint(SpawnID, domain.NilStableID, playerPose)
		spawn.reached = true
		spawn.active = true
		c.active = spawn
		c.register(spawn)
	}

	c.initialized = true
	c.log.WithFields(logrus.Fields{
		"count":  len(c.checkpoints),
		"active": c.active.id,
	}).Info("Checkpoints initialized")

	c.subscribers.notify(Event{Type: EventInitialized, CheckpointID: c.active.id, Value: true})
	return nil
}

// register добавляет чекпоинт. При совпадении ID поиск видит последний.
func (c *Controller) register(cp *Checkpoint) {
	if prev, dup := c.byID[cp.id]; dup {
		c.log.WithFields(logrus.Fields{
			"checkpoint":  cp.id,
			"shadowed":    prev.entityID,
			"replacement": cp.entityID,
		}).Warn("Duplicate checkpoint id, earlier checkpoint is shadowed")
	}
	c.byID[cp.id] = cp
	c.checkpoints = append(c.checkpoints, cp)
}

// TriggerByID вызывается триггер-объемом, когда игрок входит в чекпоинт.
// Неизвестный или уже достигнутый ID - тихий no-op: активный указатель
// двигается только вперед, через новые чекпоинты. Возвращает true, если
// чекпоинт стал активным.
func (c *Controller) TriggerByID(id string) bool {
	cp, ok := c.byID[id]
	if !ok || cp.reached {
		return false
	}

	c.reach(cp)
	return true
}

// TriggerNear срабатывает для всех недостигнутых чекпоинтов в радиусе от pos,
// в порядке объявления. Возвращает ID достигнутых.
func (c *Controller) TriggerNear(pos domain.Vec3, radius float64) []string {
	var reached []string
	for _, cp := range c.checkpoints {
		if cp.reached || cp.pose.Position.DistanceTo(pos) > radius {
			continue
		}
		c.reach(cp)
		reached = append(reached, cp.id)
	}
	return reached
}

// reach - переход Reach: флаг достижения и запрос активации.
func (c *Controller) reach(cp *Checkpoint) {
	if cp.setReached(true) {
		c.subscribers.notify(Event{Type: EventReachedChanged, CheckpointID: cp.id, Value: true})
	}
	c.activate(cp)

	c.log.WithField("checkpoint", cp.id).Info("Checkpoint reached")
}

// activate делает target единственным активным. Сначала меняются все флаги,
// потом рассылаются уведомления: наблюдатель никогда не увидит ноль или два активных.
func (c *Controller) activate(target *Checkpoint) {
	c.notifyActive(c.setActive(target))
}

// setActive только пишет флаги активности. Возвращает изменившиеся чекпоинты.
func (c *Controller) setActive(target *Checkpoint) []*Checkpoint {
	var changed []*Checkpoint
	for _, cp := range c.checkpoints {
		want := cp == target
		if cp.active != want {
			cp.active = want
			changed = append(changed, cp)
		}
	}
	c.active = target
	return changed
}

func (c *Controller) notifyActive(changed []*Checkpoint) {
	for _, cp := range changed {
		cp.activeListeners.notify(cp.active)
	}
	for _, cp := range changed {
		c.subscribers.notify(Event{Type: EventActiveChanged, CheckpointID: cp.id, Value: cp.active})
	}
}

// RespawnPlayer переносит игрока на позу активного чекпоинта:
// suspend -> запись позы -> resume.
//
// Отсутствие активного чекпоинта - ошибка программиста (Initialize не вызывали),
// поэтому паника, а не возврат ошибки.
func (c *Controller) RespawnPlayer() {
	if c.active == nil {
		c.log.Error(ErrNoActiveCheckpoint.Error())
		panic(ErrNoActiveCheckpoint)
	}
	if c.body == nil {
		panic("checkpoint: respawn without locomotion body")
	}

	pose := c.active.pose
	c.body.Suspend()
	defer c.body.Resume()
	c.body.SetPose(pose)

	c.log.WithField("checkpoint", c.active.id).Info("Player respawned")
	c.subscribers.notify(Event{Type: EventRespawned, CheckpointID: c.active.id, Value: true})
}

// Active возвращает активный чекпоинт (nil до Initialize).
func (c *Controller) Active() *Checkpoint {
	return c.active
}

// Get ищет чекпоинт по ID.
func (c *Controller) Get(id string) (*Checkpoint, bool) {
	cp, ok := c.byID[id]
	return cp, ok
}

// Checkpoints возвращает управляемый набор в порядке объявления (spawn последним).
func (c *Controller) Checkpoints() []*Checkpoint {
	return append([]*Checkpoint(nil), c.checkpoints...)
}

// Subscribe регистрирует наблюдателя за всеми событиями контроллера.
func (c *Controller) Subscribe(fn func(Event)) Subscription {
	return c.subscribers.add(fn)
}

// Teardown разбирает набор при выгрузке уровня.
func (c *Controller) Teardown() {
	for _, cp := range c.checkpoints {
		cp.teardown()
	}
	c.checkpoints = nil
	c.byID = make(map[string]*Checkpoint)
	c.active = nil
	c.initialized = false
	c.subscribers.clear()
}

// --- СОХРАНЕНИЕ ---

// CaptureState снимает прогресс: активный ID и список достигнутых.
func (c *Controller) CaptureState() ProgressState {
	state := ProgressState{Reached: []string{}}
	if c.active != nil {
		state.Active = c.active.id
	}
	for _, cp := range c.checkpoints {
		if cp.reached {
			state.Reached = append(state.Reached, cp.id)
		}
	}
	return state
}

// RestoreState применяет сохраненный прогресс. Это загрузка, а не игровое событие,
// поэтому флаги достижения выставляются ровно как в сохранении: чекпоинт, достигнутый
// после сохранения, снова становится недостигнутым (откат). Во время игры reached
// по-прежнему только растет. Неизвестный активный ID оставляет текущий.
//
// Все флаги пишутся до первого уведомления, как в activate: наблюдатель
// не увидит активный недостигнутый чекпоинт.
func (c *Controller) RestoreState(state ProgressState) {
	reached := make(map[string]bool, len(state.Reached))
	for _, id := range state.Reached {
		reached[id] = true
	}

	target, ok := c.byID[state.Active]
	if !ok {
		if c.active != nil {
			c.log.WithFields(logrus.Fields{
				"saved":  state.Active,
				"active": c.active.id,
			}).Warn("Saved active checkpoint not in level, keeping current")
		}
		target = c.active
	}

	// 1. Флаги достижения
	var reachedChanged []*Checkpoint
	for _, cp := range c.checkpoints {
		want := reached[cp.id] || cp == target
		if cp.reached != want {
			cp.reached = want
			reachedChanged = append(reachedChanged, cp)
		}
	}

	// 2. Флаги активности
	var activeChanged []*Checkpoint
	if target != nil {
		activeChanged = c.setActive(target)
	}

	// 3. Уведомления, когда набор уже согласован
	for _, cp := range reachedChanged {
		cp.reachedListeners.notify(cp.reached)
	}
	for _, cp := range reachedChanged {
		c.subscribers.notify(Event{Type: EventReachedChanged, CheckpointID: cp.id, Value: cp.reached})
	}
	c.notifyActive(activeChanged)
}

func (c *Controller) MarshalState(codec persist.Codec) ([]byte, error) {
	return persist.Encode[ProgressState](codec, c)
}

func (c *Controller) UnmarshalState(codec persist.Codec, payload []byte) error {
	return persist.Decode[ProgressState](codec, c, payload)
}
