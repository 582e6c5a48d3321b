package level

import (
	"context"
	"errors"
	"fmt"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/components"
	"savestate-server/internal/domain"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/internal/persist"
	"savestate-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoLevel        = errors.New("no level loaded")
	ErrLevelLoaded    = errors.New("level already loaded")
	ErrNoSlots        = errors.New("save slots are not configured")
	ErrUnknownCommand = errors.New("unknown command")
	ErrPlayerFrozen   = errors.New("player movement is suspended")
)

// Options — зависимости сессии. Всё передается явно, глобальных хранилищ нет.
type Options struct {
	Codec        persist.Codec
	Slots        storage.SlotStorage // nil - EXPORT/IMPORT и автосохранение выключены
	AutosaveSlot string
	OnEvent      func(checkpoint.Event) // уведомления чекпоинтов (сетевой хаб)
}

// Command — команда для цикла сессии вместе с каналом ответа.
type Command struct {
	Cmd     domain.InternalCommand
	Inspect func(s *Session) // чтение состояния из чужой горутины
	Reply   chan Result
}

// Session — контекст загруженного уровня: мир, хранилище, контроллер чекпоинтов.
//
// Хранилище живет дольше уровня: при выгрузке состояние сохраняется в снапшот,
// при повторной загрузке применяется обратно.
// Все мутации идут через Run, одна горутина на сессию.
type Session struct {
	store        *persist.Store
	slots        storage.SlotStorage
	autosaveSlot string
	onEvent      func(checkpoint.Event)

	def        Definition
	world      *domain.World
	controller *checkpoint.Controller
	player     *components.Body
	loaded     bool
	loads      int

	CommandChan chan Command
	tick        int
	handlers    map[domain.CommandType]HandlerFunc

	log *logrus.Entry
}

func NewSession(opts Options) *Session {
	s := &Session{
		slots:        opts.Slots,
		autosaveSlot: opts.AutosaveSlot,
		onEvent:      opts.OnEvent,
		CommandChan:  make(chan Command, 100),
		handlers:     make(map[domain.CommandType]HandlerFunc),
		log:          logger.Component("session"),
	}
	s.store = persist.NewStore(s, opts.Codec)
	s.registerHandlers()
	return s
}

// Entities реализует persist.Graph: пустой граф, пока уровень не загружен.
func (s *Session) Entities() []*domain.Entity {
	if s.world == nil {
		return nil
	}
	return s.world.Entities()
}

func (s *Session) Store() *persist.Store { return s.store }

func (s *Session) Controller() *checkpoint.Controller { return s.controller }

func (s *Session) Player() *components.Body { return s.player }

func (s *Session) World() *domain.World { return s.world }

func (s *Session) Definition() Definition { return s.def }

func (s *Session) Loaded() bool { return s.loaded }

func (s *Session) Tick() int { return s.tick }

// LoadLevel строит граф уровня и инициализирует чекпоинты. Если в снапшоте
// уже есть записи (уровень посещали, либо был IMPORT), они применяются сразу.
func (s *Session) LoadLevel(def Definition) error {
	if s.loaded {
		return ErrLevelLoaded
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("level %q: %w", def.Name, err)
	}

	world := domain.NewWorld(s.loads + 1)

	// 1. Игрок
	body := components.NewBody(def.Player.ID, def.Player.Pose)
	body.Transient = def.Player.Transient
	player := domain.NewEntity(def.Player.ID, domain.EntityTypePlayer, def.Player.Name).
		AddComponent(body).
		AddComponent(body.Persistable())
	player.Pose = def.Player.Pose
	if def.Player.MaxHP > 0 {
		player.AddComponent(components.NewHealth(def.Player.ID, def.Player.MaxHP))
	}
	world.RegisterEntity(player)

	// 2. Сущности уровня
	for _, ed := range def.Entities {
		e := domain.NewEntity(ed.ID, ed.Type, ed.Name)
		e.Pose = ed.Pose
		e.SetActive(!ed.Inactive)
		for _, spec := range ed.Components {
			c, err := components.Build(ed.ID, spec)
			if err != nil {
				return fmt.Errorf("entity %s (%s): %w", ed.ID, ed.Name, err)
			}
			e.AddComponent(c)
		}
		world.RegisterEntity(e)
	}

	// 3. Чекпоинты. Подписка до Initialize, чтобы хаб увидел INITIALIZED
	controller := checkpoint.NewController(persist.NewIdentity(def.ID, checkpoint.TagCheckpointProgress), body)
	if s.onEvent != nil {
		controller.Subscribe(s.onEvent)
	}
	if err := controller.Initialize(def.Checkpoints, def.Player.Pose); err != nil {
		return fmt.Errorf("level %q checkpoints: %w", def.Name, err)
	}
	world.RegisterEntity(domain.NewEntity(def.ID, domain.EntityTypeLevel, def.Name).AddComponent(controller))

	s.def = def
	s.world = world
	s.controller = controller
	s.player = body
	s.loaded = true
	s.loads++

	s.log.WithFields(logrus.Fields{
		"level":       def.Name,
		"entities":    world.Len(),
		"checkpoints": len(controller.Checkpoints()),
	}).Info("Level loaded")

	// 4. Повторный вход: последнее известное состояние
	if s.store.Len() > 0 {
		s.store.Load()
	}
	return nil
}

// UnloadLevel сохраняет состояние в снапшот и разбирает уровень.
func (s *Session) UnloadLevel() {
	if !s.loaded {
		return
	}

	s.store.Save()
	s.controller.Teardown()
	s.world.Clear()

	s.log.WithField("level", s.def.Name).Info("Level unloaded")

	s.world = nil
	s.controller = nil
	s.player = nil
	s.loaded = false
}

// --- ЦИКЛ ---

// Run обрабатывает команды до отмены ctx. Единственная горутина,
// которая трогает мир, хранилище и контроллер.
func (s *Session) Run(ctx context.Context) {
	s.log.Info("Session loop started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Session loop stopped")
			return
		case cmd := <-s.CommandChan:
			var res Result
			if cmd.Inspect != nil {
				cmd.Inspect(s)
			} else {
				res = s.Execute(ctx, cmd.Cmd)
			}
			if cmd.Reply != nil {
				cmd.Reply <- res
			}
		}
	}
}

// Submit ставит команду в очередь и ждет результата.
func (s *Session) Submit(ctx context.Context, cmd domain.InternalCommand) (Result, error) {
	reply := make(chan Result, 1)
	if err := s.enqueue(ctx, Command{Cmd: cmd, Reply: reply}); err != nil {
		return Result{}, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Inspect выполняет fn в цикле сессии (безопасное чтение для HTTP-хендлеров).
func (s *Session) Inspect(ctx context.Context, fn func(s *Session)) error {
	reply := make(chan Result, 1)
	if err := s.enqueue(ctx, Command{Inspect: fn, Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) enqueue(ctx context.Context, cmd Command) error {
	select {
	case s.CommandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute выполняет команду синхронно. Вызывать только из цикла сессии (или в тестах).
func (s *Session) Execute(ctx context.Context, cmd domain.InternalCommand) Result {
	s.tick++

	handler, ok := s.handlers[cmd.Type]
	if !ok {
		return Result{Tick: s.tick, Command: cmd.Type, Err: ErrUnknownCommand}
	}

	res, err := handler(Context{Ctx: ctx, Session: s}, cmd.Payload)
	res.Tick = s.tick
	res.Command = cmd.Type
	if err != nil {
		res.Err = err
		s.log.WithFields(logrus.Fields{
			"command": cmd.Type,
			"source":  cmd.Source,
		}).WithError(err).Warn("Command failed")
	}
	return res
}

// autosave снимает состояние и пишет его в слот автосохранения.
// Ошибка только логируется: игровое событие не должно падать из-за диска.
func (s *Session) autosave(ctx context.Context) {
	if s.slots == nil || s.autosaveSlot == "" {
		return
	}

	s.store.Save()
	blob, err := s.store.ExportSnapshot()
	if err == nil {
		err = s.slots.Put(ctx, s.autosaveSlot, blob)
	}
	if err != nil {
		s.log.WithError(err).WithField("slot", s.autosaveSlot).Warn("Autosave failed")
		return
	}
	s.log.WithField("slot", s.autosaveSlot).Info("Autosaved")
}
