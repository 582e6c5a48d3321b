package persist

import (
	"errors"
	"fmt"

	"savestate-server/internal/domain"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	// ErrMissingObjectID — у компонента нет StableID. Ошибка конфигурации уровня.
	ErrMissingObjectID = errors.New("persistable has no object id")
	// ErrDuplicateKey — два компонента претендуют на один (ObjectID, DataTypeID).
	ErrDuplicateKey = errors.New("duplicate snapshot key")
	// ErrCapture — компонент не смог закодировать состояние.
	ErrCapture = errors.New("capture failed")
	// ErrRestore — запись не декодировалась, компонент остался как был.
	ErrRestore = errors.New("restore failed")
)

// Graph — всё, что умеет перечислить живые сущности (включая неактивные).
// domain.World реализует этот интерфейс.
type Graph interface {
	Entities() []*domain.Entity
}

// Report — итог одного прохода Save или Load.
type Report struct {
	Scanned  int     // найдено persistable-компонентов
	Skipped  int     // ShouldPersist() == false
	Written  int     // Save: записей upsert'нуто
	Restored int     // Load: компонентов восстановлено
	Missing  int     // Load: для ключа нет записи, компонент не тронут
	Errors   []error // ошибки конфигурации и кодирования, по одной на компонент/запись
}

// Err склеивает все ошибки прохода (nil, если их нет).
func (r Report) Err() error {
	return errors.Join(r.Errors...)
}

// Store — центральное хранилище состояния.
//
// Не потокобезопасен: все вызовы идут из одного игрового цикла.
type Store struct {
	graph    Graph
	codec    Codec
	snapshot *domain.Snapshot
	log      *logrus.Entry
}

// NewStore создает хранилище с пустым снапшотом.
func NewStore(graph Graph, codec Codec) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Store{
		graph:    graph,
		codec:    codec,
		snapshot: domain.NewSnapshot(),
		log:      logger.Component("persist"),
	}
}

// Codec возвращает кодек полезной нагрузки.
func (s *Store) Codec() Codec {
	return s.codec
}

// Len возвращает число записей в снапшоте.
func (s *Store) Len() int {
	return s.snapshot.Len()
}

// Snapshot возвращает копию текущего снапшота (для отладки и тестов).
func (s *Store) Snapshot() *domain.Snapshot {
	return s.snapshot.Clone()
}

// visit обходит все persistable-компоненты графа и отсекает те,
// у которых нет ID или ключ уже занят в этом проходе.
func (s *Store) visit(report *Report, fn func(e *domain.Entity, p Persistable, key domain.SnapshotKey)) {
	seen := make(map[domain.SnapshotKey]domain.StableID)

	for _, e := range s.graph.Entities() {
		for _, c := range e.Components() {
			p, ok := c.(Persistable)
			if !ok {
				continue
			}
			report.Scanned++

			if !p.ShouldPersist() {
				report.Skipped++
				continue
			}

			key := domain.SnapshotKey{ObjectID: p.ObjectID(), DataTypeID: p.DataTypeID()}
			if key.ObjectID.IsNil() {
				s.fail(report, e, key, fmt.Errorf("%w: entity %s (%s) component %T", ErrMissingObjectID, e.ID, e.Name, c))
				continue
			}
			if owner, dup := seen[key]; dup {
				s.fail(report, e, key, fmt.Errorf("%w: %s claimed by entity %s and %s", ErrDuplicateKey, key, owner, e.ID))
				continue
			}
			seen[key] = e.ID

			fn(e, p, key)
		}
	}
}

func (s *Store) fail(report *Report, e *domain.Entity, key domain.SnapshotKey, err error) {
	report.Errors = append(report.Errors, err)
	s.log.WithFields(logrus.Fields{
		"entity":    e.ID,
		"object_id": key.ObjectID,
		"data_type": key.DataTypeID,
	}).Warn(err.Error())
}

// Save снимает состояние со всех persistable-компонентов и upsert'ит его в снапшот.
//
// Записи, ключ которых в этом проходе не встретился, остаются как есть:
// объект, временно отсутствующий в графе, не теряет последнее известное состояние.
func (s *Store) Save() Report {
	var report Report

	s.visit(&report, func(e *domain.Entity, p Persistable, key domain.SnapshotKey) {
		payload, err := p.MarshalState(s.codec)
		if err != nil {
			s.fail(&report, e, key, fmt.Errorf("%w: %s: %v", ErrCapture, key, err))
			return
		}
		s.snapshot.Upsert(domain.SnapshotEntry{
			ObjectID:   key.ObjectID,
			DataTypeID: key.DataTypeID,
			Payload:    payload,
		})
		report.Written++
	})

	s.log.WithFields(logrus.Fields{
		"scanned": report.Scanned,
		"written": report.Written,
		"skipped": report.Skipped,
		"errors":  len(report.Errors),
		"entries": s.snapshot.Len(),
	}).Info("Snapshot saved")
	return report
}

// Load применяет записи снапшота к живым компонентам.
// Нет записи - компонент не трогается. Битая запись - компонент не трогается,
// ошибка фиксируется, проход продолжается. Хуки OnAfterRestore вызываются в конце.
func (s *Store) Load() Report {
	var report Report
	var restored []AfterRestorer

	s.visit(&report, func(e *domain.Entity, p Persistable, key domain.SnapshotKey) {
		entry, ok := s.snapshot.Get(key)
		if !ok {
			report.Missing++
			return
		}
		if err := p.UnmarshalState(s.codec, entry.Payload); err != nil {
			s.fail(&report, e, key, fmt.Errorf("%w: %s: %v", ErrRestore, key, err))
			return
		}
		report.Restored++
		if hook, ok := p.(AfterRestorer); ok {
			restored = append(restored, hook)
		}
	})

	for _, hook := range restored {
		hook.OnAfterRestore()
	}

	s.log.WithFields(logrus.Fields{
		"scanned":  report.Scanned,
		"restored": report.Restored,
		"missing":  report.Missing,
		"errors":   len(report.Errors),
	}).Info("Snapshot loaded")
	return report
}

// ExportSnapshot отдает снапшот как непрозрачный блоб для слота сохранения.
func (s *Store) ExportSnapshot() ([]byte, error) {
	data, err := storage.EncodeSnapshot(s.snapshot)
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	return data, nil
}

// ImportSnapshot целиком заменяет текущий снапшот содержимым блоба.
// При ошибке текущий снапшот не меняется.
func (s *Store) ImportSnapshot(data []byte) error {
	snapshot, err := storage.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	s.snapshot = snapshot
	s.log.WithField("entries", snapshot.Len()).Info("Snapshot imported")
	return nil
}

// Evict удаляет записи, для которых keep вернул false. Save никогда его не вызывает:
// это отдельный, явный проход для тех, кому нужен ограниченный рост снапшота.
func (s *Store) Evict(keep func(key domain.SnapshotKey) bool) int {
	removed := 0
	for _, key := range s.snapshot.Keys() {
		if !keep(key) && s.snapshot.Delete(key) {
			removed++
		}
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("Snapshot entries evicted")
	}
	return removed
}

// EvictMissing удаляет записи, у которых сейчас нет живого владельца в графе.
func (s *Store) EvictMissing() int {
	live := make(map[domain.SnapshotKey]bool)
	for _, e := range s.graph.Entities() {
		for _, c := range e.Components() {
			if p, ok := c.(Persistable); ok {
				live[domain.SnapshotKey{ObjectID: p.ObjectID(), DataTypeID: p.DataTypeID()}] = true
			}
		}
	}
	return s.Evict(func(key domain.SnapshotKey) bool { return live[key] })
}

// Reset сбрасывает снапшот (выгрузка уровня без сохранения).
func (s *Store) Reset() {
	s.snapshot = domain.NewSnapshot()
}
