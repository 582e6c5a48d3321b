package domain

import "sort"

// SnapshotEntry — одна запись (ObjectID, DataTypeID) -> payload.
type SnapshotEntry struct {
	ObjectID   StableID `json:"objectId"`
	DataTypeID TypeTag  `json:"dataTypeId"`
	Payload    []byte   `json:"payload"`
}

// Key возвращает ключ записи.
func (e SnapshotEntry) Key() SnapshotKey {
	return SnapshotKey{ObjectID: e.ObjectID, DataTypeID: e.DataTypeID}
}

// Snapshot — полное сохраненное состояние игры.
// На каждый ключ хранится не больше одной записи (гарантируется картой).
type Snapshot struct {
	entries map[SnapshotKey]SnapshotEntry
}

// NewSnapshot создает пустой снапшот.
func NewSnapshot() *Snapshot {
	return &Snapshot{entries: make(map[SnapshotKey]SnapshotEntry)}
}

// Upsert вставляет или заменяет запись по ключу. Payload копируется.
func (s *Snapshot) Upsert(e SnapshotEntry) {
	if s.entries == nil {
		s.entries = make(map[SnapshotKey]SnapshotEntry)
	}
	e.Payload = append([]byte(nil), e.Payload...)
	s.entries[e.Key()] = e
}

// Get ищет запись по ключу.
func (s *Snapshot) Get(key SnapshotKey) (SnapshotEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Delete удаляет запись. Используется только явной очисткой (eviction).
func (s *Snapshot) Delete(key SnapshotKey) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Len возвращает количество записей.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Keys возвращает отсортированный список ключей.
func (s *Snapshot) Keys() []SnapshotKey {
	keys := make([]SnapshotKey, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Entries возвращает записи в порядке ключей.
func (s *Snapshot) Entries() []SnapshotEntry {
	keys := s.Keys()
	out := make([]SnapshotEntry, len(keys))
	for i, k := range keys {
		out[i] = s.entries[k]
	}
	return out
}

// Clone делает глубокую копию (payload'ы тоже копируются).
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	for _, e := range s.entries {
		c.Upsert(e)
	}
	return c
}
