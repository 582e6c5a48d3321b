package checkpoint

// EventType - идентификатор события контроллера
type EventType uint8

const (
	EventUnknown EventType = iota
	EventInitialized
	EventReachedChanged
	EventActiveChanged
	EventRespawned
)

// Маппинг для логов и протокола Domain -> String
var eventTypeToString = map[EventType]string{
	EventInitialized:    "INITIALIZED",
	EventReachedChanged: "REACHED_CHANGED",
	EventActiveChanged:  "ACTIVE_CHANGED",
	EventRespawned:      "RESPAWNED",
}

// String реализует интерфейс Stringer
func (e EventType) String() string {
	if val, ok := eventTypeToString[e]; ok {
		return val
	}
	return "UNKNOWN"
}

// Event - уведомление для наблюдателей (UI, сетевой хаб)
type Event struct {
	Type         EventType
	CheckpointID string
	Value        bool
}

// Subscription отменяет регистрацию наблюдателя.
type Subscription struct {
	cancel func()
}

// Cancel снимает наблюдателя. Повторный вызов безопасен.
func (s Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

type listenerEntry[T any] struct {
	id int
	fn func(T)
}

// listenerList - явный список наблюдателей вместо multicast-делегатов.
// Однопоточный, как и весь контроллер.
type listenerList[T any] struct {
	nextID  int
	entries []listenerEntry[T]
}

func (l *listenerList[T]) add(fn func(T)) Subscription {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry[T]{id: id, fn: fn})
	return Subscription{cancel: func() { l.remove(id) }}
}

func (l *listenerList[T]) remove(id int) {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

// notify вызывает копию списка: наблюдатель может отписаться прямо из колбэка.
func (l *listenerList[T]) notify(v T) {
	if len(l.entries) == 0 {
		return
	}
	snapshot := append([]listenerEntry[T](nil), l.entries...)
	for _, e := range snapshot {
		e.fn(v)
	}
}

func (l *listenerList[T]) clear() {
	l.entries = nil
}

func (l *listenerList[T]) len() int {
	return len(l.entries)
}
