package pushhub

import "sync"

// EventKind enumerates the normalized notification events.
type EventKind int

const (
	KindAlert EventKind = iota + 1
	KindBadge
	KindSound
)

func (k EventKind) String() string {
	switch k {
	case KindAlert:
		return "alert"
	case KindBadge:
		return "badge"
	case KindSound:
		return "sound"
	default:
		return "unknown"
	}
}

// Event is a normalized notification event. It is implemented only by
// AlertEvent, BadgeEvent and SoundEvent.
type Event interface {
	Kind() EventKind
	isEvent()
}

type AlertEvent struct {
	Message string
}

type BadgeEvent struct {
	Count int
}

type SoundEvent struct {
	Filename string
}

func (AlertEvent) Kind() EventKind { return KindAlert }
func (BadgeEvent) Kind() EventKind { return KindBadge }
func (SoundEvent) Kind() EventKind { return KindSound }

func (AlertEvent) isEvent() {}
func (BadgeEvent) isEvent() {}
func (SoundEvent) isEvent() {}

type observer[E any] struct {
	id uint64
	fn func(E)
}

// observers is an ordered subscriber list for one event type.
type observers[E any] struct {
	mu      sync.RWMutex
	next    uint64
	entries []observer[E]
}

func (o *observers[E]) add(fn func(E)) func() {
	o.mu.Lock()
	o.next++
	id := o.next
	o.entries = append(o.entries, observer[E]{id: id, fn: fn})
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, e := range o.entries {
			if e.id == id {
				o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
				return
			}
		}
	}
}

func (o *observers[E]) snapshot() []observer[E] {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]observer[E], len(o.entries))
	copy(out, o.entries)
	return out
}
