package service

import "sync"

// State is the lifecycle state of a search index
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateError         State = "error"
)

// Progress reports how many items have been embedded during a build
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Percent returns completion in the range [0, 100]
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// Listener is notified of state transitions and build progress.
// err is non-nil only in StateError. Calls are serialized, so a listener
// sees states in the order they happened.
type Listener func(state State, err error, progress Progress)

// ListenerID identifies a registered listener
type ListenerID uint64

// listenerSet is a registry of listeners keyed by ID
type listenerSet struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[ListenerID]Listener
}

func (l *listenerSet) add(fn Listener) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listeners == nil {
		l.listeners = make(map[ListenerID]Listener)
	}
	l.nextID++
	l.listeners[l.nextID] = fn
	return l.nextID
}

func (l *listenerSet) remove(id ListenerID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.listeners[id]; !ok {
		return false
	}
	delete(l.listeners, id)
	return true
}

// snapshot copies the current listeners so they can be called without the lock
func (l *listenerSet) snapshot() []Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Listener, 0, len(l.listeners))
	for _, fn := range l.listeners {
		out = append(out, fn)
	}
	return out
}

func (l *listenerSet) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.listeners)
}
