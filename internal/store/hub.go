package store

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Hub is a registry of change listeners keyed by city id. Listeners
// registered with SubscribeAll are notified for every city.
type Hub struct {
	mu     sync.Mutex
	byCity map[int64]map[uuid.UUID]*listener
	all    map[uuid.UUID]*listener
}

type listener struct {
	// mu is held while the listener re-reads and delivers, so deliveries to
	// one listener never interleave.
	mu     sync.Mutex
	active atomic.Bool
	notify func()
}

func (l *listener) fire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active.Load() {
		return
	}
	l.notify()
}

// Subscription is the handle returned by Subscribe calls.
type Subscription struct {
	ID     uuid.UUID
	l      *listener
	once   sync.Once
	cancel func()
}

// Cancel stops further delivery. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// NewHub returns an empty registry.
func NewHub() *Hub {
	return &Hub{
		byCity: make(map[int64]map[uuid.UUID]*listener),
		all:    make(map[uuid.UUID]*listener),
	}
}

// Subscribe registers notify for changes to cityID.
func (h *Hub) Subscribe(cityID int64, notify func()) *Subscription {
	id := uuid.New()
	l := &listener{notify: notify}
	l.active.Store(true)

	h.mu.Lock()
	set, ok := h.byCity[cityID]
	if !ok {
		set = make(map[uuid.UUID]*listener)
		h.byCity[cityID] = set
	}
	set[id] = l
	h.mu.Unlock()

	return &Subscription{ID: id, l: l, cancel: func() {
		l.active.Store(false)
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.byCity[cityID], id)
		if len(h.byCity[cityID]) == 0 {
			delete(h.byCity, cityID)
		}
	}}
}

// SubscribeAll registers notify for changes to any city.
func (h *Hub) SubscribeAll(notify func()) *Subscription {
	id := uuid.New()
	l := &listener{notify: notify}
	l.active.Store(true)

	h.mu.Lock()
	h.all[id] = l
	h.mu.Unlock()

	return &Subscription{ID: id, l: l, cancel: func() {
		l.active.Store(false)
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.all, id)
	}}
}

// Publish notifies the listeners of cityID and every SubscribeAll listener.
// Listeners run on the caller's goroutine, outside the hub lock.
func (h *Hub) Publish(cityID int64) {
	h.mu.Lock()
	targets := make([]*listener, 0, len(h.byCity[cityID])+len(h.all))
	for _, l := range h.byCity[cityID] {
		targets = append(targets, l)
	}
	for _, l := range h.all {
		targets = append(targets, l)
	}
	h.mu.Unlock()

	for _, l := range targets {
		l.fire()
	}
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.all)
	for _, set := range h.byCity {
		n += len(set)
	}
	return n
}
