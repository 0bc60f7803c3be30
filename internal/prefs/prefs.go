// Package prefs holds user preferences: the display temperature unit and
// the currently selected city.
package prefs

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/current-weather/internal/optional"
	"github.com/i474232898/current-weather/internal/weather"
)

// Preferences is safe for concurrent use.
type Preferences struct {
	mu       sync.RWMutex
	unit     weather.TemperatureUnit
	selected optional.Optional[weather.City]
	watchers map[uuid.UUID]*watcher
}

type watcher struct {
	// mu orders deliveries to one watcher.
	mu     sync.Mutex
	active bool
	fn     func(optional.Optional[weather.City])
}

// New returns preferences with no selected city. An empty unit means Celsius.
func New(unit weather.TemperatureUnit) *Preferences {
	if unit == "" {
		unit = weather.Celsius
	}
	return &Preferences{
		unit:     unit,
		watchers: make(map[uuid.UUID]*watcher),
	}
}

// TemperatureUnit returns the display unit.
func (p *Preferences) TemperatureUnit() weather.TemperatureUnit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unit
}

// SetTemperatureUnit changes the display unit. Screens pick it up on their next render.
func (p *Preferences) SetTemperatureUnit(u weather.TemperatureUnit) {
	p.mu.Lock()
	p.unit = u
	p.mu.Unlock()
	log.Printf("INFO: prefs: temperature unit set to %s", u)
}

// SelectedCity returns the selected city, or None.
func (p *Preferences) SelectedCity() optional.Optional[weather.City] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selected
}

// SelectCity makes c the selected city and notifies watchers.
func (p *Preferences) SelectCity(c weather.City) {
	p.setSelected(optional.Some(c))
}

// ClearSelectedCity deselects the current city, if any.
func (p *Preferences) ClearSelectedCity() {
	p.setSelected(optional.None[weather.City]())
}

// ForgetCity deselects cityID when it is the selected city. The check and
// the change happen under one lock so a concurrent SelectCity is kept.
func (p *Preferences) ForgetCity(cityID int64) {
	p.mu.Lock()
	c, ok := p.selected.Get()
	if !ok || c.ID != cityID {
		p.mu.Unlock()
		return
	}
	none := optional.None[weather.City]()
	p.selected = none
	targets := p.watcherList()
	p.mu.Unlock()

	p.notify(none, targets)
}

func (p *Preferences) setSelected(v optional.Optional[weather.City]) {
	p.mu.Lock()
	p.selected = v
	targets := p.watcherList()
	p.mu.Unlock()

	p.notify(v, targets)
}

// watcherList must be called with p.mu held.
func (p *Preferences) watcherList() []*watcher {
	targets := make([]*watcher, 0, len(p.watchers))
	for _, w := range p.watchers {
		targets = append(targets, w)
	}
	return targets
}

func (p *Preferences) notify(v optional.Optional[weather.City], targets []*watcher) {
	log.Printf("INFO: prefs: selected city %s", v)
	for _, w := range targets {
		w.deliver(p.SelectedCity)
	}
}

func (w *watcher) deliver(current func() optional.Optional[weather.City]) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}
	// Read under w.mu so the last delivery always carries the latest value.
	w.fn(current())
}

// WatchSelectedCity calls fn with the current selection now and after every
// change. The returned func stops delivery and may be called repeatedly,
// but not from inside fn.
func (p *Preferences) WatchSelectedCity(fn func(optional.Optional[weather.City])) (cancel func()) {
	id := uuid.New()
	w := &watcher{fn: fn, active: true}

	p.mu.Lock()
	p.watchers[id] = w
	p.mu.Unlock()

	w.deliver(p.SelectedCity)

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			w.active = false
			w.mu.Unlock()

			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}
}
