// Package presenter turns the selected city, its stored weather and user
// refresh gestures into view states for the current-weather screen.
package presenter

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/i474232898/current-weather/internal/optional"
	"github.com/i474232898/current-weather/internal/store"
	"github.com/i474232898/current-weather/internal/ui"
	"github.com/i474232898/current-weather/internal/weather"
)

// DefaultMessageDuration is how long a notification stays before it is
// dismissed.
const DefaultMessageDuration = 2 * time.Second

// CitySource reports the selected city.
type CitySource interface {
	WatchSelectedCity(fn func(optional.Optional[weather.City])) (cancel func())
}

// WeatherSource streams the stored weather of one city.
type WeatherSource interface {
	WatchCity(cityID int64, fn func(weather.CityAndCurrentWeather, error)) *store.Subscription
}

// Refresher fetches fresh weather for a city and stores it.
type Refresher interface {
	RefreshCity(ctx context.Context, cityID int64) (weather.CityAndCurrentWeather, error)
}

// View renders states and emits refresh gestures.
type View interface {
	Render(ui.ViewState)
	RefreshIntents() <-chan struct{}
}

// Presenter owns no state between runs; each Run has its own loop.
type Presenter struct {
	cities          CitySource
	weather         WeatherSource
	refresher       Refresher
	messageDuration time.Duration
}

// New returns a presenter. A non-positive messageDuration means
// DefaultMessageDuration.
func New(cities CitySource, weatherSource WeatherSource, refresher Refresher, messageDuration time.Duration) *Presenter {
	if messageDuration <= 0 {
		messageDuration = DefaultMessageDuration
	}
	return &Presenter{
		cities:          cities,
		weather:         weatherSource,
		refresher:       refresher,
		messageDuration: messageDuration,
	}
}

type messageKind int

const (
	kindNoSelectedCity messageKind = iota
	kindError
	kindRefreshSuccess
)

// Events delivered to the loop.
type (
	selectionChanged struct {
		city optional.Optional[weather.City]
	}
	weatherEmitted struct {
		gen   uint64
		value weather.CityAndCurrentWeather
		err   error
	}
	refreshDone struct {
		gen   uint64
		value weather.CityAndCurrentWeather
		err   error
	}
	hideMessage struct {
		kind messageKind
		seq  uint64
	}
)

// queue is an unbounded FIFO; pushes never block the producer.
type queue struct {
	mu     sync.Mutex
	items  []any
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

func (q *queue) push(e any) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *queue) drain() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// loop holds the state of one Run. Only the Run goroutine touches it.
type loop struct {
	p    *Presenter
	view View
	ctx  context.Context
	q    *queue

	gen     uint64
	city    optional.Optional[weather.City]
	sub     *store.Subscription
	latest  optional.Optional[weather.CityAndCurrentWeather]
	lastErr error

	// refreshing is set while a refresh for the current generation runs.
	refreshing    bool
	cancelRefresh context.CancelFunc

	seq    uint64
	shown  map[messageKind]uint64
	timers map[uint64]*time.Timer
}

// Run drives view until ctx is cancelled. All rendering happens on the
// calling goroutine.
func (p *Presenter) Run(ctx context.Context, view View) error {
	l := &loop{
		p:      p,
		view:   view,
		ctx:    ctx,
		q:      newQueue(),
		shown:  make(map[messageKind]uint64),
		timers: make(map[uint64]*time.Timer),
	}

	stopWatch := p.cities.WatchSelectedCity(func(c optional.Optional[weather.City]) {
		l.q.push(selectionChanged{city: c})
	})
	defer func() {
		stopWatch()
		l.sub.Cancel()
		l.stopRefresh()
		for _, t := range l.timers {
			t.Stop()
		}
	}()

	log.Println("INFO: presenter: started")
	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: presenter: stopped")
			return nil
		case <-view.RefreshIntents():
			l.refresh()
		case <-l.q.signal:
			for _, e := range l.q.drain() {
				l.handle(e)
			}
		}
	}
}

func (l *loop) render(s ui.ViewState) {
	log.Printf("DEBUG: presenter: render %s", s)
	l.view.Render(s)
}

func (l *loop) handle(e any) {
	switch e := e.(type) {
	case selectionChanged:
		l.selectCity(e.city)
	case weatherEmitted:
		if e.gen != l.gen {
			return
		}
		if e.err != nil {
			l.showError(e.err)
			return
		}
		l.latest = optional.Some(e.value)
		l.render(ui.Weather{Current: e.value.CurrentWeather})
	case refreshDone:
		if e.gen != l.gen {
			return
		}
		l.stopRefresh()
		if e.err != nil {
			log.Printf("ERROR: presenter: refresh failed: %v", e.err)
			l.showError(e.err)
			return
		}
		l.latest = optional.Some(e.value)
		l.render(ui.RefreshWeatherSuccess{Current: e.value.CurrentWeather, ShowMessage: true})
		l.scheduleHide(kindRefreshSuccess)
	case hideMessage:
		delete(l.timers, e.seq)
		if l.shown[e.kind] != e.seq {
			return
		}
		l.hide(e.kind)
	}
}

func (l *loop) selectCity(c optional.Optional[weather.City]) {
	l.gen++
	l.sub.Cancel()
	l.sub = nil
	l.stopRefresh()

	// Messages about the previous selection go first.
	l.hide(kindRefreshSuccess)
	l.hide(kindError)
	l.latest = optional.None[weather.CityAndCurrentWeather]()
	l.city = c

	city, ok := c.Get()
	if !ok {
		l.render(ui.NoSelectedCity{ShowMessage: true})
		l.scheduleHide(kindNoSelectedCity)
		return
	}

	l.hide(kindNoSelectedCity)
	l.render(ui.Loading{})

	gen := l.gen
	l.sub = l.p.weather.WatchCity(city.ID, func(v weather.CityAndCurrentWeather, err error) {
		l.q.push(weatherEmitted{gen: gen, value: v, err: err})
	})
}

func (l *loop) refresh() {
	city, ok := l.city.Get()
	if !ok {
		l.render(ui.NoSelectedCity{ShowMessage: true})
		l.scheduleHide(kindNoSelectedCity)
		return
	}
	l.render(ui.Loading{})
	if l.refreshing {
		return
	}
	l.refreshing = true
	ctx, cancel := context.WithCancel(l.ctx)
	l.cancelRefresh = cancel

	gen := l.gen
	go func() {
		v, err := l.p.refresher.RefreshCity(ctx, city.ID)
		l.q.push(refreshDone{gen: gen, value: v, err: err})
	}()
}

// stopRefresh forgets the in-flight refresh and cancels its fetch. A result
// that still arrives carries an old generation and is dropped.
func (l *loop) stopRefresh() {
	if l.cancelRefresh != nil {
		l.cancelRefresh()
		l.cancelRefresh = nil
	}
	l.refreshing = false
}

func (l *loop) showError(err error) {
	l.lastErr = err
	l.render(ui.Error{Err: err, ShowMessage: true})
	l.scheduleHide(kindError)
}

func (l *loop) scheduleHide(kind messageKind) {
	l.seq++
	seq := l.seq
	l.shown[kind] = seq
	l.timers[seq] = time.AfterFunc(l.p.messageDuration, func() {
		l.q.push(hideMessage{kind: kind, seq: seq})
	})
}

// hide renders the dismissing counterpart of a shown message.
func (l *loop) hide(kind messageKind) {
	if _, ok := l.shown[kind]; !ok {
		return
	}
	delete(l.shown, kind)

	switch kind {
	case kindNoSelectedCity:
		l.render(ui.NoSelectedCity{ShowMessage: false})
	case kindError:
		l.render(ui.Error{Err: l.lastErr, ShowMessage: false})
	case kindRefreshSuccess:
		if v, ok := l.latest.Get(); ok {
			l.render(ui.RefreshWeatherSuccess{Current: v.CurrentWeather, ShowMessage: false})
		}
	}
}
