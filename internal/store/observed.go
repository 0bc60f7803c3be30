package store

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/i474232898/current-weather/internal/weather"
)

const watchQueryTimeout = 5 * time.Second

// Observed wraps a weather.Store and re-emits query results to watchers
// after every committed write.
//
// Watch handlers run synchronously on the writer's goroutine and must not
// write to the store themselves.
type Observed struct {
	weather.Store
	hub *Hub
}

var _ weather.Store = (*Observed)(nil)

// NewObserved wraps s. Writes must go through the returned store to reach
// watchers.
func NewObserved(s weather.Store) *Observed {
	return &Observed{Store: s, hub: NewHub()}
}

// Hub exposes the underlying listener registry.
func (o *Observed) Hub() *Hub {
	return o.hub
}

// WatchCity calls fn with the city's current record now and after every
// write affecting that city. Nothing is emitted while the city has no
// record.
func (o *Observed) WatchCity(cityID int64, fn func(weather.CityAndCurrentWeather, error)) *Subscription {
	emit := func() {
		ctx, cancel := context.WithTimeout(context.Background(), watchQueryTimeout)
		defer cancel()

		v, err := o.Store.GetByCityOnce(ctx, cityID)
		if errors.Is(err, ErrNotFound) {
			return
		}
		fn(v, err)
	}

	sub := o.hub.Subscribe(cityID, emit)
	o.fireInitial(sub, emit)
	return sub
}

// WatchAll calls fn with every city's record, ordered by city id, now and
// after every write.
func (o *Observed) WatchAll(fn func([]weather.CityAndCurrentWeather, error)) *Subscription {
	emit := func() {
		ctx, cancel := context.WithTimeout(context.Background(), watchQueryTimeout)
		defer cancel()

		fn(o.Store.GetAll(ctx))
	}

	sub := o.hub.SubscribeAll(emit)
	o.fireInitial(sub, emit)
	return sub
}

// fireInitial delivers through the listener so a concurrent Publish cannot
// interleave with the first emission.
func (o *Observed) fireInitial(sub *Subscription, emit func()) {
	if sub.l == nil {
		emit()
		return
	}
	sub.l.fire()
}

// GetOrCreateCity notifies list watchers only when a city was created.
func (o *Observed) GetOrCreateCity(ctx context.Context, city weather.City) (weather.City, bool, error) {
	stored, created, err := o.Store.GetOrCreateCity(ctx, city)
	if err != nil {
		return stored, created, err
	}
	if created {
		o.hub.Publish(stored.ID)
	}
	return stored, created, nil
}

func (o *Observed) DeleteCity(ctx context.Context, cityID int64) error {
	if err := o.Store.DeleteCity(ctx, cityID); err != nil {
		return err
	}
	o.hub.Publish(cityID)
	return nil
}

// Upsert writes through and notifies watchers of the city.
func (o *Observed) Upsert(ctx context.Context, cw weather.CurrentWeather) error {
	if err := o.Store.Upsert(ctx, cw); err != nil {
		return err
	}
	o.hub.Publish(cw.CityID)
	return nil
}

func (o *Observed) DeleteCurrentWeather(ctx context.Context, cityID int64) error {
	if err := o.Store.DeleteCurrentWeather(ctx, cityID); err != nil {
		return err
	}
	o.hub.Publish(cityID)
	return nil
}

// Ping checks the wrapped store's connection. Stores without one are
// always reachable.
func (o *Observed) Ping(ctx context.Context) error {
	if p, ok := o.Store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the wrapped store when it supports closing.
func (o *Observed) Close() error {
	if c, ok := o.Store.(io.Closer); ok {
		log.Println("INFO: store: closing")
		return c.Close()
	}
	return nil
}
