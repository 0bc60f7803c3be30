package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/i474232898/current-weather/internal/weather"
)

type recorder struct {
	mu     sync.Mutex
	values []weather.CityAndCurrentWeather
	errs   []error
}

func (r *recorder) city(v weather.CityAndCurrentWeather, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	r.values = append(r.values, v)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func (r *recorder) last() weather.CityAndCurrentWeather {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[len(r.values)-1]
}

func TestWatchCityEmitsOnWrites(t *testing.T) {
	ctx := context.Background()
	obs := NewObserved(NewMemoryStore())
	city, _, err := obs.GetOrCreateCity(ctx, weather.City{Name: "Hanoi", Country: "VN"})
	if err != nil {
		t.Fatalf("create city: %v", err)
	}

	rec := &recorder{}
	sub := obs.WatchCity(city.ID, rec.city)
	defer sub.Cancel()

	if rec.count() != 0 {
		t.Fatalf("expected no emission before the first record, got %d", rec.count())
	}

	if err := obs.Upsert(ctx, sampleWeather(city.ID, 300)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.count() != 1 || rec.last().CurrentWeather.Temperature != 300 {
		t.Fatalf("expected emission with 300K, got %+v", rec.values)
	}

	if err := obs.Upsert(ctx, sampleWeather(city.ID, 305)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.count() != 2 || rec.last().CurrentWeather.Temperature != 305 {
		t.Fatalf("expected re-emission with 305K, got %+v", rec.values)
	}

	// A subscriber arriving later gets the current value immediately.
	late := &recorder{}
	lateSub := obs.WatchCity(city.ID, late.city)
	defer lateSub.Cancel()
	if late.count() != 1 || late.last().CurrentWeather.Temperature != 305 {
		t.Fatalf("expected initial emission, got %+v", late.values)
	}
}

func TestWatchCityIgnoresOtherCities(t *testing.T) {
	ctx := context.Background()
	obs := NewObserved(NewMemoryStore())
	a, _, _ := obs.GetOrCreateCity(ctx, weather.City{Name: "A", Country: "AA"})
	b, _, _ := obs.GetOrCreateCity(ctx, weather.City{Name: "B", Country: "BB"})

	rec := &recorder{}
	sub := obs.WatchCity(a.ID, rec.city)
	defer sub.Cancel()

	if err := obs.Upsert(ctx, sampleWeather(b.ID, 290)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("expected no emission for another city, got %d", rec.count())
	}
}

func TestWatchCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	obs := NewObserved(NewMemoryStore())
	city, _, _ := obs.GetOrCreateCity(ctx, weather.City{Name: "Quito", Country: "EC"})

	rec := &recorder{}
	sub := obs.WatchCity(city.ID, rec.city)

	sub.Cancel()
	sub.Cancel() // idempotent

	if err := obs.Upsert(ctx, sampleWeather(city.ID, 290)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("expected no delivery after cancel, got %d", rec.count())
	}
	if n := obs.Hub().Len(); n != 0 {
		t.Fatalf("expected hub to be empty, got %d listeners", n)
	}
}

func TestWatchAllEmitsOrderedList(t *testing.T) {
	ctx := context.Background()
	obs := NewObserved(NewMemoryStore())
	a, _, _ := obs.GetOrCreateCity(ctx, weather.City{Name: "A", Country: "AA"})
	b, _, _ := obs.GetOrCreateCity(ctx, weather.City{Name: "B", Country: "BB"})

	var (
		mu    sync.Mutex
		lists [][]weather.CityAndCurrentWeather
	)
	sub := obs.WatchAll(func(v []weather.CityAndCurrentWeather, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		mu.Lock()
		lists = append(lists, v)
		mu.Unlock()
	})
	defer sub.Cancel()

	if len(lists) != 1 || len(lists[0]) != 0 {
		t.Fatalf("expected an initial empty list, got %+v", lists)
	}

	for _, id := range []int64{b.ID, a.ID} {
		if err := obs.Upsert(ctx, sampleWeather(id, 280)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	last := lists[len(lists)-1]
	if len(last) != 2 || last[0].City.ID != a.ID || last[1].City.ID != b.ID {
		t.Fatalf("unexpected last emission: %+v", last)
	}
}

type failingStore struct {
	*MemoryStore
}

var errBroken = errors.New("disk on fire")

func (failingStore) GetByCityOnce(context.Context, int64) (weather.CityAndCurrentWeather, error) {
	return weather.CityAndCurrentWeather{}, errBroken
}

func TestWatchCityDeliversStorageErrors(t *testing.T) {
	obs := NewObserved(failingStore{NewMemoryStore()})

	rec := &recorder{}
	sub := obs.WatchCity(1, rec.city)
	defer sub.Cancel()

	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], errBroken) {
		t.Fatalf("expected storage error to reach the handler, got %v", rec.errs)
	}
}

func TestFailedWriteDoesNotPublish(t *testing.T) {
	obs := NewObserved(NewMemoryStore())

	calls := 0
	sub := obs.WatchAll(func([]weather.CityAndCurrentWeather, error) { calls++ })
	defer sub.Cancel()

	if err := obs.Upsert(context.Background(), sampleWeather(99, 280)); err == nil {
		t.Fatal("expected error for unknown city")
	}
	if calls != 1 {
		t.Fatalf("expected only the initial emission, got %d", calls)
	}
}
