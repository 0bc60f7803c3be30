package store

import (
	"context"
	"sort"
	"sync"

	"github.com/i474232898/current-weather/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	nextID int64
	cities map[int64]weather.City
	// key: city key (name:country), value: city id
	byKey map[string]int64
	// key: city id, value: its single current weather record
	current map[int64]weather.CurrentWeather
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cities:  make(map[int64]weather.City),
		byKey:   make(map[string]int64),
		current: make(map[int64]weather.CurrentWeather),
	}
}

// GetOrCreateCity finds a city by name and country, or creates it.
func (s *MemoryStore) GetOrCreateCity(_ context.Context, city weather.City) (weather.City, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[city.Key()]; ok {
		return s.cities[id], false, nil
	}

	s.nextID++
	city.ID = s.nextID
	s.cities[city.ID] = city
	s.byKey[city.Key()] = city.ID
	return city, true, nil
}

// GetCity returns a city by id.
func (s *MemoryStore) GetCity(_ context.Context, cityID int64) (weather.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	city, ok := s.cities[cityID]
	if !ok {
		return weather.City{}, ErrCityNotFound
	}
	return city, nil
}

// GetCities returns all cities ordered by id.
func (s *MemoryStore) GetCities(_ context.Context) ([]weather.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.City, 0, len(s.cities))
	for _, c := range s.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteCity removes a city and its weather record.
func (s *MemoryStore) DeleteCity(_ context.Context, cityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	city, ok := s.cities[cityID]
	if !ok {
		return ErrCityNotFound
	}
	delete(s.cities, cityID)
	delete(s.byKey, city.Key())
	delete(s.current, cityID)
	return nil
}

// GetByCityOnce returns the city joined with its weather record.
func (s *MemoryStore) GetByCityOnce(_ context.Context, cityID int64) (weather.CityAndCurrentWeather, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	city, ok := s.cities[cityID]
	if !ok {
		return weather.CityAndCurrentWeather{}, ErrNotFound
	}
	cw, ok := s.current[cityID]
	if !ok {
		return weather.CityAndCurrentWeather{}, ErrNotFound
	}
	return weather.CityAndCurrentWeather{City: city, CurrentWeather: cw}, nil
}

// GetAll returns every city that has a weather record, ordered by city id.
func (s *MemoryStore) GetAll(_ context.Context) ([]weather.CityAndCurrentWeather, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.CityAndCurrentWeather, 0, len(s.current))
	for id, cw := range s.current {
		out = append(out, weather.CityAndCurrentWeather{City: s.cities[id], CurrentWeather: cw})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City.ID < out[j].City.ID })
	return out, nil
}

// Upsert inserts the record, or replaces the existing one for the same city.
// The write lock is held across both steps.
func (s *MemoryStore) Upsert(ctx context.Context, cw weather.CurrentWeather) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cw.DataTime = truncate(cw.DataTime)
	return upsert(ctx, memoryWriter{s}, cw)
}

// DeleteCurrentWeather removes the weather record of a city, if any.
func (s *MemoryStore) DeleteCurrentWeather(_ context.Context, cityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.current, cityID)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// memoryWriter runs with s.mu held.
type memoryWriter struct {
	s *MemoryStore
}

func (w memoryWriter) insertCurrentWeather(_ context.Context, cw weather.CurrentWeather) (bool, error) {
	if _, ok := w.s.cities[cw.CityID]; !ok {
		return false, ErrCityNotFound
	}
	if _, exists := w.s.current[cw.CityID]; exists {
		return false, nil
	}
	w.s.current[cw.CityID] = cw
	return true, nil
}

func (w memoryWriter) updateCurrentWeather(_ context.Context, cw weather.CurrentWeather) error {
	if _, exists := w.s.current[cw.CityID]; !exists {
		return ErrNotFound
	}
	w.s.current[cw.CityID] = cw
	return nil
}
