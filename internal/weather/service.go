package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoProviders is returned when the service was built without providers.
	ErrNoProviders = errors.New("no weather providers configured")
	// ErrNoReadings is returned when every provider failed for a city.
	ErrNoReadings = errors.New("no successful provider readings")
)

const (
	tracerName         = "github.com/i474232898/current-weather/internal/weather"
	refreshConcurrency = 4
)

// Service orchestrates fetching from multiple providers and persisting the
// current weather record of each city.
type Service struct {
	store     Store
	providers []Provider
	geocoder  Geocoder
	tracer    trace.Tracer
}

// NewService creates a new Service. geocoder may be nil, in which case cities
// must be added with coordinates.
func NewService(store Store, providers []Provider, geocoder Geocoder) *Service {
	return &Service{
		store:     store,
		providers: providers,
		geocoder:  geocoder,
		tracer:    otel.Tracer(tracerName),
	}
}

// AddCity registers a city, geocoding it first when coordinates are missing.
// Adding an existing name/country pair returns the stored city.
func (s *Service) AddCity(ctx context.Context, city City) (City, error) {
	ctx, span := s.tracer.Start(ctx, "weather.AddCity", trace.WithAttributes(
		attribute.String("city.key", city.Key()),
	))
	defer span.End()

	if !city.HasCoordinates() && s.geocoder != nil {
		lat, lon, err := s.geocoder.Locate(ctx, city)
		if err != nil {
			// Non-fatal: providers that query by name still work.
			log.Printf("geocode failed for %s: %v", city.Key(), err)
		} else {
			city.Lat, city.Lon = lat, lon
		}
	}

	stored, created, err := s.store.GetOrCreateCity(ctx, city)
	if err != nil {
		recordError(span, err)
		return City{}, fmt.Errorf("save city %s: %w", city.Key(), err)
	}
	if created {
		log.Printf("INFO: added city %s with id %d", stored.Key(), stored.ID)
	}
	return stored, nil
}

// RemoveCity deletes a city together with its weather record.
func (s *Service) RemoveCity(ctx context.Context, cityID int64) error {
	if err := s.store.DeleteCity(ctx, cityID); err != nil {
		return fmt.Errorf("delete city %d: %w", cityID, err)
	}
	return nil
}

// City returns a tracked city by id.
func (s *Service) City(ctx context.Context, cityID int64) (City, error) {
	return s.store.GetCity(ctx, cityID)
}

// Cities returns every tracked city.
func (s *Service) Cities(ctx context.Context) ([]City, error) {
	return s.store.GetCities(ctx)
}

// RefreshCity fetches data from all providers concurrently for the given city,
// aggregates successful readings, upserts the record and reads it back.
// When every provider fails the stored record is left untouched.
func (s *Service) RefreshCity(ctx context.Context, cityID int64) (CityAndCurrentWeather, error) {
	ctx, span := s.tracer.Start(ctx, "weather.RefreshCity", trace.WithAttributes(
		attribute.Int64("city.id", cityID),
	))
	defer span.End()

	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		recordError(span, err)
		return CityAndCurrentWeather{}, fmt.Errorf("load city %d: %w", cityID, err)
	}

	cw, err := s.fetchCurrent(ctx, city)
	if err != nil {
		recordError(span, err)
		return CityAndCurrentWeather{}, err
	}

	if err := s.store.Upsert(ctx, cw); err != nil {
		recordError(span, err)
		return CityAndCurrentWeather{}, fmt.Errorf("store weather for %s: %w", city.Key(), err)
	}

	return s.store.GetByCityOnce(ctx, cityID)
}

// RefreshAll refreshes every tracked city, at most refreshConcurrency at a
// time. Per-city failures are logged and returned joined.
func (s *Service) RefreshAll(ctx context.Context) error {
	cities, err := s.store.GetCities(ctx)
	if err != nil {
		return fmt.Errorf("list cities: %w", err)
	}

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, refreshConcurrency)
		errs = make([]error, len(cities))
	)
	for i, c := range cities {
		wg.Add(1)
		go func(i int, c City) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := s.RefreshCity(ctx, c.ID); err != nil {
				log.Printf("ERROR: refresh %s: %v", c.Key(), err)
				errs[i] = err
			}
		}(i, c)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// LiveWeather fetches the current weather for a city without persisting it.
func (s *Service) LiveWeather(ctx context.Context, cityID int64) (CityAndCurrentWeather, error) {
	ctx, span := s.tracer.Start(ctx, "weather.LiveWeather", trace.WithAttributes(
		attribute.Int64("city.id", cityID),
	))
	defer span.End()

	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		recordError(span, err)
		return CityAndCurrentWeather{}, fmt.Errorf("load city %d: %w", cityID, err)
	}

	cw, err := s.fetchCurrent(ctx, city)
	if err != nil {
		recordError(span, err)
		return CityAndCurrentWeather{}, err
	}
	return CityAndCurrentWeather{City: city, CurrentWeather: cw}, nil
}

func (s *Service) fetchCurrent(ctx context.Context, city City) (CurrentWeather, error) {
	log.Printf("DEBUG: fetching current weather for %s with %d providers", city.Key(), len(s.providers))
	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch weather data for %s", city.Key())
		return CurrentWeather{}, ErrNoProviders
	}

	var (
		wg      sync.WaitGroup
		results = make([]*ProviderReading, len(s.providers))
		errs    = make([]error, len(s.providers))
	)

	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			pctx, span := s.tracer.Start(ctx, "provider.Fetch", trace.WithAttributes(
				attribute.String("provider", p.Name()),
			))
			defer span.End()

			r, err := p.Fetch(pctx, city)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("provider %s fetch failed for %s: %v", p.Name(), city.Key(), err)
				recordError(span, err)
				errs[i] = err
				return
			}
			results[i] = &r
		}(i, p)
	}

	wg.Wait()

	// Keep provider priority order for aggregation.
	readings := make([]ProviderReading, 0, len(results))
	for _, r := range results {
		if r != nil {
			readings = append(readings, *r)
		}
	}

	if len(readings) == 0 {
		log.Printf("no successful provider readings for %s; keeping last stored record if any", city.Key())
		return CurrentWeather{}, fmt.Errorf("%w for %s: %w", ErrNoReadings, city.Key(), errors.Join(errs...))
	}

	cw := AggregateReadings(city.ID, readings)
	if cw.DataTime.IsZero() {
		cw.DataTime = time.Now().UTC()
	}
	return cw, nil
}

// GetForecast fetches multi-day forecasts from providers that support it,
// aggregates them per day, and returns a normalized Forecast.
func (s *Service) GetForecast(ctx context.Context, cityID int64, days int) (Forecast, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}

	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("load city %d: %w", cityID, err)
	}

	log.Printf("DEBUG: GetForecast called for %s for %d days", city.Key(), days)

	ctx, span := s.tracer.Start(ctx, "weather.GetForecast", trace.WithAttributes(
		attribute.Int64("city.id", cityID),
		attribute.Int("days", days),
	))
	defer span.End()

	// Use a bounded context for outbound provider calls.
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	type dayKey string

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		dayReadings   = make(map[dayKey][]ForecastReading)
		dayTimestamps = make(map[dayKey]time.Time)
	)

	for _, p := range s.providers {
		fp, ok := p.(ForecastProvider)
		if !ok {
			continue
		}

		providerName := p.Name()

		wg.Add(1)
		go func(fp ForecastProvider, providerName string) {
			defer wg.Done()

			readings, err := fp.FetchForecast(ctx, city, days)
			if err != nil {
				log.Printf("provider %s forecast failed for %s: %v", providerName, city.Key(), err)
				return
			}

			if len(readings) == 0 {
				return
			}

			mu.Lock()
			defer mu.Unlock()

			for _, r := range readings {
				ts := r.Day.UTC()
				k := dayKey(ts.Format("2006-01-02"))

				dayReadings[k] = append(dayReadings[k], r)

				if _, exists := dayTimestamps[k]; !exists {
					dayTimestamps[k] = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
				}
			}
		}(fp, providerName)
	}

	wg.Wait()

	if len(dayReadings) == 0 {
		log.Printf("no successful forecast readings for %s", city.Key())
		return nil, fmt.Errorf("no forecast data available")
	}

	// Collect and sort all date keys.
	keys := make([]string, 0, len(dayReadings))
	for k := range dayReadings {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	forecast := make(Forecast, 0, days)

	for _, k := range keys {
		if len(forecast) >= days {
			break
		}

		dk := dayKey(k)
		readings := dayReadings[dk]
		if len(readings) == 0 {
			continue
		}

		// Provider goroutines finish in any order.
		sort.SliceStable(readings, func(i, j int) bool {
			return readings[i].ProviderName < readings[j].ProviderName
		})

		forecast = append(forecast, AggregateForecast(dayTimestamps[dk], readings))
	}

	return forecast, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(ctx context.Context, cityID int64) (CityAndCurrentWeather, error) {
	return s.store.GetByCityOnce(ctx, cityID)
}

// GetAll delegates to the underlying store.
func (s *Service) GetAll(ctx context.Context) ([]CityAndCurrentWeather, error) {
	return s.store.GetAll(ctx)
}

// ClearWeather deletes the stored weather record of a city. The city stays tracked.
func (s *Service) ClearWeather(ctx context.Context, cityID int64) error {
	if err := s.store.DeleteCurrentWeather(ctx, cityID); err != nil {
		return fmt.Errorf("delete weather of city %d: %w", cityID, err)
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
