package weather

import (
	"context"
	"time"
)

// ProviderReading represents a single provider's normalized reading
// that can be aggregated into a CurrentWeather record.
// Fields a provider cannot supply are left at their zero value and the
// matching Has* flag stays false.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureK float64
	HumidityPct  float64
	WindSpeedMS  float64
	WindDegrees  float64
	PressureHpa  float64
	Rain3hMm     float64
	VisibilityM  float64

	Condition   Condition
	ConditionID int    // OpenWeatherMap-compatible condition id
	Icon        string // OpenWeatherMap-compatible icon code, e.g. "10d"
	Description string

	HasHumidity   bool
	HasWind       bool
	HasPressure   bool
	HasVisibility bool
}

// ForecastReading is one provider's prediction for a single day.
type ForecastReading struct {
	ProviderName string
	Day          time.Time

	TempMinK    float64
	TempMaxK    float64
	HumidityPct float64
	WindSpeedMS float64
	PrecipMm    float64
	Condition   Condition
	Icon        string
	Description string
}

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city City) (ProviderReading, error)
}

// ForecastProvider is implemented by providers that can return daily forecasts.
type ForecastProvider interface {
	FetchForecast(ctx context.Context, city City, days int) ([]ForecastReading, error)
}

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, city City) (lat, lon float64, err error)
}

// Store is the persistence contract every backend (memory, SQLite, Postgres) satisfies.
type Store interface {
	GetOrCreateCity(ctx context.Context, city City) (City, bool, error)
	GetCity(ctx context.Context, cityID int64) (City, error)
	GetCities(ctx context.Context) ([]City, error)
	DeleteCity(ctx context.Context, cityID int64) error

	GetByCityOnce(ctx context.Context, cityID int64) (CityAndCurrentWeather, error)
	GetAll(ctx context.Context) ([]CityAndCurrentWeather, error)
	Upsert(ctx context.Context, cw CurrentWeather) error
	DeleteCurrentWeather(ctx context.Context, cityID int64) error
}
