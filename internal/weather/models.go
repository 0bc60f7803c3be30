package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// City is a place the user tracks weather for.
// Name/Country must be provided; ID is assigned by the store.
type City struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for logging and lookups by name.
func (c City) Key() string {
	return c.Name + ":" + c.Country
}

// HasCoordinates reports whether the city has been geocoded.
func (c City) HasCoordinates() bool {
	return c.Lat != 0 || c.Lon != 0
}

// CurrentWeather is the single stored weather record for a city.
// Temperature is kept in Kelvin; conversion happens at display time.
type CurrentWeather struct {
	CityID       int64     `json:"cityId"`
	Temperature  float64   `json:"temperatureK"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	ConditionID  int       `json:"conditionId"`
	DataTime     time.Time `json:"dataTime"`
	Pressure     float64   `json:"pressureHpa"`
	Humidity     int       `json:"humidityPercent"`
	RainVolume3h float64   `json:"rainVolume3hMm"`
	Visibility   float64   `json:"visibilityM"`
	WindSpeed    float64   `json:"windSpeedMs"`
	WindDegrees  float64   `json:"windDegrees"`
}

// CityAndCurrentWeather joins a city with its current weather record.
type CityAndCurrentWeather struct {
	City           City           `json:"city"`
	CurrentWeather CurrentWeather `json:"currentWeather"`
}

// DailyForecast is the aggregated forecast for one calendar day (UTC).
type DailyForecast struct {
	Date        time.Time `json:"date"`
	TempMin     float64   `json:"tempMinK"`
	TempMax     float64   `json:"tempMaxK"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeedMs"`
	PrecipMM    float64   `json:"precipMm"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`

	// Providers contributing to this entry.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// Forecast is a multi-day forecast ordered by Date ascending.
type Forecast []DailyForecast

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}
