package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/current-weather/internal/weather"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// FetchInterval controls how often every tracked city is refreshed.
	FetchInterval time.Duration `validate:"min=1m"`
	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration `validate:"min=1s"`

	StoreDriver string `validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `validate:"required_if=StoreDriver sqlite"`
	DatabaseURL string `validate:"required_if=StoreDriver postgres"`

	TemperatureUnit weather.TemperatureUnit `validate:"oneof=kelvin celsius fahrenheit"`
	// MessageDuration is how long screen notifications stay up.
	MessageDuration time.Duration `validate:"min=100ms"`
	// TimeZone is used for "Last updated" texts.
	TimeZone *time.Location `validate:"required"`

	ZipkinURL string `validate:"omitempty,url"`

	// Cities added at startup.
	Cities []SeedCity `validate:"dive"`

	Port string `validate:"required,numeric"`
}

type SeedCity struct {
	Name    string `validate:"required"`
	Country string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	// Scheduler interval: default 15 minutes.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.MessageDuration, err = getenvDuration("MESSAGE_DURATION", "2s"); err != nil {
		return nil, err
	}

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", DriverMemory))
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "weather.db")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	unit, err := weather.ParseTemperatureUnit(getenvDefault("TEMPERATURE_UNIT", "celsius"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEMPERATURE_UNIT: %w", err)
	}
	cfg.TemperatureUnit = unit

	loc, err := time.LoadLocation(getenvDefault("TIME_ZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}
	cfg.TimeZone = loc

	cfg.ZipkinURL = os.Getenv("ZIPKIN_URL")
	cfg.Port = getenvDefault("PORT", "8080")

	if cfg.Cities, err = loadSeedCities(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadSeedCities() ([]SeedCity, error) {
	city := os.Getenv("WEATHER_LOCATION_CITY")
	if city == "" {
		return nil, nil
	}
	country := os.Getenv("WEATHER_LOCATION_COUNTRY")
	cities := strings.Split(city, ",")
	countries := strings.Split(country, ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}
	var seeds []SeedCity
	for i := range cities {
		seeds = append(seeds, SeedCity{
			Name:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
		})
	}

	return seeds, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
