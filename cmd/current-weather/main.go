package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/current-weather/internal/api/http"
	"github.com/i474232898/current-weather/internal/config"
	"github.com/i474232898/current-weather/internal/geo"
	"github.com/i474232898/current-weather/internal/prefs"
	"github.com/i474232898/current-weather/internal/presenter"
	"github.com/i474232898/current-weather/internal/scheduler"
	"github.com/i474232898/current-weather/internal/store"
	"github.com/i474232898/current-weather/internal/telemetry"
	"github.com/i474232898/current-weather/internal/ui"
	"github.com/i474232898/current-weather/internal/weather"
	"github.com/i474232898/current-weather/internal/weather/providers"
)

const serviceName = "current-weather"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := telemetry.Setup(serviceName, cfg.ZipkinURL)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("error shutting down tracing: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	db := store.NewObserved(backend)
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers with resilience (backoff + circuit breaker).
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	} else {
		log.Println("INFO: OPENWEATHER_API_KEY not set, skipping OpenWeatherMap")
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	} else {
		log.Println("INFO: WEATHERAPI_API_KEY not set, skipping WeatherAPI")
	}
	// Open-Meteo needs no key but only works for geocoded cities.
	provs = append(provs, providers.NewOpenMeteoProvider(httpClient))

	service := weather.NewService(db, provs, geo.New(cfg.GeocoderAPIKey))

	for _, seed := range cfg.Cities {
		if _, err := service.AddCity(ctx, weather.City{Name: seed.Name, Country: seed.Country}); err != nil {
			log.Printf("ERROR: failed to add seed city %s: %v", seed.Name, err)
		}
	}

	userPrefs := prefs.New(cfg.TemperatureUnit)

	// Headless current-weather screen driven by the presenter.
	screen := ui.NewMemoryScreen()
	view := ui.NewCurrentWeatherView(screen, userPrefs, ui.NewFormatter(cfg.TimeZone), ui.NavigatorFunc(func() {
		log.Println("INFO: live weather screen requested")
	}))
	go func() {
		if err := presenter.New(userPrefs, db, service, cfg.MessageDuration).Run(ctx, view); err != nil {
			log.Printf("ERROR: presenter stopped: %v", err)
		}
	}()

	// Scheduler that periodically refreshes every tracked city.
	sched := scheduler.New(cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Health endpoint, backed by a store ping.
	httpapi.RegisterHealth(app, serviceName, cfg.StoreDriver, db)

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service: service,
		Prefs:   userPrefs,
		View:    view,
		Screen:  screen,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// openStore returns the backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.AppConfig) (weather.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverSQLite:
		return store.NewSQLite(cfg.SQLitePath)
	case config.DriverPostgres:
		return store.NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
