package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/current-weather/internal/weather"
)

func fastBackoff(cfg *HTTPClientConfig) {
	cfg.Backoff.InitialInterval = time.Millisecond
	cfg.Backoff.MaxInterval = 2 * time.Millisecond
}

const openWeatherBody = `{
	"dt": 1700000000,
	"main": {"temp": 293.15, "humidity": 81, "pressure": 1012},
	"visibility": 8000,
	"wind": {"speed": 4.6, "deg": 250},
	"rain": {"3h": 1.25},
	"weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}]
}`

func TestOpenWeatherFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, openWeatherBody)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	fastBackoff(&p.httpCfg)

	r, err := p.Fetch(context.Background(), weather.City{Name: "Hanoi", Country: "VN", Lat: 21.0285, Lon: 105.8542})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery == "" || !strings.Contains(gotQuery, "lat=21.0285") || strings.Contains(gotQuery, "units=") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if r.TemperatureK != 293.15 || r.HumidityPct != 81 || r.PressureHpa != 1012 {
		t.Errorf("unexpected main fields: %+v", r)
	}
	if r.VisibilityM != 8000 || !r.HasVisibility {
		t.Errorf("expected visibility 8000, got %v", r.VisibilityM)
	}
	if r.Rain3hMm != 1.25 || r.WindDegrees != 250 || r.WindSpeedMS != 4.6 {
		t.Errorf("unexpected wind/rain: %+v", r)
	}
	if r.ConditionID != 500 || r.Icon != "10d" || r.Description != "light rain" || r.Condition != weather.ConditionRain {
		t.Errorf("unexpected condition fields: %+v", r)
	}
	if !r.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected timestamp %v", r.Timestamp)
	}
}

func TestOpenWeatherRequiresAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")
	if _, err := p.Fetch(context.Background(), weather.City{Name: "Paris"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestResilienceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, openWeatherBody)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	fastBackoff(&p.httpCfg)

	if _, err := p.Fetch(context.Background(), weather.City{Name: "Paris", Country: "FR"}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestResilienceDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	fastBackoff(&p.httpCfg)

	_, err := p.Fetch(context.Background(), weather.City{Name: "Atlantis"})
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected errUnexpected, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected a single call, got %d", got)
	}
}

func TestClientErrorsKeepBreakerClosed(t *testing.T) {
	var notFound atomic.Bool
	notFound.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if notFound.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, openWeatherBody)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	fastBackoff(&p.httpCfg)

	for i := 0; i < 10; i++ {
		if _, err := p.Fetch(context.Background(), weather.City{Name: "Atlantis"}); !errors.Is(err, errUnexpected) {
			t.Fatalf("attempt %d: expected errUnexpected, got %v", i, err)
		}
	}
	if st := p.circuit.State(); st != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker after client errors, got %s", st)
	}

	notFound.Store(false)
	if _, err := p.Fetch(context.Background(), weather.City{Name: "Paris", Country: "FR"}); err != nil {
		t.Fatalf("expected a valid city to still be fetched, got %v", err)
	}
}

func TestOpenMeteoFetchAndForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("daily") != "" {
			fmt.Fprint(w, `{"daily": {
				"time": ["2024-05-01", "2024-05-02"],
				"weather_code": [0, 61],
				"temperature_2m_max": [25, 18],
				"temperature_2m_min": [15, 11],
				"precipitation_sum": [0, 4.2],
				"wind_speed_10m_max": [3, 7]
			}}`)
			return
		}
		fmt.Fprint(w, `{"current": {
			"time": "2024-05-01T12:15",
			"temperature_2m": 20,
			"relative_humidity_2m": 55,
			"pressure_msl": 1015,
			"wind_speed_10m": 3.5,
			"wind_direction_10m": 90,
			"weather_code": 2,
			"is_day": 0
		}}`)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL
	fastBackoff(&p.httpCfg)

	city := weather.City{Name: "Lisbon", Country: "PT", Lat: 38.72, Lon: -9.14}

	r, err := p.Fetch(context.Background(), city)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r.TemperatureK-293.15) > 1e-9 {
		t.Errorf("expected 293.15K, got %v", r.TemperatureK)
	}
	if r.Condition != weather.ConditionCloudy || r.Icon != "04n" || r.ConditionID != 803 {
		t.Errorf("unexpected condition mapping: %+v", r)
	}
	if r.HasVisibility {
		t.Error("openmeteo does not report visibility")
	}
	want := time.Date(2024, 5, 1, 12, 15, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("expected %v, got %v", want, r.Timestamp)
	}

	fc, err := p.FetchForecast(context.Background(), city, 2)
	if err != nil {
		t.Fatalf("unexpected forecast error: %v", err)
	}
	if len(fc) != 2 {
		t.Fatalf("expected 2 days, got %d", len(fc))
	}
	if fc[1].Condition != weather.ConditionRain || fc[1].PrecipMm != 4.2 {
		t.Errorf("unexpected second day: %+v", fc[1])
	}
}

func TestOpenMeteoRequiresCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient)
	if _, err := p.Fetch(context.Background(), weather.City{Name: "Paris"}); err == nil {
		t.Fatal("expected error without coordinates")
	}
}

func TestWeatherAPIFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"current": {
			"last_updated_epoch": 1700000000,
			"temp_c": 10,
			"humidity": 70,
			"wind_kph": 36,
			"wind_degree": 180,
			"pressure_mb": 1000,
			"precip_mm": 0.5,
			"vis_km": 10,
			"is_day": 1,
			"condition": {"text": "Patchy light snow"}
		}}`)
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	fastBackoff(&p.httpCfg)

	r, err := p.Fetch(context.Background(), weather.City{Name: "Oslo", Country: "NO"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/current.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if math.Abs(r.WindSpeedMS-10) > 1e-9 || r.VisibilityM != 10000 {
		t.Errorf("unexpected unit conversion: %+v", r)
	}
	if r.Condition != weather.ConditionSnow || r.Icon != "13d" || r.Description != "patchy light snow" {
		t.Errorf("unexpected condition: %+v", r)
	}
}

func TestMapWeatherAPICondition(t *testing.T) {
	tests := []struct {
		text string
		want weather.Condition
	}{
		{"", weather.ConditionUnknown},
		{"Sunny", weather.ConditionClear},
		{"Partly cloudy", weather.ConditionCloudy},
		{"Moderate rain", weather.ConditionRain},
		{"Patchy light rain with thunder", weather.ConditionStorm},
		{"Freezing fog", weather.ConditionMist},
		{"Blizzard", weather.ConditionSnow},
	}
	for _, tt := range tests {
		if got := mapWeatherAPICondition(tt.text); got != tt.want {
			t.Errorf("mapWeatherAPICondition(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}
