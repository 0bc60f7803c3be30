package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/current-weather/internal/prefs"
	"github.com/i474232898/current-weather/internal/store"
	"github.com/i474232898/current-weather/internal/ui"
	"github.com/i474232898/current-weather/internal/weather"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Fetch(context.Context, weather.City) (weather.ProviderReading, error) {
	return weather.ProviderReading{
		ProviderName: "stub",
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TemperatureK: 293.15,
		Condition:    weather.ConditionClear,
		ConditionID:  800,
		Icon:         "01d",
		Description:  "clear sky",
	}, nil
}

type testAPI struct {
	app    *fiber.App
	prefs  *prefs.Preferences
	view   *ui.CurrentWeatherView
	screen *ui.MemoryScreen
	svc    *weather.Service
}

func newTestAPI(t *testing.T, providers ...weather.Provider) *testAPI {
	t.Helper()
	p := prefs.New(weather.Celsius)
	screen := ui.NewMemoryScreen()
	view := ui.NewCurrentWeatherView(screen, p, ui.NewFormatter(time.UTC), nil)
	svc := weather.NewService(store.NewMemoryStore(), providers, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Deps{Service: svc, Prefs: p, View: view, Screen: screen})
	return &testAPI{app: app, prefs: p, view: view, screen: screen, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (a *testAPI) expectStatus(t *testing.T, method, path, body string, want int) []byte {
	t.Helper()
	resp, data := a.do(t, method, path, body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d (%s)", method, path, want, resp.StatusCode, data)
	}
	return data
}

func (a *testAPI) addCity(t *testing.T) weather.City {
	t.Helper()
	data := a.expectStatus(t, http.MethodPost, "/api/v1/cities",
		`{"name":"Hanoi","country":"VN","lat":21.03,"lon":105.85}`, http.StatusCreated)
	var city weather.City
	if err := json.Unmarshal(data, &city); err != nil {
		t.Fatalf("decode city: %v", err)
	}
	return city
}

// TestForecastDaysValidation verifies that the forecast endpoint enforces the
// expected 1-7 range for the `days` query parameter.
func TestForecastDaysValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing", ""},
		{"not a number", "?days=abc"},
		{"zero", "?days=0"},
		{"too many", "?days=8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.expectStatus(t, http.MethodGet, "/api/v1/weather/1/forecast"+tt.query, "", http.StatusBadRequest)
		})
	}
}

func TestWeatherNotFoundUsesErrorBody(t *testing.T) {
	api := newTestAPI(t)
	city := api.addCity(t)

	data := api.expectStatus(t, http.MethodGet, "/api/v1/weather/"+itoa(city.ID), "", http.StatusNotFound)

	var body struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if !body.Error || body.Message != "no weather data for requested city" {
		t.Fatalf("unexpected error body %+v", body)
	}

	api.expectStatus(t, http.MethodGet, "/api/v1/weather/abc", "", http.StatusBadRequest)
}

func TestCityLifecycle(t *testing.T) {
	api := newTestAPI(t)

	api.expectStatus(t, http.MethodPost, "/api/v1/cities", `{"country":"VN"}`, http.StatusBadRequest)
	api.expectStatus(t, http.MethodPost, "/api/v1/cities", `{"name":"Hanoi","lat":123,"lon":0}`, http.StatusBadRequest)

	city := api.addCity(t)
	if city.ID == 0 || city.Name != "Hanoi" {
		t.Fatalf("unexpected city %+v", city)
	}
	// Adding the same city again returns the stored one.
	if again := api.addCity(t); again.ID != city.ID {
		t.Fatalf("expected id %d, got %d", city.ID, again.ID)
	}

	var cities []weather.City
	if err := json.Unmarshal(api.expectStatus(t, http.MethodGet, "/api/v1/cities", "", http.StatusOK), &cities); err != nil {
		t.Fatalf("decode cities: %v", err)
	}
	if len(cities) != 1 {
		t.Fatalf("expected 1 city, got %d", len(cities))
	}

	api.expectStatus(t, http.MethodGet, "/api/v1/cities/selected", "", http.StatusNotFound)
	api.expectStatus(t, http.MethodPut, "/api/v1/cities/selected", `{"id":999}`, http.StatusNotFound)
	api.expectStatus(t, http.MethodPut, "/api/v1/cities/selected", `{"id":`+itoa(city.ID)+`}`, http.StatusOK)
	if got, ok := api.prefs.SelectedCity().Get(); !ok || got.ID != city.ID {
		t.Fatalf("expected city %d to be selected, got %v", city.ID, api.prefs.SelectedCity())
	}

	api.expectStatus(t, http.MethodDelete, "/api/v1/cities/"+itoa(city.ID), "", http.StatusNoContent)
	if api.prefs.SelectedCity().IsSome() {
		t.Fatal("deleting the selected city must clear the selection")
	}
	api.expectStatus(t, http.MethodDelete, "/api/v1/cities/"+itoa(city.ID), "", http.StatusNotFound)
}

func TestRefreshStoresWeather(t *testing.T) {
	api := newTestAPI(t, stubProvider{})
	city := api.addCity(t)

	api.expectStatus(t, http.MethodPost, "/api/v1/weather/"+itoa(city.ID)+"/refresh", "", http.StatusOK)

	var got weather.CityAndCurrentWeather
	if err := json.Unmarshal(api.expectStatus(t, http.MethodGet, "/api/v1/weather/"+itoa(city.ID), "", http.StatusOK), &got); err != nil {
		t.Fatalf("decode weather: %v", err)
	}
	if got.City.ID != city.ID || got.CurrentWeather.Temperature != 293.15 {
		t.Fatalf("unexpected weather %+v", got)
	}

	api.expectStatus(t, http.MethodDelete, "/api/v1/weather/"+itoa(city.ID), "", http.StatusNoContent)
	api.expectStatus(t, http.MethodGet, "/api/v1/weather/"+itoa(city.ID), "", http.StatusNotFound)
	api.expectStatus(t, http.MethodPost, "/api/v1/weather/999/refresh", "", http.StatusNotFound)
}

func TestRefreshWithoutProviders(t *testing.T) {
	api := newTestAPI(t)
	city := api.addCity(t)

	api.expectStatus(t, http.MethodPost, "/api/v1/weather/"+itoa(city.ID)+"/refresh", "", http.StatusBadGateway)
}

func TestTemperatureUnitSetting(t *testing.T) {
	api := newTestAPI(t)

	api.expectStatus(t, http.MethodPut, "/api/v1/settings/unit", `{"unit":"rankine"}`, http.StatusBadRequest)
	api.expectStatus(t, http.MethodPut, "/api/v1/settings/unit", `{"unit":"F"}`, http.StatusOK)
	if api.prefs.TemperatureUnit() != weather.Fahrenheit {
		t.Fatalf("expected fahrenheit, got %s", api.prefs.TemperatureUnit())
	}
	data := api.expectStatus(t, http.MethodGet, "/api/v1/settings/unit", "", http.StatusOK)
	if !strings.Contains(string(data), `"fahrenheit"`) {
		t.Fatalf("unexpected body %s", data)
	}
}

func TestScreenEndpoints(t *testing.T) {
	api := newTestAPI(t, stubProvider{})
	city := api.addCity(t)

	// Live is only reachable once weather is on screen.
	api.expectStatus(t, http.MethodPost, "/api/v1/screen/live", "", http.StatusConflict)

	data := api.expectStatus(t, http.MethodPost, "/api/v1/screen/refresh", "", http.StatusAccepted)
	if !strings.Contains(string(data), `"accepted":true`) {
		t.Fatalf("expected first gesture to be accepted, got %s", data)
	}
	data = api.expectStatus(t, http.MethodPost, "/api/v1/screen/refresh", "", http.StatusAccepted)
	if !strings.Contains(string(data), `"accepted":false`) {
		t.Fatalf("expected pending gesture to coalesce, got %s", data)
	}

	api.prefs.SelectCity(city)
	api.view.Render(ui.Weather{Current: weather.CurrentWeather{CityID: city.ID, Temperature: 293.15, Icon: "01d"}})

	var snap ui.Snapshot
	if err := json.Unmarshal(api.expectStatus(t, http.MethodGet, "/api/v1/screen", "", http.StatusOK), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Texts[ui.FieldTemperature] != "20°C" || snap.Refreshing {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	var live weather.CityAndCurrentWeather
	if err := json.Unmarshal(api.expectStatus(t, http.MethodPost, "/api/v1/screen/live", "", http.StatusOK), &live); err != nil {
		t.Fatalf("decode live weather: %v", err)
	}
	if live.City.ID != city.ID {
		t.Fatalf("unexpected live weather %+v", live)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
