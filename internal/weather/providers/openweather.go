package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/current-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
// It is the only provider reporting every field of a CurrentWeather record.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, city weather.City) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		// No "units" parameter: temperatures come back in Kelvin.
		values := url.Values{}
		values.Set("appid", p.apiKey)

		if city.HasCoordinates() {
			values.Set("lat", strconv.FormatFloat(city.Lat, 'f', 4, 64))
			values.Set("lon", strconv.FormatFloat(city.Lon, 'f', 4, 64))
		} else {
			q := city.Name
			if city.Country != "" {
				q = fmt.Sprintf("%s,%s", city.Name, city.Country)
			}
			values.Set("q", q)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	return payload.reading(p.name), nil
}

type openWeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type openWeatherPayload struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Weather []openWeatherCondition `json:"weather"`
}

func (p openWeatherPayload) reading(provider string) weather.ProviderReading {
	ts := time.Unix(p.Dt, 0).UTC()
	if p.Dt == 0 {
		ts = time.Now().UTC()
	}

	rain := p.Rain.ThreeH
	if rain == 0 {
		rain = p.Rain.OneH
	}

	r := weather.ProviderReading{
		ProviderName: provider,
		Timestamp:    ts,
		TemperatureK: p.Main.Temp,
		HumidityPct:  p.Main.Humidity,
		WindSpeedMS:  p.Wind.Speed,
		WindDegrees:  p.Wind.Deg,
		PressureHpa:  p.Main.Pressure,
		Rain3hMm:     rain,
		Condition:    mapOpenWeatherCondition(p.Weather),

		HasHumidity: true,
		HasWind:     true,
		HasPressure: true,
	}
	if p.Visibility != nil {
		r.VisibilityM = *p.Visibility
		r.HasVisibility = true
	}
	if len(p.Weather) > 0 {
		r.ConditionID = p.Weather[0].ID
		r.Icon = p.Weather[0].Icon
		r.Description = p.Weather[0].Description
	}
	return r
}

func mapOpenWeatherCondition(items []openWeatherCondition) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
