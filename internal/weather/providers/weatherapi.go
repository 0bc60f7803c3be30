package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/current-weather/internal/common"
	"github.com/i474232898/current-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// WeatherAPIProvider implements weather.Provider and weather.ForecastProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) request(endpoint string, city weather.City, extra url.Values) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
		if city.HasCoordinates() {
			values.Set("q", fmt.Sprintf("%.4f,%.4f", city.Lat, city.Lon))
		} else {
			q := city.Name
			if city.Country != "" {
				q = fmt.Sprintf("%s,%s", city.Name, city.Country)
			}
			values.Set("q", q)
		}
		for k, v := range extra {
			values[k] = v
		}

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, city weather.City) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.request("current.json", city, nil))
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			LastUpdatedEpoch int64               `json:"last_updated_epoch"`
			TempC            float64             `json:"temp_c"`
			Humidity         float64             `json:"humidity"`
			WindKph          float64             `json:"wind_kph"`
			WindDegree       float64             `json:"wind_degree"`
			PressureMb       float64             `json:"pressure_mb"`
			PrecipMm         float64             `json:"precip_mm"`
			VisKm            float64             `json:"vis_km"`
			IsDay            int                 `json:"is_day"`
			Condition        weatherAPICondition `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	cur := payload.Current
	ts := time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	if cur.LastUpdatedEpoch == 0 {
		ts = time.Now().UTC()
	}

	cond := mapWeatherAPICondition(cur.Condition.Text)
	id, icon := conditionCode(cond, cur.IsDay == 1)

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureK: weather.CelsiusToKelvin(cur.TempC),
		HumidityPct:  cur.Humidity,
		WindSpeedMS:  kphToMS(cur.WindKph),
		WindDegrees:  cur.WindDegree,
		PressureHpa:  cur.PressureMb,
		Rain3hMm:     cur.PrecipMm,
		VisibilityM:  cur.VisKm * 1000,
		Condition:    cond,
		ConditionID:  id,
		Icon:         icon,
		Description:  strings.ToLower(strings.TrimSpace(cur.Condition.Text)),

		HasHumidity:   true,
		HasWind:       true,
		HasPressure:   true,
		HasVisibility: true,
	}, nil
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, city weather.City, days int) ([]weather.ForecastReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}

	extra := url.Values{}
	extra.Set("days", strconv.Itoa(days))

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.request("forecast.json", city, extra))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC     float64             `json:"maxtemp_c"`
					MinTempC     float64             `json:"mintemp_c"`
					AvgHumidity  float64             `json:"avghumidity"`
					MaxWindKph   float64             `json:"maxwind_kph"`
					TotalPrecipM float64             `json:"totalprecip_mm"`
					Condition    weatherAPICondition `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	readings := make([]weather.ForecastReading, 0, len(payload.Forecast.ForecastDay))
	for _, fd := range payload.Forecast.ForecastDay {
		day, err := time.Parse("2006-01-02", fd.Date)
		if err != nil {
			return nil, fmt.Errorf("weatherapi: parse day %q: %w", fd.Date, err)
		}
		cond := mapWeatherAPICondition(fd.Day.Condition.Text)
		_, icon := conditionCode(cond, true)
		readings = append(readings, weather.ForecastReading{
			ProviderName: p.name,
			Day:          day,
			TempMinK:     weather.CelsiusToKelvin(fd.Day.MinTempC),
			TempMaxK:     weather.CelsiusToKelvin(fd.Day.MaxTempC),
			HumidityPct:  fd.Day.AvgHumidity,
			WindSpeedMS:  kphToMS(fd.Day.MaxWindKph),
			PrecipMm:     fd.Day.TotalPrecipM,
			Condition:    cond,
			Icon:         icon,
			Description:  strings.ToLower(strings.TrimSpace(fd.Day.Condition.Text)),
		})
	}
	return readings, nil
}

func kphToMS(kph float64) float64 {
	return kph / 3.6
}

func mapWeatherAPICondition(text string) weather.Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(t, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(t, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
