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

// OpenMeteoProvider implements weather.Provider and weather.ForecastProvider for Open-Meteo.
// Open-Meteo needs no API key but only accepts coordinates.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) request(city weather.City, extra url.Values) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(city.Lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(city.Lon, 'f', 4, 64))
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")
		for k, v := range extra {
			values[k] = v
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, city weather.City) (weather.ProviderReading, error) {
	if !city.HasCoordinates() {
		return weather.ProviderReading{}, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	extra := url.Values{}
	extra.Set("current", "temperature_2m,relative_humidity_2m,pressure_msl,wind_speed_10m,wind_direction_10m,weather_code,is_day")

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.request(city, extra))
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Pressure      float64 `json:"pressure_msl"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
			WeatherCode   int     `json:"weather_code"`
			IsDay         int     `json:"is_day"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	cond := mapOpenMeteoCondition(payload.Current.WeatherCode)
	id, icon := conditionCode(cond, payload.Current.IsDay == 1)

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		TemperatureK: weather.CelsiusToKelvin(payload.Current.Temperature),
		HumidityPct:  payload.Current.Humidity,
		WindSpeedMS:  payload.Current.WindSpeed,
		WindDegrees:  payload.Current.WindDirection,
		PressureHpa:  payload.Current.Pressure,
		Condition:    cond,
		ConditionID:  id,
		Icon:         icon,
		Description:  describeOpenMeteoCode(payload.Current.WeatherCode),

		HasHumidity: true,
		HasWind:     true,
		HasPressure: true,
	}, nil
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, city weather.City, days int) ([]weather.ForecastReading, error) {
	if !city.HasCoordinates() {
		return nil, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	extra := url.Values{}
	extra.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max")
	extra.Set("forecast_days", strconv.Itoa(days))

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.request(city, extra))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time        []string  `json:"time"`
			WeatherCode []int     `json:"weather_code"`
			TempMax     []float64 `json:"temperature_2m_max"`
			TempMin     []float64 `json:"temperature_2m_min"`
			Precip      []float64 `json:"precipitation_sum"`
			WindMax     []float64 `json:"wind_speed_10m_max"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	n := len(d.Time)
	if len(d.WeatherCode) < n || len(d.TempMax) < n || len(d.TempMin) < n || len(d.Precip) < n || len(d.WindMax) < n {
		return nil, fmt.Errorf("openmeteo: inconsistent daily arrays")
	}

	readings := make([]weather.ForecastReading, 0, n)
	for i := 0; i < n; i++ {
		day, err := time.Parse("2006-01-02", d.Time[i])
		if err != nil {
			return nil, fmt.Errorf("openmeteo: parse day %q: %w", d.Time[i], err)
		}
		cond := mapOpenMeteoCondition(d.WeatherCode[i])
		_, icon := conditionCode(cond, true)
		readings = append(readings, weather.ForecastReading{
			ProviderName: p.name,
			Day:          day,
			TempMinK:     weather.CelsiusToKelvin(d.TempMin[i]),
			TempMaxK:     weather.CelsiusToKelvin(d.TempMax[i]),
			WindSpeedMS:  d.WindMax[i],
			PrecipMm:     d.Precip[i],
			Condition:    cond,
			Icon:         icon,
			Description:  describeOpenMeteoCode(d.WeatherCode[i]),
		})
	}
	return readings, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on Open-Meteo (WMO) weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}

func describeOpenMeteoCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code == 1:
		return "mainly clear"
	case code == 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "snow"
	case code >= 95:
		return "thunderstorm"
	default:
		return ""
	}
}
