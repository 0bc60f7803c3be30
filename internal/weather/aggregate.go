package weather

import (
	"math"
	"time"
)

// AggregateReadings combines multiple provider readings into a single CurrentWeather.
// Readings must be ordered by provider priority. Numeric fields are averaged over
// the providers that report them; the condition is chosen by majority (ties go to
// the higher-priority provider) and its icon and description come from the first
// reading carrying that condition.
func AggregateReadings(cityID int64, readings []ProviderReading) CurrentWeather {
	if len(readings) == 0 {
		return CurrentWeather{
			CityID:   cityID,
			DataTime: time.Now().UTC(),
		}
	}

	var (
		sumTemp, sumRain           float64
		sumHumidity, sumWind       float64
		sumWindSin, sumWindCos     float64
		sumPressure, sumVisibility float64

		nHumidity, nWind, nPressure, nVisibility int
	)

	conditionCounts := make(map[Condition]int)
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureK
		sumRain += r.Rain3hMm
		if r.HasHumidity {
			sumHumidity += r.HumidityPct
			nHumidity++
		}
		if r.HasWind {
			sumWind += r.WindSpeedMS
			rad := r.WindDegrees * math.Pi / 180
			sumWindSin += math.Sin(rad)
			sumWindCos += math.Cos(rad)
			nWind++
		}
		if r.HasPressure {
			sumPressure += r.PressureHpa
			nPressure++
		}
		if r.HasVisibility {
			sumVisibility += r.VisibilityM
			nVisibility++
		}

		conditionCounts[r.Condition]++

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}
	}

	n := float64(len(readings))

	// Pick majority condition, preferring earlier readings on ties.
	var best ProviderReading
	bestCount := 0
	for _, r := range readings {
		if c := conditionCounts[r.Condition]; c > bestCount {
			bestCount = c
			best = r
		}
	}
	for _, r := range readings {
		if r.Condition == best.Condition && best.Icon == "" && r.Icon != "" {
			best = r
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	return CurrentWeather{
		CityID:       cityID,
		Temperature:  sumTemp / n,
		Description:  best.Description,
		Icon:         best.Icon,
		ConditionID:  best.ConditionID,
		DataTime:     newestTS,
		Pressure:     mean(sumPressure, nPressure),
		Humidity:     int(math.Round(mean(sumHumidity, nHumidity))),
		RainVolume3h: sumRain / n,
		Visibility:   mean(sumVisibility, nVisibility),
		WindSpeed:    mean(sumWind, nWind),
		WindDegrees:  meanBearing(sumWindSin, sumWindCos, nWind),
	}
}

// AggregateForecast combines the readings of several providers for one day.
func AggregateForecast(day time.Time, readings []ForecastReading) DailyForecast {
	out := DailyForecast{Date: day, Condition: ConditionUnknown}
	if len(readings) == 0 {
		return out
	}

	var sumMin, sumMax, sumHumidity, sumWind, sumPrecip float64
	conditionCounts := make(map[Condition]int)

	for _, r := range readings {
		sumMin += r.TempMinK
		sumMax += r.TempMaxK
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS
		sumPrecip += r.PrecipMm
		conditionCounts[r.Condition]++
		out.Providers = append(out.Providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Day,
		})
	}

	bestCount := 0
	for _, r := range readings {
		if c := conditionCounts[r.Condition]; c > bestCount {
			bestCount = c
			out.Condition = r.Condition
			out.Description = r.Description
			out.Icon = r.Icon
		}
	}

	n := float64(len(readings))
	out.TempMin = sumMin / n
	out.TempMax = sumMax / n
	out.Humidity = sumHumidity / n
	out.WindSpeed = sumWind / n
	out.PrecipMM = sumPrecip / n
	return out
}

// meanBearing averages bearings on the circle so that 350 and 10 give 0, not 180.
func meanBearing(sumSin, sumCos float64, n int) float64 {
	if n == 0 {
		return 0
	}
	deg := math.Atan2(sumSin, sumCos) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return math.Mod(math.Round(deg*10)/10, 360)
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
