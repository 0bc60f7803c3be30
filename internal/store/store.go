// Package store persists cities and their current weather records.
//
// Every backend builds Upsert from the same two primitives: a
// conflict-checking insert that reports whether a row was written, and a
// plain update. The update runs only when the insert reports that the city
// already has a record.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/i474232898/current-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no weather data for city")
	// ErrCityNotFound is returned when the city itself is unknown.
	ErrCityNotFound = errors.New("city not found")
)

type conflictWriter interface {
	// insertCurrentWeather reports inserted=false, with a nil error, when the
	// city already has a record.
	insertCurrentWeather(ctx context.Context, cw weather.CurrentWeather) (inserted bool, err error)
	updateCurrentWeather(ctx context.Context, cw weather.CurrentWeather) error
}

func upsert(ctx context.Context, w conflictWriter, cw weather.CurrentWeather) error {
	inserted, err := w.insertCurrentWeather(ctx, cw)
	if err != nil {
		return fmt.Errorf("insert current weather for city %d: %w", cw.CityID, err)
	}
	if inserted {
		return nil
	}

	log.Printf("DEBUG: store: current weather for city %d exists, updating", cw.CityID)
	if err := w.updateCurrentWeather(ctx, cw); err != nil {
		return fmt.Errorf("update current weather for city %d: %w", cw.CityID, err)
	}
	return nil
}

// scanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const cityWeatherColumns = `c.id, c.name, c.country, c.lat, c.lon,
	w.temperature, w.description, w.icon, w.condition_id, w.data_time,
	w.pressure, w.humidity, w.rain_volume_3h, w.visibility, w.wind_speed, w.wind_degrees`

func scanCityWeather(row scanner) (weather.CityAndCurrentWeather, error) {
	var (
		v        weather.CityAndCurrentWeather
		dataTime int64
	)
	c := &v.City
	w := &v.CurrentWeather
	err := row.Scan(
		&c.ID, &c.Name, &c.Country, &c.Lat, &c.Lon,
		&w.Temperature, &w.Description, &w.Icon, &w.ConditionID, &dataTime,
		&w.Pressure, &w.Humidity, &w.RainVolume3h, &w.Visibility, &w.WindSpeed, &w.WindDegrees,
	)
	if err != nil {
		return weather.CityAndCurrentWeather{}, err
	}
	w.CityID = c.ID
	w.DataTime = unixToTime(dataTime)
	return v, nil
}

func weatherArgs(cw weather.CurrentWeather) []any {
	return []any{
		cw.CityID, cw.Temperature, cw.Description, cw.Icon, cw.ConditionID, cw.DataTime.Unix(),
		cw.Pressure, cw.Humidity, cw.RainVolume3h, cw.Visibility, cw.WindSpeed, cw.WindDegrees,
	}
}
