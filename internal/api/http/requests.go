package httpapi

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/current-weather/internal/optional"
	"github.com/i474232898/current-weather/internal/weather"
)

// Preferences is the slice of user preferences the API reads and changes.
type Preferences interface {
	TemperatureUnit() weather.TemperatureUnit
	SetTemperatureUnit(weather.TemperatureUnit)
	SelectedCity() optional.Optional[weather.City]
	SelectCity(weather.City)
	ClearSelectedCity()
	ForgetCity(cityID int64)
}

// cityRequest is the body of POST /cities. Coordinates are optional; a
// city without them is geocoded.
type cityRequest struct {
	Name    string   `json:"name" validate:"required"`
	Country string   `json:"country" validate:"omitempty,len=2"`
	Lat     *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon     *float64 `json:"lon" validate:"omitempty,longitude"`
}

func (r cityRequest) toCity() weather.City {
	city := weather.City{Name: r.Name, Country: r.Country}
	if r.Lat != nil && r.Lon != nil {
		city.Lat, city.Lon = *r.Lat, *r.Lon
	}
	return city
}

type selectRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type unitRequest struct {
	Unit string `json:"unit"`
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Days int `validate:"required,min=1,max=7"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("days")
	if raw == "" {
		return errors.New("days query parameter is required")
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("days must be an integer")
	}
	f.Days = days
	return nil
}
