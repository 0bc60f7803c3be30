package httpapi

import (
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/current-weather/internal/store"
	"github.com/i474232898/current-weather/internal/ui"
	"github.com/i474232898/current-weather/internal/weather"
)

var validate = validator.New()

// Deps are the components the HTTP API talks to.
type Deps struct {
	Service *weather.Service
	Prefs   Preferences
	View    *ui.CurrentWeatherView
	Screen  *ui.MemoryScreen
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	// Selection routes go before /cities/:id so "selected" is not parsed as an id.
	v1.Get("/cities/selected", d.getSelectedCity)
	v1.Put("/cities/selected", d.selectCity)
	v1.Delete("/cities/selected", d.clearSelectedCity)

	v1.Get("/cities", d.listCities)
	v1.Post("/cities", d.addCity)
	v1.Delete("/cities/:id", d.removeCity)

	v1.Get("/weather", d.listWeather)
	v1.Get("/weather/:cityId", d.getWeather)
	v1.Delete("/weather/:cityId", d.clearWeather)
	v1.Post("/weather/:cityId/refresh", d.refreshWeather)
	v1.Get("/weather/:cityId/live", d.liveWeather)
	v1.Get("/weather/:cityId/forecast", d.forecast)

	v1.Get("/settings/unit", d.getUnit)
	v1.Put("/settings/unit", d.setUnit)

	if d.View != nil && d.Screen != nil {
		v1.Get("/screen", d.screenSnapshot)
		v1.Post("/screen/refresh", d.screenRefresh)
		v1.Post("/screen/live", d.screenLive)
	}
}

func (d Deps) listCities(c *fiber.Ctx) error {
	cities, err := d.Service.Cities(c.UserContext())
	if err != nil {
		return toHTTPError(err, "failed to list cities")
	}
	return c.JSON(cities)
}

func (d Deps) addCity(c *fiber.Ctx) error {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	city, err := d.Service.AddCity(c.UserContext(), req.toCity())
	if err != nil {
		return toHTTPError(err, "failed to add city")
	}
	return c.Status(fiber.StatusCreated).JSON(city)
}

func (d Deps) removeCity(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := d.Service.RemoveCity(c.UserContext(), id); err != nil {
		return toHTTPError(err, "failed to delete city")
	}
	d.Prefs.ForgetCity(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (d Deps) getSelectedCity(c *fiber.Ctx) error {
	city, ok := d.Prefs.SelectedCity().Get()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no city selected")
	}
	return c.JSON(city)
}

func (d Deps) selectCity(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	city, err := d.Service.City(c.UserContext(), req.ID)
	if err != nil {
		return toHTTPError(err, "failed to select city")
	}
	d.Prefs.SelectCity(city)
	return c.JSON(city)
}

func (d Deps) clearSelectedCity(c *fiber.Ctx) error {
	d.Prefs.ClearSelectedCity()
	return c.SendStatus(fiber.StatusNoContent)
}

func (d Deps) listWeather(c *fiber.Ctx) error {
	all, err := d.Service.GetAll(c.UserContext())
	if err != nil {
		return toHTTPError(err, "failed to fetch weather data")
	}
	return c.JSON(all)
}

func (d Deps) getWeather(c *fiber.Ctx) error {
	id, err := pathID(c, "cityId")
	if err != nil {
		return err
	}
	cw, err := d.Service.GetLatest(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err, "failed to fetch weather data")
	}
	return c.JSON(cw)
}

func (d Deps) clearWeather(c *fiber.Ctx) error {
	id, err := pathID(c, "cityId")
	if err != nil {
		return err
	}
	if err := d.Service.ClearWeather(c.UserContext(), id); err != nil {
		return toHTTPError(err, "failed to delete weather data")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (d Deps) refreshWeather(c *fiber.Ctx) error {
	id, err := pathID(c, "cityId")
	if err != nil {
		return err
	}
	cw, err := d.Service.RefreshCity(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err, "failed to refresh weather data")
	}
	return c.JSON(cw)
}

func (d Deps) liveWeather(c *fiber.Ctx) error {
	id, err := pathID(c, "cityId")
	if err != nil {
		return err
	}
	cw, err := d.Service.LiveWeather(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err, "failed to fetch live weather")
	}
	return c.JSON(cw)
}

func (d Deps) forecast(c *fiber.Ctx) error {
	id, err := pathID(c, "cityId")
	if err != nil {
		return err
	}
	var req forecastQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fc, err := d.Service.GetForecast(c.UserContext(), id, req.Days)
	if err != nil {
		return toHTTPError(err, "failed to fetch forecast")
	}
	return c.JSON(fiber.Map{
		"cityId": id,
		"days":   req.Days,
		"daily":  fc,
	})
}

func (d Deps) getUnit(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"unit": d.Prefs.TemperatureUnit()})
}

func (d Deps) setUnit(c *fiber.Ctx) error {
	var req unitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	unit, err := weather.ParseTemperatureUnit(req.Unit)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	d.Prefs.SetTemperatureUnit(unit)
	return c.JSON(fiber.Map{"unit": unit})
}

func (d Deps) screenSnapshot(c *fiber.Ctx) error {
	return c.JSON(d.Screen.Snapshot())
}

func (d Deps) screenRefresh(c *fiber.Ctx) error {
	accepted := d.View.Refresh()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": accepted})
}

func (d Deps) screenLive(c *fiber.Ctx) error {
	if err := d.View.TapLive(); err != nil {
		if errors.Is(err, ui.ErrLiveUnavailable) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return toHTTPError(err, "failed to open live weather")
	}
	city, ok := d.Prefs.SelectedCity().Get()
	if !ok {
		return fiber.NewError(fiber.StatusConflict, "no city selected")
	}
	cw, err := d.Service.LiveWeather(c.UserContext(), city.ID)
	if err != nil {
		return toHTTPError(err, "failed to fetch live weather")
	}
	return c.JSON(cw)
}

// toHTTPError maps domain errors onto status codes. Anything unknown is
// logged and reported as msg.
func toHTTPError(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, store.ErrCityNotFound.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no weather data for requested city")
	case errors.Is(err, weather.ErrNoProviders), errors.Is(err, weather.ErrNoReadings):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	log.Printf("ERROR: %s: %v", msg, err)
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
