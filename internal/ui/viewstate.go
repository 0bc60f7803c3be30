// Package ui renders the current-weather screen from presenter view states.
package ui

import (
	"fmt"

	"github.com/i474232898/current-weather/internal/weather"
)

// ViewState is one of Loading, Weather, Error, NoSelectedCity or
// RefreshWeatherSuccess. The set is closed.
type ViewState interface {
	isViewState()
	fmt.Stringer
}

// Loading shows the refreshing indicator and leaves the rest untouched.
type Loading struct{}

// Weather shows a stored record.
type Weather struct {
	Current weather.CurrentWeather
}

// Error shows or dismisses an error message.
type Error struct {
	Err         error
	ShowMessage bool
}

// NoSelectedCity clears the screen and shows or dismisses the
// "Please select a city!" message.
type NoSelectedCity struct {
	ShowMessage bool
}

// RefreshWeatherSuccess shows freshly fetched weather and the update message.
type RefreshWeatherSuccess struct {
	Current     weather.CurrentWeather
	ShowMessage bool
}

func (Loading) isViewState()               {}
func (Weather) isViewState()               {}
func (Error) isViewState()                 {}
func (NoSelectedCity) isViewState()        {}
func (RefreshWeatherSuccess) isViewState() {}

func (Loading) String() string { return "Loading" }

func (s Weather) String() string {
	return fmt.Sprintf("Weather(city=%d)", s.Current.CityID)
}

func (s Error) String() string {
	return fmt.Sprintf("Error(%v, show=%t)", s.Err, s.ShowMessage)
}

func (s NoSelectedCity) String() string {
	return fmt.Sprintf("NoSelectedCity(show=%t)", s.ShowMessage)
}

func (s RefreshWeatherSuccess) String() string {
	return fmt.Sprintf("RefreshWeatherSuccess(city=%d, show=%t)", s.Current.CityID, s.ShowMessage)
}
