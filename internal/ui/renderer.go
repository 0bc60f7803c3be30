package ui

import (
	"fmt"
	"sync"

	"github.com/i474232898/current-weather/internal/weather"
)

const (
	msgNoSelectedCity = "Please select a city!"
	msgRefreshSuccess = "Weather has been updated!"
)

type noteKind int

const (
	noteError noteKind = iota
	noteNoSelectedCity
	noteRefreshSuccess
)

// UnitSource supplies the temperature unit to display.
type UnitSource interface {
	TemperatureUnit() weather.TemperatureUnit
}

// Renderer draws view states on a Screen. Apart from the notification
// handles it owns, it keeps no state between calls.
type Renderer struct {
	screen Screen
	units  UnitSource
	format *Formatter

	mu    sync.Mutex
	notes map[noteKind]Notification
}

// NewRenderer draws on screen using the temperature unit units reports at
// render time.
func NewRenderer(screen Screen, units UnitSource, format *Formatter) *Renderer {
	if format == nil {
		format = NewFormatter(nil)
	}
	return &Renderer{
		screen: screen,
		units:  units,
		format: format,
		notes:  make(map[noteKind]Notification),
	}
}

// Render applies state to the screen. It panics on a ViewState it does
// not know.
func (r *Renderer) Render(state ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch s := state.(type) {
	case Loading:
		r.screen.SetRefreshing(true)
	case Weather:
		r.screen.SetRefreshing(false)
		r.populate(s.Current)
	case Error:
		r.screen.SetRefreshing(false)
		if s.ShowMessage {
			r.show(noteError, errorMessage(s.Err))
		} else {
			r.dismiss(noteError)
		}
	case NoSelectedCity:
		r.screen.SetRefreshing(false)
		if s.ShowMessage {
			r.show(noteNoSelectedCity, msgNoSelectedCity)
		} else {
			r.dismiss(noteNoSelectedCity)
		}
		r.clear()
	case RefreshWeatherSuccess:
		if s.ShowMessage {
			r.show(noteRefreshSuccess, msgRefreshSuccess)
		} else {
			r.dismiss(noteRefreshSuccess)
		}
		r.screen.SetRefreshing(false)
		r.populate(s.Current)
	default:
		panic(fmt.Sprintf("ui: unhandled view state %T", state))
	}
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return DefaultErrorMessage
	}
	return err.Error()
}

// show replaces any notification of the same kind.
func (r *Renderer) show(kind noteKind, text string) {
	if prev, ok := r.notes[kind]; ok {
		prev.Dismiss()
	}
	r.notes[kind] = r.screen.ShowNotification(text)
}

func (r *Renderer) dismiss(kind noteKind) {
	if n, ok := r.notes[kind]; ok {
		n.Dismiss()
		delete(r.notes, kind)
	}
}

func (r *Renderer) populate(cw weather.CurrentWeather) {
	f, s := r.format, r.screen
	unit := weather.Celsius
	if r.units != nil {
		unit = r.units.TemperatureUnit()
	}

	s.SetIcon(f.IconURL(cw.Icon))
	s.SetText(FieldTemperature, f.Temperature(cw.Temperature, unit))
	s.SetText(FieldDescription, f.Description(cw.Description))
	s.SetText(FieldLastUpdate, f.LastUpdated(cw.DataTime))
	s.SetVisible(PanelLiveButton, true)

	s.SetVisible(PanelDetails, true)
	s.SetText(FieldPressure, f.Pressure(cw.Pressure))
	s.SetText(FieldHumidity, f.Humidity(cw.Humidity))
	s.SetText(FieldRain, f.Rain(cw.RainVolume3h))
	s.SetText(FieldVisibility, f.Visibility(cw.Visibility))

	s.SetVisible(PanelWind, true)
	s.SetWindmillSpeed(cw.WindSpeed)
	s.SetText(FieldWindDirection, f.WindDirection(cw.WindDegrees))
	s.SetText(FieldWindSpeed, f.WindSpeed(cw.WindSpeed))
}

// clear empties the headline fields and hides the detail panels. Detail
// texts stay as they were behind the hidden panels.
func (r *Renderer) clear() {
	s := r.screen
	s.SetIcon("")
	s.SetText(FieldTemperature, "")
	s.SetText(FieldDescription, "")
	s.SetText(FieldLastUpdate, "")
	s.SetVisible(PanelLiveButton, false)
	s.SetVisible(PanelDetails, false)
	s.SetVisible(PanelWind, false)
}
