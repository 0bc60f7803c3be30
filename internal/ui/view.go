package ui

import (
	"errors"
	"log"
)

// ErrLiveUnavailable is returned by TapLive while the live button is hidden.
var ErrLiveUnavailable = errors.New("live weather is not available")

// Navigator opens other screens.
type Navigator interface {
	OpenLiveWeather()
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) OpenLiveWeather() { f() }

// CurrentWeatherView is the current-weather screen: a Renderer plus the
// user gestures it emits.
type CurrentWeatherView struct {
	*Renderer
	screen  Screen
	nav     Navigator
	intents chan struct{}
}

// NewCurrentWeatherView starts in the refreshing state.
func NewCurrentWeatherView(screen Screen, units UnitSource, format *Formatter, nav Navigator) *CurrentWeatherView {
	v := &CurrentWeatherView{
		Renderer: NewRenderer(screen, units, format),
		screen:   screen,
		nav:      nav,
		intents:  make(chan struct{}, 1),
	}
	screen.SetRefreshing(true)
	return v
}

// RefreshIntents emits one value per accepted refresh gesture.
func (v *CurrentWeatherView) RefreshIntents() <-chan struct{} {
	return v.intents
}

// Refresh records a pull-to-refresh gesture. It reports false when a
// previous gesture is still waiting to be consumed; the two coalesce.
func (v *CurrentWeatherView) Refresh() bool {
	v.screen.SetRefreshing(true)
	select {
	case v.intents <- struct{}{}:
		log.Println("DEBUG: ui: refresh gesture")
		return true
	default:
		return false
	}
}

// TapLive handles a tap on the live button.
func (v *CurrentWeatherView) TapLive() error {
	if !v.screen.Visible(PanelLiveButton) {
		return ErrLiveUnavailable
	}
	if v.nav != nil {
		v.nav.OpenLiveWeather()
	}
	return nil
}
