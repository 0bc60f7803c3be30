package weather

import (
	"fmt"
	"math"
	"strings"
)

// TemperatureUnit is the unit temperatures are displayed in.
type TemperatureUnit string

const (
	Kelvin     TemperatureUnit = "kelvin"
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// ParseTemperatureUnit accepts the unit name or its symbol, case-insensitively.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kelvin", "k":
		return Kelvin, nil
	case "celsius", "c":
		return Celsius, nil
	case "fahrenheit", "f":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

// Symbol returns the display suffix for the unit.
func (u TemperatureUnit) Symbol() string {
	switch u {
	case Celsius:
		return "°C"
	case Fahrenheit:
		return "°F"
	default:
		return "K"
	}
}

// FromKelvin converts a Kelvin temperature into u.
func (u TemperatureUnit) FromKelvin(k float64) float64 {
	switch u {
	case Celsius:
		return k - 273.15
	case Fahrenheit:
		return (k-273.15)*9.0/5.0 + 32.0
	default:
		return k
	}
}

// CelsiusToKelvin is used by providers that report metric temperatures.
func CelsiusToKelvin(c float64) float64 {
	return c + 273.15
}

// WindDirection is a 16-point compass sector.
type WindDirection string

var compass = [...]WindDirection{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// WindDirectionFromDegrees maps a meteorological bearing to its compass sector.
// Each sector spans 22.5 degrees centred on its heading; negative and >360
// bearings are normalized first.
func WindDirectionFromDegrees(deg float64) WindDirection {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	idx := int(math.Floor((d+11.25)/22.5)) % len(compass)
	return compass[idx]
}
