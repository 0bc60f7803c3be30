package ui

import (
	"testing"
	"time"

	"github.com/i474232898/current-weather/internal/weather"
)

func TestFormatter(t *testing.T) {
	saigon := time.FixedZone("ICT", 7*3600)
	f := NewFormatter(saigon)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"celsius", f.Temperature(300.26, weather.Celsius), "27.1°C"},
		{"whole celsius", f.Temperature(273.15, weather.Celsius), "0°C"},
		{"negative", f.Temperature(263.15, weather.Celsius), "-10°C"},
		{"kelvin grouping", f.Temperature(1234, weather.Kelvin), "1,234K"},
		{"last updated in zone", f.LastUpdated(time.Date(2024, 12, 31, 20, 30, 0, 0, time.UTC)), "Last updated: 01/01/25 03:30"},
		{"description", f.Description("scattered clouds"), "Scattered clouds"},
		{"pressure", f.Pressure(1009.5), "1009.5hPa"},
		{"humidity", f.Humidity(5), "Humidity: 5%"},
		{"rain", f.Rain(0), "0.0mm"},
		{"visibility", f.Visibility(10000), "10.0km"},
		{"north", f.WindDirection(355), "Direction: N"},
		{"speed", f.WindSpeed(3), "Speed: 3.0m/s"},
		{"no icon", f.IconURL(""), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
