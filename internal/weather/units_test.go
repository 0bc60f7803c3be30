package weather

import (
	"math"
	"testing"
)

func TestWindDirectionFromDegrees(t *testing.T) {
	tests := []struct {
		deg  float64
		want WindDirection
	}{
		{0, "N"},
		{11.24, "N"},
		{11.25, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{202.5, "SSW"},
		{270, "W"},
		{348.74, "NNW"},
		{348.75, "N"},
		{360, "N"},
		{-90, "W"},
		{720 + 45, "NE"},
	}

	for _, tt := range tests {
		if got := WindDirectionFromDegrees(tt.deg); got != tt.want {
			t.Errorf("WindDirectionFromDegrees(%v) = %s, want %s", tt.deg, got, tt.want)
		}
	}
}

func TestTemperatureUnitFromKelvin(t *testing.T) {
	tests := []struct {
		unit TemperatureUnit
		in   float64
		want float64
	}{
		{Kelvin, 293.15, 293.15},
		{Celsius, 293.15, 20},
		{Fahrenheit, 293.15, 68},
		{Celsius, 0, -273.15},
	}

	for _, tt := range tests {
		got := tt.unit.FromKelvin(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s.FromKelvin(%v) = %v, want %v", tt.unit, tt.in, got, tt.want)
		}
	}
}

func TestParseTemperatureUnit(t *testing.T) {
	for _, in := range []string{"C", "celsius", " Celsius "} {
		u, err := ParseTemperatureUnit(in)
		if err != nil || u != Celsius {
			t.Errorf("ParseTemperatureUnit(%q) = %v, %v", in, u, err)
		}
	}
	if _, err := ParseTemperatureUnit("rankine"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
