package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/i474232898/current-weather/internal/common"
	"github.com/i474232898/current-weather/internal/weather"
)

const (
	lastUpdatedLayout = "02/01/06 15:04"
	iconURLFormat     = "https://openweathermap.org/img/wn/%s@2x.png"
	// DefaultErrorMessage is shown for errors without text.
	DefaultErrorMessage = "An error occurred!"
)

// Formatter turns stored values into display text.
type Formatter struct {
	loc     *time.Location
	printer *message.Printer
}

// NewFormatter formats times in loc (UTC when nil) and numbers for US English.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		loc:     loc,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// Temperature converts kelvin to unit and renders it with at most one
// fraction digit, e.g. "20.5°C" or "1,273.2K".
func (f *Formatter) Temperature(kelvin float64, unit weather.TemperatureUnit) string {
	v := unit.FromKelvin(kelvin)
	return f.printer.Sprintf("%v%s", number.Decimal(v, number.MaxFractionDigits(1)), unit.Symbol())
}

// LastUpdated renders t in the formatter's zone as "Last updated: dd/MM/yy HH:mm".
func (f *Formatter) LastUpdated(t time.Time) string {
	return "Last updated: " + t.In(f.loc).Format(lastUpdatedLayout)
}

// Description capitalizes the first letter.
func (f *Formatter) Description(s string) string {
	return common.Capitalize(s)
}

// Pressure renders hectopascals, e.g. "1012.0hPa".
func (f *Formatter) Pressure(hpa float64) string {
	return plainFloat(hpa) + "hPa"
}

// Humidity renders a percentage, e.g. "Humidity: 81%".
func (f *Formatter) Humidity(pct int) string {
	return fmt.Sprintf("Humidity: %d%%", pct)
}

// Rain renders the 3h rain volume in millimetres.
func (f *Formatter) Rain(mm float64) string {
	return fmt.Sprintf("%.1fmm", mm)
}

// Visibility renders metres as kilometres, e.g. "8.0km".
func (f *Formatter) Visibility(metres float64) string {
	return fmt.Sprintf("%.1fkm", metres/1000)
}

// WindDirection renders the compass point for deg, e.g. "Direction: WSW".
func (f *Formatter) WindDirection(deg float64) string {
	return "Direction: " + string(weather.WindDirectionFromDegrees(deg))
}

// WindSpeed renders metres per second, e.g. "Speed: 4.6m/s".
func (f *Formatter) WindSpeed(ms float64) string {
	return "Speed: " + plainFloat(ms) + "m/s"
}

// IconURL returns the image URL for an OpenWeatherMap icon code.
func (f *Formatter) IconURL(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf(iconURLFormat, code)
}

// plainFloat prints the shortest representation, keeping at least one
// fraction digit: 4 -> "4.0", 4.65 -> "4.65".
func plainFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
