// Package geo resolves city names to coordinates through the Google
// Geocoding API.
package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/current-weather/internal/weather"
)

// ErrNoAPIKey is returned when the geocoder is used without a key.
var ErrNoAPIKey = errors.New("geocoder api key is not configured")

// lookupFunc matches geocoder.Geocoding.
type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// Geocoder implements weather.Geocoder.
type Geocoder struct {
	apiKey string
	lookup lookupFunc
}

// geocoder.ApiKey is package-global; serialize writes to it.
var keyMu sync.Mutex

// New returns a Geocoder using the given Google API key.
func New(apiKey string) *Geocoder {
	return &Geocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

var _ weather.Geocoder = (*Geocoder)(nil)

// Locate returns the latitude and longitude of a city.
func (g *Geocoder) Locate(ctx context.Context, city weather.City) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, ErrNoAPIKey
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	keyMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := g.lookup(geocoder.Address{
		City:    city.Name,
		Country: city.Country,
	})
	keyMu.Unlock()

	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s: %w", city.Key(), err)
	}
	return loc.Latitude, loc.Longitude, nil
}
