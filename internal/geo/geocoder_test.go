package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/current-weather/internal/weather"
)

func TestLocateWithoutKey(t *testing.T) {
	g := New("")
	if _, _, err := g.Locate(context.Background(), weather.City{Name: "Paris", Country: "FR"}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	var got geocoder.Address
	g := New("key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		got = a
		return geocoder.Location{Latitude: 48.8566, Longitude: 2.3522}, nil
	}

	lat, lon, err := g.Locate(context.Background(), weather.City{Name: "Paris", Country: "FR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != 48.8566 || lon != 2.3522 {
		t.Errorf("unexpected coordinates %v,%v", lat, lon)
	}
	if got.City != "Paris" || got.Country != "FR" {
		t.Errorf("unexpected address %+v", got)
	}
}

func TestLocateWrapsLookupError(t *testing.T) {
	boom := errors.New("zero results")
	g := New("key")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, boom
	}

	if _, _, err := g.Locate(context.Background(), weather.City{Name: "Nowhere"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
}
