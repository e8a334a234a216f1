// Package geolocate supplies the user's position to the finder.
package geolocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"restaurantfinder/models"
)

// ErrDenied is returned when the user refused to share their position.
var ErrDenied = errors.New("geolocation: permission denied")

// Locator produces a one-shot position fix.
type Locator interface {
	Locate(ctx context.Context) (models.Location, error)
}

// Static always returns the same coordinates.
type Static models.Location

// Locate returns the fixed coordinates.
func (s Static) Locate(ctx context.Context) (models.Location, error) {
	return models.Location(s), nil
}

// Denied reports a failure the client already observed, e.g. a browser that
// refused navigator.geolocation.
type Denied struct {
	Reason string
}

// Locate always fails.
func (d Denied) Locate(ctx context.Context) (models.Location, error) {
	if d.Reason == "" {
		return models.Location{}, ErrDenied
	}
	return models.Location{}, fmt.Errorf("%w: %s", ErrDenied, d.Reason)
}

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder resolves a free-text address through the Google Geocoding API.
type Geocoder struct {
	APIKey  string
	Region  string
	BaseURL string
	Client  *http.Client
}

// NewGeocoder creates a Geocoder. region is appended to every address, e.g.
// "Copenhagen Denmark" so bare postal codes resolve locally.
func NewGeocoder(apiKey, region string) *Geocoder {
	return &Geocoder{
		APIKey:  apiKey,
		Region:  region,
		BaseURL: googleGeocodeURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// For binds an address, turning the Geocoder into a Locator.
func (g *Geocoder) For(address string) Locator {
	return addressLocator{g: g, address: address}
}

type addressLocator struct {
	g       *Geocoder
	address string
}

func (a addressLocator) Locate(ctx context.Context) (models.Location, error) {
	return a.g.Geocode(ctx, a.address)
}

// Geocode returns the coordinates of the first match for address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (models.Location, error) {
	if g.APIKey == "" {
		return models.Location{}, errors.New("geolocation: GOOGLE_MAPS_API_KEY not set")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Location{}, errors.New("geolocation: empty address")
	}

	query := address
	if g.Region != "" {
		query = fmt.Sprintf("%s, %s", address, g.Region)
	}
	apiURL := fmt.Sprintf("%s?address=%s&key=%s", g.BaseURL, url.QueryEscape(query), url.QueryEscape(g.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return models.Location{}, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("geolocation: request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
		Status string `json:"status"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.Location{}, fmt.Errorf("geolocation: decode: %w", err)
	}

	if result.Status != "OK" {
		return models.Location{}, fmt.Errorf("geolocation: API error: %s", result.Status)
	}

	if len(result.Results) == 0 {
		return models.Location{}, fmt.Errorf("geolocation: no results found for %q", address)
	}

	loc := result.Results[0].Geometry.Location
	return models.Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}
