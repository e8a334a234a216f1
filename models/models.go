package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnknownPriceLevel marks a restaurant the backend has no price data for.
const UnknownPriceLevel = -1

// Restaurant represents a dining establishment as returned by the backend, plus
// the fields derived from the user's location and the selected sort mode.
type Restaurant struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	PostalCode string  `json:"postalCode"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Rating     float64 `json:"rating"`
	PriceLevel int     `json:"priceLevel"`

	// Derived, nil until computed. Never sent back to the backend.
	Distance      *float64 `json:"distance,omitempty"`
	WeightedScore *float64 `json:"weightedScore,omitempty"`
}

// wireRestaurant accepts both spellings the backend has used over time.
type wireRestaurant struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	PostalCode string   `json:"postalCode"`
	PostNummer string   `json:"postNummer"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Rating     float64  `json:"rating"`
	PriceLevel *int     `json:"priceLevel"`
	PriceSnake *int     `json:"price_level"`
	Distance   *float64 `json:"distance"`
	Weighted   *float64 `json:"weightedScore"`
}

// UnmarshalJSON decodes a backend record. A missing price level decodes as
// UnknownPriceLevel.
func (r *Restaurant) UnmarshalJSON(data []byte) error {
	var w wireRestaurant
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Restaurant{
		Name:          w.Name,
		Address:       w.Address,
		PostalCode:    w.PostalCode,
		Lat:           w.Lat,
		Lng:           w.Lng,
		Rating:        w.Rating,
		PriceLevel:    UnknownPriceLevel,
		Distance:      w.Distance,
		WeightedScore: w.Weighted,
	}
	if r.PostalCode == "" {
		r.PostalCode = w.PostNummer
	}
	switch {
	case w.PriceLevel != nil:
		r.PriceLevel = *w.PriceLevel
	case w.PriceSnake != nil:
		r.PriceLevel = *w.PriceSnake
	}
	return nil
}

// Location returns the restaurant's coordinates.
func (r *Restaurant) Location() Location {
	return Location{Lat: r.Lat, Lng: r.Lng}
}

// ClearDerived drops the distance and weighted score.
func (r *Restaurant) ClearDerived() {
	r.Distance = nil
	r.WeightedScore = nil
}

// Clone returns a deep copy, derived fields included.
func (r *Restaurant) Clone() *Restaurant {
	c := *r
	if r.Distance != nil {
		d := *r.Distance
		c.Distance = &d
	}
	if r.WeightedScore != nil {
		w := *r.WeightedScore
		c.WeightedScore = &w
	}
	return &c
}

// CloneAll deep-copies a result set, skipping nil entries.
func CloneAll(rs []*Restaurant) []*Restaurant {
	out := make([]*Restaurant, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Location is a WGS84 coordinate pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SortMethod selects how a result set is ordered.
type SortMethod string

const (
	SortRating   SortMethod = "rating"
	SortPrice    SortMethod = "price"
	SortDistance SortMethod = "distance"
	SortWeighted SortMethod = "weighted"
	SortKNN      SortMethod = "knn"
)

// SortMethods lists every supported method in display order.
var SortMethods = []SortMethod{SortRating, SortPrice, SortDistance, SortWeighted, SortKNN}

// ParseSortMethod normalises user input into a SortMethod.
func ParseSortMethod(s string) (SortMethod, error) {
	m := SortMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sorting method: %q", s)
}

// NeedsLocation reports whether the method can only run with a user location.
func (m SortMethod) NeedsLocation() bool {
	return m == SortDistance || m == SortWeighted || m == SortKNN
}
