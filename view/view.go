// Package view turns finder state into render-ready data. Everything here is
// a pure function of its input.
package view

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"restaurantfinder/models"
)

// State is the slice of controller state the presentation layer needs.
type State struct {
	Displayed  []*models.Restaurant
	Total      int
	HasData    bool
	SortMethod models.SortMethod
	MinRating  float64
	MaxPrice   int
	Location   *models.Location
	Message    string
	Error      string
	Generation uint64
	Loading    bool
	Locale     language.Tag
}

// View is what a client draws: a list, map pins and status text.
type View struct {
	Items      []Item            `json:"items"`
	Markers    []Marker          `json:"markers"`
	Bounds     *Bounds           `json:"bounds,omitempty"`
	Count      int               `json:"count"`
	Total      int               `json:"total"`
	Empty      bool              `json:"empty"`
	HasData    bool              `json:"hasData"`
	SortMethod models.SortMethod `json:"sortMethod,omitempty"`
	MinRating  float64           `json:"minRating"`
	MaxPrice   int               `json:"maxPrice"`
	Location   *models.Location  `json:"location,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Generation uint64            `json:"generation"`
	Loading    bool              `json:"loading"`
}

// Item is one row of the result list.
type Item struct {
	Index         int      `json:"index"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	PostalCode    string   `json:"postalCode,omitempty"`
	Rating        float64  `json:"rating"`
	RatingText    string   `json:"ratingText"`
	PriceLevel    int      `json:"priceLevel"`
	Price         string   `json:"price"`
	Distance      *float64 `json:"distance,omitempty"`
	DistanceText  string   `json:"distanceText,omitempty"`
	WeightedScore *float64 `json:"weightedScore,omitempty"`
	WeightedText  string   `json:"weightedText,omitempty"`
}

// Marker is a map pin.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// Build maps state to a View.
func Build(s State) View {
	p := printer(s.Locale)

	v := View{
		Items:      make([]Item, 0, len(s.Displayed)),
		Markers:    make([]Marker, 0, len(s.Displayed)),
		Count:      len(s.Displayed),
		Total:      s.Total,
		HasData:    s.HasData,
		SortMethod: s.SortMethod,
		MinRating:  s.MinRating,
		MaxPrice:   s.MaxPrice,
		Location:   s.Location,
		Message:    s.Message,
		Error:      s.Error,
		Generation: s.Generation,
		Loading:    s.Loading,
	}

	for i, r := range s.Displayed {
		v.Items = append(v.Items, item(p, i, r))
		v.Markers = append(v.Markers, Marker{Lat: r.Lat, Lng: r.Lng, Label: r.Name})
	}
	v.Bounds = BoundsOf(v.Markers)

	if s.HasData && len(s.Displayed) == 0 {
		v.Empty = true
		if v.Message == "" {
			if s.Total == 0 {
				v.Message = "No restaurants found"
			} else {
				v.Message = "No restaurants match the current filters"
			}
		}
	}
	return v
}

// Detail is the payload of the restaurant modal.
type Detail struct {
	Item
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DetailOf renders a single restaurant at list position index.
func DetailOf(tag language.Tag, index int, r *models.Restaurant) Detail {
	return Detail{
		Item: item(printer(tag), index, r),
		Lat:  r.Lat,
		Lng:  r.Lng,
	}
}

func item(p *message.Printer, index int, r *models.Restaurant) Item {
	it := Item{
		Index:      index,
		Name:       r.Name,
		Address:    r.Address,
		PostalCode: r.PostalCode,
		Rating:     r.Rating,
		RatingText: FormatRating(p, r.Rating),
		PriceLevel: r.PriceLevel,
		Price:      PriceSymbols(r.PriceLevel),
	}
	if r.Distance != nil {
		it.DistanceText = FormatDistance(p, *r.Distance)
		if isFinite(*r.Distance) {
			d := *r.Distance
			it.Distance = &d
		}
	}
	if r.WeightedScore != nil {
		w := *r.WeightedScore
		switch {
		case math.IsInf(w, 1):
			it.WeightedText = "∞"
		case math.IsNaN(w):
			it.WeightedText = "n/a"
		default:
			it.WeightedScore = &w
			it.WeightedText = p.Sprintf("%.2f", w)
		}
	}
	return it
}

// PriceSymbols renders a price level: 0..3 as $..$$$$, anything else as "?".
func PriceSymbols(level int) string {
	if level < 0 || level > 3 {
		return "?"
	}
	return strings.Repeat("$", level+1)
}

// FormatRating renders a 0-5 rating; 0 means the place has no rating yet.
func FormatRating(p *message.Printer, rating float64) string {
	if rating <= 0 || !isFinite(rating) {
		return "-"
	}
	return p.Sprintf("%.1f ★", rating)
}

// FormatDistance renders kilometers, switching to meters below 1 km.
func FormatDistance(p *message.Printer, km float64) string {
	if !isFinite(km) {
		return ""
	}
	if km < 1 {
		return p.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return p.Sprintf("%.1f km", km)
}

func printer(tag language.Tag) *message.Printer {
	if tag == language.Und {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
