package finder

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"restaurantfinder/backend"
	"restaurantfinder/models"
)

const (
	MinPostalCode = 1000
	MaxPostalCode = 9999
	MinK          = 1
	MaxK          = 50
)

var postalCodeRegexp = regexp.MustCompile(`^\d{4}$`)

// SearchParams is one user search request.
type SearchParams struct {
	PostalCode string
	Method     models.SortMethod
	K          int
	Location   *models.Location
}

// ParseSearchParams reads a search from query values. Unparseable numbers are
// left at zero and caught by Validate.
func ParseSearchParams(query url.Values) SearchParams {
	p := SearchParams{
		PostalCode: strings.TrimSpace(query.Get("postalCode")),
		Method:     models.SortMethod(strings.ToLower(strings.TrimSpace(query.Get("method")))),
	}
	if p.PostalCode == "" {
		p.PostalCode = strings.TrimSpace(query.Get("postNummer"))
	}
	if p.Method == "" {
		p.Method = models.SortRating
	}

	p.K, _ = strconv.Atoi(query.Get("k"))

	latStr, lngStr := query.Get("lat"), query.Get("lng")
	if latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat == nil && errLng == nil {
			p.Location = &models.Location{Lat: lat, Lng: lng}
		}
	}
	return p
}

// ValidatePostalCode checks a 4-digit code in 1000-9999.
func ValidatePostalCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return &ValidationError{Field: "postal code", Message: "Please enter a postal code"}
	}
	if !postalCodeRegexp.MatchString(code) {
		return &ValidationError{Field: "postal code", Message: "Postal code must be exactly 4 digits"}
	}
	n, _ := strconv.Atoi(code)
	if n < MinPostalCode || n > MaxPostalCode {
		return &ValidationError{Field: "postal code", Message: "Postal code must be between 1000 and 9999"}
	}
	return nil
}

// ValidateLocation checks that loc is a finite WGS84 coordinate.
func ValidateLocation(loc models.Location) error {
	if math.IsNaN(loc.Lat) || math.IsNaN(loc.Lng) || loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return &ValidationError{Field: "location", Message: "Coordinates are out of range"}
	}
	return nil
}

// Validate normalises p and checks it. It returns a *ValidationError for bad
// input and ErrLocationRequired when the method needs a position that is
// missing.
func (p *SearchParams) Validate() error {
	p.PostalCode = strings.TrimSpace(p.PostalCode)
	if err := ValidatePostalCode(p.PostalCode); err != nil {
		return err
	}

	m, err := models.ParseSortMethod(string(p.Method))
	if err != nil {
		return &ValidationError{Field: "method", Message: "Unknown sort method"}
	}
	p.Method = m

	if p.Method == models.SortKNN {
		if p.K < MinK || p.K > MaxK {
			return &ValidationError{Field: "k", Message: "K must be a whole number between 1 and 50"}
		}
	} else {
		p.K = 0
	}

	if p.Location != nil {
		if err := ValidateLocation(*p.Location); err != nil {
			return err
		}
	}

	if p.Method.NeedsLocation() && p.Location == nil {
		return ErrLocationRequired
	}
	return nil
}

// Query converts validated params into a backend query.
func (p SearchParams) Query() backend.Query {
	return backend.Query{
		PostalCode: p.PostalCode,
		Method:     p.Method,
		Location:   p.Location,
		K:          p.K,
	}
}
