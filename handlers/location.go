package handlers

import (
	"net/http"
	"strings"

	"restaurantfinder/finder"
	"restaurantfinder/geolocate"
	"restaurantfinder/models"
	"restaurantfinder/session"
)

type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

type geocodeRequest struct {
	Address string `json:"address"`
}

// AddressLocator turns a free-text address into a Locator.
type AddressLocator interface {
	For(address string) geolocate.Locator
}

// LocationHandler takes the result of a browser geolocation request: either
// coordinates or the error the browser reported.
func LocationHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		var req locationRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		var l geolocate.Locator
		switch {
		case req.Error != "":
			l = geolocate.Denied{Reason: req.Error}
		case req.Lat != nil && req.Lng != nil:
			if err := finder.ValidateLocation(models.Location{Lat: *req.Lat, Lng: *req.Lng}); err != nil {
				writeError(w, err)
				return
			}
			l = geolocate.Static{Lat: *req.Lat, Lng: *req.Lng}
		default:
			writeError(w, &finder.ValidationError{Field: "location", Message: "lat and lng are required"})
			return
		}

		v, err := sess.Controller.Locate(r.Context(), l)
		writeView(w, v, err)
	}
}

// GeocodeHandler resolves an address server-side and uses it as the caller's
// position.
func GeocodeHandler(store *session.Store, geocoder AddressLocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if geocoder == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Address lookup is not configured"})
			return
		}
		sess := store.Get(w, r)

		var req geocodeRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(req.Address) == "" {
			writeError(w, &finder.ValidationError{Field: "address", Message: "Please enter an address"})
			return
		}

		v, err := sess.Controller.Locate(r.Context(), geocoder.For(req.Address))
		writeView(w, v, err)
	}
}
