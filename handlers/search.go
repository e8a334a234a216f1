package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"restaurantfinder/backend"
	"restaurantfinder/finder"
	"restaurantfinder/models"
	"restaurantfinder/session"
	"restaurantfinder/view"
)

type searchRequest struct {
	PostalCode string   `json:"postalCode"`
	Method     string   `json:"method"`
	K          int      `json:"k"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

type filtersRequest struct {
	MinRating *float64 `json:"minRating"`
	MaxPrice  *int     `json:"maxPrice"`
}

type sortRequest struct {
	Method string `json:"method"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SearchHandler runs a search for the caller's session. Parameters come from
// the query string and may be overridden by a JSON body.
func SearchHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		p := finder.ParseSearchParams(r.URL.Query())
		var req searchRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.PostalCode != "" {
			p.PostalCode = req.PostalCode
		}
		if req.Method != "" {
			p.Method = models.SortMethod(req.Method)
		}
		if req.K != 0 {
			p.K = req.K
		}
		if req.Lat != nil && req.Lng != nil {
			p.Location = &models.Location{Lat: *req.Lat, Lng: *req.Lng}
		}

		v, err := sess.Controller.Search(r.Context(), p)
		if err != nil && !errors.Is(err, finder.ErrSuperseded) {
			slog.Debug("search request failed", "session", sess.ID, "error", err)
		}
		writeView(w, v, err)
	}
}

// FiltersHandler applies a minimum rating and maximum price level. A field
// left out keeps its current value.
func FiltersHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		var req filtersRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		minRating, maxPrice := sess.Controller.Filters()
		if req.MinRating != nil {
			minRating = *req.MinRating
		}
		if req.MaxPrice != nil {
			maxPrice = *req.MaxPrice
		}
		if minRating < 0 || minRating > 5 {
			writeError(w, &finder.ValidationError{Field: "minRating", Message: "Minimum rating must be between 0 and 5"})
			return
		}
		if maxPrice < -1 || maxPrice > 3 {
			writeError(w, &finder.ValidationError{Field: "maxPrice", Message: "Maximum price level must be between -1 and 3"})
			return
		}

		writeView(w, sess.Controller.ApplyFilters(minRating, maxPrice), nil)
	}
}

// SortHandler reorders the displayed restaurants.
func SortHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		req := sortRequest{Method: r.URL.Query().Get("method")}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Method == "" {
			writeError(w, &finder.ValidationError{Field: "method", Message: "Please choose a sort method"})
			return
		}

		v, err := sess.Controller.Sort(models.SortMethod(req.Method))
		writeView(w, v, err)
	}
}

// ViewHandler returns the current view of the caller's session.
func ViewHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)
		writeView(w, sess.Controller.View(), nil)
	}
}

// DetailHandler returns the modal payload for one displayed restaurant.
func DetailHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, &finder.ValidationError{Field: "index", Message: "Index must be a number"})
			return
		}
		d, err := sess.Controller.Detail(index)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// MarkersHandler returns the map pins of the displayed set as GeoJSON.
func MarkersHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		data, err := view.FeatureCollection(sess.Controller.Markers()).MarshalJSON()
		if err != nil {
			slog.Error("encode markers", "error", err)
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(data)
	}
}

// StatusFor maps a finder error to an HTTP status.
func StatusFor(err error) int {
	var (
		ve *finder.ValidationError
		re *backend.RequestError
		le *finder.LocationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve), errors.As(err, &re):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, finder.ErrNoSuchRestaurant):
		return http.StatusNotFound
	case errors.Is(err, finder.ErrLocationRequired), errors.Is(err, finder.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &le):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &finder.ValidationError{Field: "body", Message: "Request body must be valid JSON"}
	}
	return nil
}

func writeView(w http.ResponseWriter, v view.View, err error) {
	writeJSON(w, StatusFor(err), v)
}

func writeError(w http.ResponseWriter, err error) {
	msg := finder.Message(err, "")
	var ve *finder.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message
	}
	if errors.Is(err, finder.ErrNoSuchRestaurant) {
		msg = "No restaurant at that position"
	}
	writeJSON(w, StatusFor(err), errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
