package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"restaurantfinder/history"
	"restaurantfinder/session"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HealthHandler reports liveness and the number of live sessions.
func HealthHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": store.Len(),
		})
	}
}

// HistoryHandler lists the most recent distinct searches, used to populate
// the postal code suggestions.
func HistoryHandler(src history.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = DefaultHistoryLimit
		}
		if limit > MaxHistoryLimit {
			limit = MaxHistoryLimit
		}

		entries, err := src.Recent(r.Context(), limit)
		if err != nil {
			slog.Error("history query error", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong"})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
