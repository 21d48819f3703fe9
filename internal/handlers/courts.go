package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/geo"
	"github.com/sirupsen/logrus"
)

// ListCourtsHandler serves GET /courts?q=.
func ListCourtsHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courts, err := dir.ListCourts(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, courts)
	}
}

// NearbyCourtsHandler serves GET /courts/nearby?lat=&lng=&limit=. A missing or
// malformed position falls back to the default map centre.
func NearbyCourtsHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		origin := geo.Resolve(r.Context(), geo.QueryLocator(q), logger)

		limit := 0
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
			limit = n
		}

		courts, err := dir.NearbyCourts(r.Context(), origin, limit)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, courts)
	}
}

// GetCourtHandler serves GET /courts/{id}.
func GetCourtHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		court, err := dir.GetCourtByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

// CourtPlayersHandler serves GET /courts/{id}/players: one entry per active
// check-in at the court.
func CourtPlayersHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := dir.ListActiveCheckIns(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}
