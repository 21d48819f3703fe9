package handlers

import (
	"net/http"
	"strings"

	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/middleware"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// ListPlayersHandler serves GET /players.
func ListPlayersHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := dir.ListPlayers(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

type checkInRequest struct {
	CourtID string `json:"court_id"`
}

// CheckInHandler serves POST /checkins for the authenticated user.
func CheckInHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		var req checkInRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		req.CourtID = strings.TrimSpace(req.CourtID)
		if req.CourtID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "court_id is required"})
			return
		}

		if err := dir.CheckIn(r.Context(), userID, req.CourtID); err != nil {
			writeError(w, logger, err)
			return
		}
		court, err := dir.GetCourtByID(r.Context(), req.CourtID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

// GetProfileHandler serves GET /profile for the authenticated user.
func GetProfileHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())
		u, err := dir.GetUser(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// UpdateProfileHandler serves PATCH /profile. Identity fields cannot be
// patched; unknown fields are rejected.
func UpdateProfileHandler(logger logrus.FieldLogger, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		var patch models.ProfilePatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, logger, err)
			return
		}
		u, err := dir.UpdateProfile(r.Context(), userID, patch)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
