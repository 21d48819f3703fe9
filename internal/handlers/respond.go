package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/sirupsen/logrus"
)

// maxBody caps request payloads.
const maxBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps directory errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without leaking details.
func writeError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, directory.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, directory.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, directory.ErrInvalidCode):
		status, msg = http.StatusUnprocessableEntity, "invalid code"
	case errors.Is(err, directory.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		logger.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request payload", directory.ErrInvalidInput)
	}
	return nil
}
