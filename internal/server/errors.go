package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

// StatusCode maps a generation error to an HTTP status.
// Bad research or missing context is an upstream failure; cache trouble is ours.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrMalformedResearch),
		errors.Is(err, model.ErrIncompleteContext):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	s.log.WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"status": status,
		"error":  err,
	}).Warn("request failed")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
