package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"fincentiva-api/repository"
	"fincentiva-api/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored so older
// clients keep working.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "application/json") {
		writeJSON(w, logger, http.StatusUnsupportedMediaType, errorResponse{Error: "Content-Type must be application/json"})
		return false
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, logger, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeJSON codifica en buffer primero para evitar escribir header si falla
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("encoding response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("writing response", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnsupportedStore):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoPlanFits):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its status. Internal errors are logged
// and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"error", err,
		)
		message = "no se pudo calcular"
	}
	writeJSON(w, logger, status, errorResponse{Error: message})
}
