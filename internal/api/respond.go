package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nhle/collab-todo/internal/apperr"
)

// envelope is the JSON response body: success, an optional message, and
// resource payload keys.
type envelope map[string]any

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusOf maps an error kind to its HTTP status.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal failures are logged with their cause
// and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	reqID := middleware.GetReqID(r.Context())

	switch kind {
	case apperr.KindInternal:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", reqID, "err", err)
		writeJSON(w, status, envelope{"success": false, "message": "Internal server error"})
		return
	case apperr.KindDependency:
		s.logger.Warn("dependency failed", "path", r.URL.Path, "request_id", reqID, "err", err)
	default:
		s.logger.Debug("request rejected", "path", r.URL.Path, "kind", kind, "request_id", reqID, "err", err)
	}

	writeJSON(w, status, envelope{
		"success": false,
		"message": apperr.MessageOf(err, http.StatusText(status)),
	})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.InvalidInput("Invalid request body")
	}
	return nil
}
