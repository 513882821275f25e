package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
)

// apiError is the JSON error envelope returned by every endpoint.
type apiError struct {
	Code    string
	Message string
	Status  int
}

// classify maps a service error onto a status and a stable code.
func classify(err error) apiError {
	msg := sanitize(err.Error(), 512)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return apiError{Code: "unauthenticated", Message: msg, Status: http.StatusUnauthorized}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return apiError{Code: "not_found", Message: msg, Status: http.StatusNotFound}
	case errors.Is(err, domain.ErrInvariantViolation):
		return apiError{Code: "invariant_violation", Message: msg, Status: http.StatusConflict}
	case errors.Is(err, domain.ErrInvalidInput):
		return apiError{Code: "invalid_input", Message: msg, Status: http.StatusBadRequest}
	default:
		return apiError{Code: "internal", Message: "internal error", Status: http.StatusInternalServerError}
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	payload := map[string]any{
		"error":   e.Code,
		"message": e.Message,
		"status":  e.Status,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		payload["request_id"] = sanitize(id, 80)
	}
	writeJSON(w, e.Status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	// cut at a rune boundary so the result stays valid UTF-8
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
