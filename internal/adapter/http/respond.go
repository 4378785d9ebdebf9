package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"adwatch/internal/core/port"
)

// ownerID extracts the authenticated owner from the X-Owner-ID header. The
// identity layer in front of this service is expected to set it; the engine
// itself only needs a stable opaque id.
func ownerID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Owner-ID"), 10, 64)
	return id, err == nil && id > 0
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps port errors onto HTTP statuses. Anything unrecognised is
// a 500 with a generic body; the detail goes to the log only.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, port.ErrPolicyNotFound),
		errors.Is(err, port.ErrAssignmentNotFound),
		errors.Is(err, port.ErrTokenNotFound),
		errors.Is(err, port.ErrJobNotFound),
		errors.Is(err, port.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, port.ErrDuplicateBinding):
		h.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, port.ErrNoValidToken):
		h.writeJSON(w, http.StatusFailedDependency, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid X-Owner-ID"})
}
