package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"astro-server/internal/shared/errors"
	"astro-server/internal/shared/response"
)

// FallbackHandler answers requests no endpoint pattern matched, in the same
// JSON error format as the endpoints themselves.
type FallbackHandler struct {
	logger *slog.Logger
}

func NewFallbackHandler(logger *slog.Logger) *FallbackHandler {
	return &FallbackHandler{logger: logger.With("component", "fallback_handler")}
}

// MethodNotAllowed responds 405 and advertises the allowed methods.
func (h *FallbackHandler) MethodNotAllowed(allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		response.Error(w, r, h.logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *FallbackHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, h.logger, errors.NotFoundf("no route for %s", r.URL.Path))
}
