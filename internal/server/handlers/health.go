package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"astro-server/internal/shared/response"
)

type RootResponse struct {
	Message string `json:"message"`
}

// RootHandler answers the liveness probe at "/".
type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, RootResponse{Message: "Astro Data API"})
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Stars     *int   `json:"stars,omitempty"`
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type StarCounter interface {
	Count(ctx context.Context) (int, error)
}

type HealthHandler struct {
	db    Pinger
	stars StarCounter
}

func NewHealthHandler(db Pinger, stars StarCounter) *HealthHandler {
	return &HealthHandler{db: db, stars: stars}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "disconnected",
	}

	if err := h.db.PingContext(r.Context()); err != nil {
		logger.Warn("Database ping failed", "error", err)
	} else {
		resp.Database = "connected"
		if count, err := h.stars.Count(r.Context()); err != nil {
			logger.Warn("Star count failed", "error", err)
		} else {
			resp.Stars = &count
		}
	}

	response.Success(w, http.StatusOK, resp)
}
