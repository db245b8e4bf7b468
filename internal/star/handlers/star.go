package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"astro-server/internal/shared/errors"
	"astro-server/internal/shared/response"
	"astro-server/internal/star"
)

const maxBodyBytes = 1 << 20 // 1 MB

type StarHandler struct {
	service *star.Service
}

func NewStarHandler(service *star.Service) *StarHandler {
	return &StarHandler{service: service}
}

// createStarBody uses pointers so that missing numeric fields can be told
// apart from zero values.
type createStarBody struct {
	Name         *string  `json:"name"`
	Magnitude    *float64 `json:"magnitude"`
	Distance     *float64 `json:"distance"`
	SpectralType *string  `json:"spectral_type"`
}

func (b createStarBody) toRequest() (star.CreateStarRequest, error) {
	switch {
	case b.Name == nil:
		return star.CreateStarRequest{}, errors.Validation("name is required")
	case b.Magnitude == nil:
		return star.CreateStarRequest{}, errors.Validation("magnitude is required")
	case b.Distance == nil:
		return star.CreateStarRequest{}, errors.Validation("distance is required")
	case b.SpectralType == nil:
		return star.CreateStarRequest{}, errors.Validation("spectral_type is required")
	}

	return star.CreateStarRequest{
		Name:         *b.Name,
		Magnitude:    *b.Magnitude,
		Distance:     *b.Distance,
		SpectralType: *b.SpectralType,
	}, nil
}

func (h *StarHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_stars")

	stars, err := h.service.List(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, stars)
}

func (h *StarHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_star")

	id, err := starID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, s)
}

func (h *StarHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_star")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body createStarBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	req, err := body.toRequest()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, created)
}

func (h *StarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_star")

	id, err := starID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.NoContent(w)
}

func starID(r *http.Request) (int, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, errors.Validation("star ID is required")
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.Validationf("invalid star ID %q", idStr)
	}
	return id, nil
}
