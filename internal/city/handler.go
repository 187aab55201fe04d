// AngelaMos | 2026
// handler.go

package city

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/citylistings/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /cities. Reads are public, writes go through
// adminOnly.
func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/cities", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/slug/{slug}", h.GetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, "Failed to fetch cities", err)
		return
	}

	core.OK(w, citiesEnvelope{OK: true, Cities: cities})
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, cityEnvelope{OK: true, City: c})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, cityEnvelope{OK: true, City: c})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, cityEnvelope{OK: true, City: c})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, deleteEnvelope{
		OK:              true,
		Message:         "City deleted",
		RemovedListings: removed,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CityRequest, bool) {
	var req CityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "City name required")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNameRequired):
		core.BadRequest(w, "City name required")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "City not found")
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, "City slug is already in use")
	default:
		core.InternalServerError(w, "City operation failed", err)
	}
}
