// AngelaMos | 2026
// handler.go

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/storage"
)

const keepAliveInterval = 25 * time.Second

type Subscriber interface {
	Subscribe() (<-chan []byte, func())
}

type Handler struct {
	service   *Service
	events    Subscriber
	validator *validator.Validate
	maxBytes  int64
}

// NewHandler builds the settings handler. events may be nil, which turns
// the event stream off.
func NewHandler(service *Service, events Subscriber, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Handler{
		service:   service,
		events:    events,
		validator: core.NewValidator(),
		maxBytes:  maxBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/settings", h.Get)
	r.Get("/settings/events", h.Events)

	r.Route("/admin/settings", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/", h.Action)
		r.Post("/reset", h.Reset)
		r.Post("/logo", h.UploadLogo)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		core.InternalServerError(w, "Failed to load settings", err)
		return
	}

	core.OK(w, settingsEnvelope{OK: true, Settings: s})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	s, err := h.service.Update(r.Context(), req)
	if err != nil {
		core.InternalServerError(w, "Failed to save settings", err)
		return
	}

	core.OK(w, settingsEnvelope{OK: true, Settings: s})
}

// Action serves POST /admin/settings?action=reset.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != "reset" {
		w.Header().Set("Allow", "GET, PUT, POST")
		core.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.Reset(w, r)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Reset(r.Context())
	if err != nil {
		core.InternalServerError(w, "Failed to reset settings", err)
		return
	}

	core.OK(w, settingsEnvelope{OK: true, Settings: s})
}

func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.Fail(w, http.StatusRequestEntityTooLarge, "Logo too large")
			return
		}
		core.BadRequest(w, "Form parse failed")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		core.BadRequest(w, "No file uploaded")
		return
	}

	s, err := h.service.SetLogo(r.Context(), files[0])
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotImage):
		core.BadRequest(w, "Logo must be an image")
		return
	case errors.Is(err, storage.ErrFileTooLarge):
		core.Fail(w, http.StatusRequestEntityTooLarge, "Logo too large")
		return
	default:
		core.InternalServerError(w, "Upload failed", err)
		return
	}

	core.OK(w, logoEnvelope{OK: true, Path: s.LogoPath, Settings: s})
}

// Events streams settings changes as server-sent events. The current
// settings are sent first so a client never starts stale.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		core.Fail(w, http.StatusServiceUnavailable, "Live updates unavailable")
		return
	}

	rc := http.NewResponseController(w)

	current, err := h.service.Get(r.Context())
	if err != nil {
		core.InternalServerError(w, "Failed to load settings", err)
		return
	}
	initial, err := json.Marshal(current)
	if err != nil {
		core.InternalServerError(w, "Failed to load settings", err)
		return
	}

	updates, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	//nolint:errcheck // not every writer supports deadlines
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, initial); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, payload); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, payload []byte) error {
	if _, err := fmt.Fprintf(w, "event: settings\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return rc.Flush()
}
