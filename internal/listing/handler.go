// AngelaMos | 2026
// handler.go

package listing

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/storage"
)

const multipartMemory = 8 << 20

type Handler struct {
	service  *Service
	maxBytes int64
}

// NewHandler builds the listing handler. maxBytes bounds a whole request
// body, including uploads.
func NewHandler(service *Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Handler{service: service, maxBytes: maxBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/location-listings", h.ListByCity)

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Page:     parseIntQuery(q.Get("page"), 1),
		Limit:    parseIntQuery(q.Get("limit"), DefaultLimit),
		CitySlug: q.Get("city"),
		Status:   q.Get("status"),
		Query:    q.Get("q"),
		MinPrice: parseFloatQuery(q.Get("minPrice")),
		MaxPrice: parseFloatQuery(q.Get("maxPrice")),
	}

	if params.Status != "" && !ValidStatus(params.Status) {
		core.Failure(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	listings, pagination, err := h.service.ListPaged(r.Context(), params)
	if err != nil {
		core.ServerFailure(w, "Failed to fetch listings", err)
		return
	}

	core.Paginated(w, listings, pagination)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, listingEnvelope{Success: true, Data: l})
}

func (h *Handler) ListByCity(w http.ResponseWriter, r *http.Request) {
	cityInput := r.URL.Query().Get("city")
	if strings.TrimSpace(cityInput) == "" {
		core.Failure(w, http.StatusBadRequest, "city required")
		return
	}

	listings, slug, available, err := h.service.ListByCity(r.Context(), cityInput)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(listings) == 0 {
		if available == nil {
			available = []string{}
		}
		core.OK(w, core.FailureResponse{
			Success: false,
			Message: "NO_DATA",
			Debug:   noDataDebug{InputSlug: slug, Available: available},
		})
		return
	}

	core.Success(w, http.StatusOK, listings)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput

	if isMultipart(r) {
		form, ok := h.parseMultipart(w, r)
		if !ok {
			return
		}
		in = CreateInput{
			Name:            formValue(form, "name"),
			City:            firstPresent(form, "city", "citySlug"),
			Age:             formValue(form, "age"),
			Price:           formValue(form, "price"),
			DescriptionHTML: firstPresent(form, "description", "descriptionHtml"),
			Status:          formValue(form, "status"),
			ProfileOrder:    jsonList(form, "profileOrder"),
			ProfileFiles:    formFiles(form, "profileImages"),
			VariantFiles:    formFiles(form, "variantImages"),
		}
	} else {
		var body listingBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			core.Failure(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		in = body.toCreate()
	}

	l, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, listingEnvelope{Success: true, Data: l})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !core.IsValidID(id) {
		h.writeError(w, ErrInvalidID)
		return
	}

	var in UpdateInput

	if isMultipart(r) {
		form, ok := h.parseMultipart(w, r)
		if !ok {
			return
		}
		in = UpdateInput{
			Name:            optionalValue(form, "name"),
			City:            optionalFirst(form, "city", "citySlug"),
			Age:             optionalValue(form, "age"),
			Price:           optionalValue(form, "price"),
			DescriptionHTML: optionalFirst(form, "description", "descriptionHtml"),
			Status:          optionalValue(form, "status"),
			KeepProfile:     optionalJSONList(form, "keepProfile"),
			KeepVariant:     optionalJSONList(form, "keepVariant"),
			ProfileOrder:    optionalJSONList(form, "profileOrder"),
			ProfileFiles:    formFiles(form, "profileImages"),
			VariantFiles:    formFiles(form, "variantImages"),
		}
	} else {
		var body listingBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			core.Failure(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		in = body.toUpdate()
	}

	l, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, listingEnvelope{Success: true, Data: l})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, messageEnvelope{Success: true, Message: "Listing deleted"})
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.Failure(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return nil, false
		}
		core.Failure(w, http.StatusBadRequest, "Form parse failed")
		return nil, false
	}
	return r.MultipartForm, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidID):
		core.Failure(w, http.StatusBadRequest, "Invalid listing id")
	case errors.Is(err, core.ErrNotFound):
		core.Failure(w, http.StatusNotFound, "Listing not found")
	case errors.Is(err, ErrNameRequired):
		core.Failure(w, http.StatusBadRequest, "Listing name required")
	case errors.Is(err, ErrCityRequired):
		core.Failure(w, http.StatusBadRequest, "city required")
	case errors.Is(err, ErrUnknownCity):
		core.Failure(w, http.StatusBadRequest, "Unknown city")
	case errors.Is(err, ErrInvalidStatus):
		core.Failure(w, http.StatusBadRequest, "Status must be active or inactive")
	case errors.Is(err, storage.ErrNotImage):
		core.Failure(w, http.StatusBadRequest, "Only image uploads are allowed")
	case errors.Is(err, storage.ErrFileTooLarge):
		core.Failure(w, http.StatusRequestEntityTooLarge, "Upload too large")
	default:
		core.ServerFailure(w, "Server error", err)
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func firstPresent(form *multipart.Form, keys ...string) string {
	if v := optionalFirst(form, keys...); v != nil {
		return *v
	}
	return ""
}

func optionalValue(form *multipart.Form, key string) *string {
	if v, ok := form.Value[key]; ok && len(v) > 0 {
		s := v[0]
		return &s
	}
	return nil
}

func optionalFirst(form *multipart.Form, keys ...string) *string {
	for _, k := range keys {
		if v := optionalValue(form, k); v != nil {
			return v
		}
	}
	return nil
}

// jsonList reads a field holding a JSON array of strings. Malformed input
// yields an empty list.
func jsonList(form *multipart.Form, key string) []string {
	if v := optionalJSONList(form, key); v != nil {
		return *v
	}
	return nil
}

func optionalJSONList(form *multipart.Form, key string) *[]string {
	raw := optionalValue(form, key)
	if raw == nil {
		return nil
	}

	out := []string{}
	if strings.TrimSpace(*raw) != "" {
		if err := json.Unmarshal([]byte(*raw), &out); err != nil {
			out = []string{}
		}
	}
	return &out
}

func formFiles(form *multipart.Form, key string) []*multipart.FileHeader {
	files := form.File[key]
	return append(files, form.File[key+"[]"]...)
}

func parseIntQuery(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

func parseFloatQuery(val string) *float64 {
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return &f
}
