// AngelaMos | 2026
// handler_test.go

package listing_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/listing"
	"github.com/carterperez-dev/citylistings/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func passThrough(next http.Handler) http.Handler { return next }

func newListingRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()

	dir := t.TempDir()
	uploads, err := storage.NewLocal(dir, "/uploads", 1<<20)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	svc := listing.NewService(newMemRepo(), fakeCities{"paris": "Paris"}, uploads)
	r := chi.NewRouter()
	listing.NewHandler(svc, 2<<20).RegisterRoutes(r, passThrough)
	return r, dir
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return rec, out
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestListingHandlerJSONCreateAndRead(t *testing.T) {
	r, _ := newListingRouter(t)

	rec, body := serve(t, r, jsonRequest(http.MethodPost, "/listings",
		`{"name":"Loft","citySlug":"Paris","price":450,"description":"<p>ok</p>"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%v)", rec.Code, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["citySlug"] != "paris" || data["price"] != "450" || body["success"] != true {
		t.Fatalf("create body = %v", body)
	}
	id, _ := data["id"].(string)

	rec, body = serve(t, r, httptest.NewRequest(http.MethodGet, "/listings/"+id, nil))
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("get = %d %v", rec.Code, body)
	}

	rec, body = serve(t, r, httptest.NewRequest(http.MethodGet, "/listings?city=paris&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	pagination, _ := body["pagination"].(map[string]any)
	if pagination["totalItems"] != float64(1) || pagination["limit"] != float64(10) {
		t.Fatalf("pagination = %v", pagination)
	}

	rec, body = serve(t, r, httptest.NewRequest(http.MethodGet, "/location-listings?city=Paris", nil))
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("location listings = %d %v", rec.Code, body)
	}
	if items, _ := body["data"].([]any); len(items) != 1 {
		t.Fatalf("location listings data = %v", body["data"])
	}

	rec, body = serve(t, r, jsonRequest(http.MethodPut, "/listings/"+id, `{"status":"inactive"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %v", rec.Code, body)
	}
	if data, _ := body["data"].(map[string]any); data["status"] != "inactive" || data["name"] != "Loft" {
		t.Fatalf("update body = %v", body)
	}

	rec, body = serve(t, r, httptest.NewRequest(http.MethodDelete, "/listings/"+id, nil))
	if rec.Code != http.StatusOK || body["message"] != "Listing deleted" {
		t.Fatalf("delete = %d %v", rec.Code, body)
	}
}

func TestListingHandlerMultipartUpload(t *testing.T) {
	r, dir := newListingRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Studio")
	_ = mw.WriteField("city", "paris")
	_ = mw.WriteField("profileOrder", "not json")
	fw, err := mw.CreateFormFile("profileImages[]", "front.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(pngHeader)
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/listings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec, body := serve(t, r, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%v)", rec.Code, body)
	}

	data, _ := body["data"].(map[string]any)
	images, _ := data["profileImages"].([]any)
	if len(images) != 1 {
		t.Fatalf("profileImages = %v", data["profileImages"])
	}
	publicPath, _ := images[0].(string)
	if !strings.HasPrefix(publicPath, "/uploads/") || !strings.HasSuffix(publicPath, ".png") {
		t.Fatalf("public path = %q", publicPath)
	}
	if _, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(publicPath, "/uploads/"))); err != nil {
		t.Fatalf("upload not on disk: %v", err)
	}
	if order, _ := data["profileOrder"].([]any); order == nil || len(order) != 0 {
		t.Fatalf("malformed profileOrder should become [], got %v", data["profileOrder"])
	}
}

func TestListingHandlerRejectsNonImage(t *testing.T) {
	r, _ := newListingRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Studio")
	_ = mw.WriteField("city", "paris")
	fw, _ := mw.CreateFormFile("variantImages", "notes.txt")
	_, _ = fw.Write([]byte("plain text, not an image"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/listings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec, body := serve(t, r, req)
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("status = %d (%v)", rec.Code, body)
	}
}

func TestListingHandlerErrors(t *testing.T) {
	r, _ := newListingRouter(t)

	tests := []struct {
		name    string
		req     *http.Request
		status  int
		message string
	}{
		{
			name:    "invalid id",
			req:     httptest.NewRequest(http.MethodGet, "/listings/123", nil),
			status:  http.StatusBadRequest,
			message: "Invalid listing id",
		},
		{
			name:    "missing listing",
			req:     httptest.NewRequest(http.MethodGet, "/listings/"+core.NewID(), nil),
			status:  http.StatusNotFound,
			message: "Listing not found",
		},
		{
			name:    "invalid id on update",
			req:     jsonRequest(http.MethodPut, "/listings/abc", `{}`),
			status:  http.StatusBadRequest,
			message: "Invalid listing id",
		},
		{
			name:    "bad status filter",
			req:     httptest.NewRequest(http.MethodGet, "/listings?status=archived", nil),
			status:  http.StatusBadRequest,
			message: "Invalid status filter",
		},
		{
			name:    "city required",
			req:     httptest.NewRequest(http.MethodGet, "/location-listings", nil),
			status:  http.StatusBadRequest,
			message: "city required",
		},
		{
			name:    "unknown city",
			req:     jsonRequest(http.MethodPost, "/listings", `{"name":"A","city":"Atlantis"}`),
			status:  http.StatusBadRequest,
			message: "Unknown city",
		},
		{
			name:    "missing name",
			req:     jsonRequest(http.MethodPost, "/listings", `{"city":"paris"}`),
			status:  http.StatusBadRequest,
			message: "Listing name required",
		},
		{
			name:    "malformed body",
			req:     jsonRequest(http.MethodPost, "/listings", `{"name":`),
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, r, tt.req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%v)", rec.Code, tt.status, body)
			}
			if body["success"] != false || body["message"] != tt.message {
				t.Fatalf("body = %v, want message %q", body, tt.message)
			}
		})
	}
}

func TestLocationListingsNoData(t *testing.T) {
	r, _ := newListingRouter(t)

	if rec, body := serve(t, r, jsonRequest(http.MethodPost, "/listings", `{"name":"Loft","city":"paris"}`)); rec.Code != http.StatusCreated {
		t.Fatalf("seed = %d %v", rec.Code, body)
	}

	rec, body := serve(t, r, httptest.NewRequest(http.MethodGet, "/location-listings?city=New%20Delhi", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["success"] != false || body["message"] != "NO_DATA" {
		t.Fatalf("body = %v", body)
	}

	debug, _ := body["debug"].(map[string]any)
	if debug["inputSlug"] != "new-delhi" {
		t.Fatalf("debug = %v", debug)
	}
	available, _ := debug["available"].([]any)
	if len(available) != 1 || available[0] != "paris" {
		t.Fatalf("available = %v", debug["available"])
	}
}

func TestListingHandlerPagination(t *testing.T) {
	r, _ := newListingRouter(t)

	for _, name := range []string{"Loft", "Studio"} {
		if rec, body := serve(t, r, jsonRequest(http.MethodPost, "/listings",
			`{"name":"`+name+`","city":"paris"}`)); rec.Code != http.StatusCreated {
			t.Fatalf("create %s = %d %v", name, rec.Code, body)
		}
	}

	tests := []struct {
		name  string
		query string
		want  map[string]float64
		items int
	}{
		{name: "second page", query: "page=2&limit=1",
			want: map[string]float64{"page": 2, "limit": 1, "totalPages": 2, "totalItems": 2}, items: 1},
		{name: "past the end", query: "page=5&limit=1",
			want: map[string]float64{"page": 5, "limit": 1, "totalPages": 2, "totalItems": 2}, items: 0},
		{name: "zero limit clamps to one", query: "page=1&limit=0",
			want: map[string]float64{"page": 1, "limit": 1, "totalPages": 2, "totalItems": 2}, items: 1},
		{name: "negative values clamp", query: "page=-3&limit=-5",
			want: map[string]float64{"page": 1, "limit": 1, "totalPages": 2, "totalItems": 2}, items: 1},
		{name: "absent limit defaults", query: "",
			want: map[string]float64{"page": 1, "limit": listing.DefaultLimit, "totalPages": 1, "totalItems": 2}, items: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, r, httptest.NewRequest(http.MethodGet, "/listings?"+tt.query, nil))
			if rec.Code != http.StatusOK || body["success"] != true {
				t.Fatalf("list = %d %v", rec.Code, body)
			}

			pagination, _ := body["pagination"].(map[string]any)
			for k, v := range tt.want {
				if pagination[k] != v {
					t.Fatalf("pagination[%s] = %v, want %v (%v)", k, pagination[k], v, pagination)
				}
			}

			items, ok := body["data"].([]any)
			if !ok {
				t.Fatalf("data = %#v, want an array", body["data"])
			}
			if len(items) != tt.items {
				t.Fatalf("data has %d items, want %d", len(items), tt.items)
			}
		})
	}
}
