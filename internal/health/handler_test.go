// AngelaMos | 2026
// handler_test.go

package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/citylistings/internal/health"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                 { return s.name }
func (s stubChecker) Ping(_ context.Context) error { return s.err }

func probe(t *testing.T, h *health.Handler, path string) (int, health.ReadinessResponse) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body health.ReadinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		h := health.NewHandler(stubChecker{name: "postgres"}, stubChecker{name: "redis"})
		code, body := probe(t, h, "/readyz")

		if code != http.StatusOK || body.Status != "ok" || len(body.Checks) != 2 {
			t.Fatalf("readyz = %d %+v", code, body)
		}
		if body.Checks[0].Name != "postgres" || body.Checks[1].Name != "redis" {
			t.Fatalf("check order = %+v", body.Checks)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		h := health.NewHandler(stubChecker{name: "mongo"}, stubChecker{name: "redis", err: errors.New("dial tcp: refused")})
		code, body := probe(t, h, "/readyz")

		if code != http.StatusServiceUnavailable || body.Status != "degraded" {
			t.Fatalf("readyz = %d %+v", code, body)
		}
		if body.Checks[1].Healthy || body.Checks[1].Message != "ping failed" {
			t.Fatalf("redis check = %+v", body.Checks[1])
		}
	})

	t.Run("shutting down", func(t *testing.T) {
		h := health.NewHandler(stubChecker{name: "redis"})
		h.SetShutdown(true)

		for _, path := range []string{"/readyz", "/healthz", "/livez"} {
			code, body := probe(t, h, path)
			if code != http.StatusServiceUnavailable || body.Status != "shutting_down" {
				t.Fatalf("%s = %d %+v", path, code, body)
			}
		}
	})

	t.Run("not ready", func(t *testing.T) {
		h := health.NewHandler()
		h.SetReady(false)

		if code, body := probe(t, h, "/readyz"); code != http.StatusServiceUnavailable || body.Status != "not_ready" {
			t.Fatalf("readyz = %d %+v", code, body)
		}
		if code, _ := probe(t, h, "/healthz"); code != http.StatusOK {
			t.Fatalf("liveness should not depend on readiness: %d", code)
		}
	})
}
