package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func apiRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/query", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	r.Post("/api/feedback", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK) // superfluous; the first status is recorded
	})
	return r
}

func TestMiddleware_LabelsByMethodRouteAndStatus(t *testing.T) {
	router := apiRouter()

	tests := []struct {
		method, target, route, status string
	}{
		{http.MethodGet, "/api/query?subject=biden&q=tax", "/api/query", "200"},
		{http.MethodPost, "/api/feedback", "/api/feedback", "400"},
		{http.MethodGet, "/health", "/health", "503"},
	}
	for _, tc := range tests {
		t.Run(tc.route, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status))
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.target, http.NoBody))
			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status))
			if after-before != 1 {
				t.Errorf("%s %s: counter moved by %v, want 1", tc.method, tc.route, after-before)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddleware_UnroutedRequestsShareLabel(t *testing.T) {
	router := apiRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404"))

	for _, p := range []string{"/nope", "/api/other", "/wp-admin"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, http.NoBody))
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404"))
	if after-before != 3 {
		t.Errorf("expected 3 requests under the unknown label, got %v", after-before)
	}
}

func TestStatusWriter_FlushPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &statusWriter{ResponseWriter: rec, status: http.StatusOK}
	_, _ = w.Write([]byte("%PDF"))
	w.Flush()

	if !rec.Flushed {
		t.Error("expected underlying recorder to be flushed")
	}
	if w.status != http.StatusOK {
		t.Errorf("implicit status = %d, want 200", w.status)
	}
}

func TestMiddleware_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/doc/{subject}/{filename}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/doc/biden/plan.pdf", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/doc/{subject}/{filename}", "200"))
	if val < 1 {
		t.Errorf("expected route pattern label, got %f", val)
	}
}

func TestHandler_ExposesHTTPMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	r.Handle("/metrics", Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", http.NoBody))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "polaudit_http_requests_total") {
		t.Error("expected polaudit_http_requests_total in metrics output")
	}
}

func TestRegisterDomainMetrics_Idempotent(t *testing.T) {
	RegisterDomainMetrics()
	RegisterDomainMetrics()

	FeedbackTotal.WithLabelValues("biden", "created").Inc()
	if v := testutil.ToFloat64(FeedbackTotal.WithLabelValues("biden", "created")); v < 1 {
		t.Errorf("expected feedback_total >= 1, got %f", v)
	}
}
