package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := NewHTTPMetrics()

	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/app/product/get/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", m.Handler())

	srv := httptest.NewServer(router)
	defer srv.Close()

	if _, err := http.Get(srv.URL + "/app/product/get/123"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read scrape body: %v", err)
	}

	text := string(body)
	if !strings.Contains(text, "http_requests_total") {
		t.Fatalf("expected request counter in scrape output")
	}
	if !strings.Contains(text, `path="/app/product/get/{id}"`) {
		t.Fatalf("expected route pattern label, got:\n%s", text)
	}
}
