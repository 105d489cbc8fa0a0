package browserfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fetchkit/internal/browserpool"
)

func skipCI(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
}

func newTestPool() *browserpool.Pool {
	return browserpool.New(browserpool.Config{
		MaxBrowsers:         1,
		MaxPagesPerContext:  2,
		MaxBrowserAge:       time.Minute,
		MaxIdleTime:         time.Minute,
		HealthCheckInterval: time.Hour,
		Headless:            true,
	})
}

func TestFetchCheapSuccess(t *testing.T) {
	skipCI(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Real</title></head><body>hello</body></html>`))
	}))
	defer srv.Close()

	pool := newTestPool()
	defer pool.Shutdown(context.Background())

	f := New(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := f.Fetch(ctx, srv.URL, Options{FastMode: true})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Title != "Real" {
		t.Errorf("expected title %q, got %q", "Real", result.Title)
	}
	if result.StatusCode != 200 {
		t.Errorf("expected status 200, got %d", result.StatusCode)
	}
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	skipCI(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html><body>missing</body></html>"))
	}))
	defer srv.Close()

	pool := newTestPool()
	defer pool.Shutdown(context.Background())

	f := New(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := f.Fetch(ctx, srv.URL, Options{FastMode: true}); err == nil {
		t.Fatalf("expected a 404 navigation to fail")
	}
}
