package fetchkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestHTTPEngineCheapSuccess mirrors the spec's scenario 1.
func TestHTTPEngineCheapSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>T</title></head><body>x</body></html>`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(DefaultOptions())
	defer e.Cleanup(context.Background())

	result, err := e.FetchContent(context.Background(), FetchRequest{URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "T" || result.ContentType != ContentTypeHTML || result.StatusCode != 200 || result.IsFromCache {
		t.Errorf("unexpected result: %+v", result)
	}
}

// TestHTTPEngineMarkdownPath mirrors the spec's scenario 6.
func TestHTTPEngineMarkdownPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<h1>Hi</h1><p>Bye</p>`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(DefaultOptions())
	defer e.Cleanup(context.Background())

	markdown := true
	result, err := e.FetchContent(context.Background(), FetchRequest{URL: srv.URL, Markdown: &markdown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ContentType != ContentTypeMarkdown {
		t.Errorf("expected contentType markdown, got %q", result.ContentType)
	}
	if !contains(result.Content, "# Hi") || !contains(result.Content, "Bye") {
		t.Errorf("expected markdown content, got %q", result.Content)
	}
}

func TestHTTPEngineCacheHitAvoidsSecondRequest(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><head><title>T</title></head><body>x</body></html>`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(DefaultOptions())
	defer e.Cleanup(context.Background())

	ctx := context.Background()
	if _, err := e.FetchContent(ctx, FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	result, err := e.FetchContent(ctx, FetchRequest{URL: srv.URL})
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if !result.IsFromCache {
		t.Errorf("expected second identical call to be served from cache")
	}
	if hits != 1 {
		t.Errorf("expected exactly 1 HTTP request, got %d", hits)
	}
}

func TestHTTPEngineCacheMismatchTriggersRefetch(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<h1>Hi</h1>`))
	}))
	defer srv.Close()

	e := NewHTTPEngine(DefaultOptions())
	defer e.Cleanup(context.Background())

	ctx := context.Background()
	if _, err := e.FetchContent(ctx, FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	markdown := true
	result, err := e.FetchContent(ctx, FetchRequest{URL: srv.URL, Markdown: &markdown})
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if result.IsFromCache {
		t.Errorf("expected a contentType mismatch to force a refetch, not a cache hit")
	}
	if hits != 2 {
		t.Errorf("expected 2 HTTP requests after the contentType mismatch, got %d", hits)
	}
}

func TestHTTPEngineZeroCacheTTLNeverCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><head><title>T</title></head><body>x</body></html>`))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.CacheTTL = 0
	e := NewHTTPEngine(opts)
	defer e.Cleanup(context.Background())

	ctx := context.Background()
	if _, err := e.FetchContent(ctx, FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := e.FetchContent(ctx, FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if hits != 2 {
		t.Errorf("expected cacheTTL=0 to disable caching entirely, got %d hits", hits)
	}
}

func TestHTTPEngineFetchHTMLForcesNoMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<h1>Hi</h1>`))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.CacheTTL = time.Minute
	e := NewHTTPEngine(opts)
	defer e.Cleanup(context.Background())

	markdown := true
	result, err := e.FetchHTML(context.Background(), FetchRequest{URL: srv.URL, Markdown: &markdown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ContentType != ContentTypeHTML {
		t.Errorf("expected FetchHTML to force contentType html, got %q", result.ContentType)
	}
}
