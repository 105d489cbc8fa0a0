package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fetchkit/internal/ferrors"
)

func TestFetchCheapSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>T</title></head><body>x</body></html>`))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	result, err := f.Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "T" {
		t.Errorf("expected title %q, got %q", "T", result.Title)
	}
	if result.StatusCode != 200 {
		t.Errorf("expected status 200, got %d", result.StatusCode)
	}
}

func TestFetchChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Checking your browser before accessing. Cloudflare</body></html>`))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, nil)
	fe, ok := ferrors.AsFetchError(err)
	if !ok {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if fe.Code != ferrors.ErrChallengePage {
		t.Errorf("expected code %q, got %q", ferrors.ErrChallengePage, fe.Code)
	}
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, nil)
	fe, ok := ferrors.AsFetchError(err)
	if !ok {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if fe.Code != ferrors.ErrHTTPError {
		t.Errorf("expected code %q, got %q", ferrors.ErrHTTPError, fe.Code)
	}
	if fe.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", fe.StatusCode)
	}
}

func TestFetchHeaderOverridesWinOverProfile(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><head><title>ok</title></head><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL, map[string]string{"User-Agent": "custom-agent/1.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "custom-agent/1.0" {
		t.Errorf("expected override header to win, got %q", gotUA)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := f.Fetch(ctx, srv.URL, nil); err == nil {
		t.Fatalf("expected context deadline to abort the fetch")
	}
}
