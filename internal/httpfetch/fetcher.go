// Package httpfetch implements the cheap, single-shot HTTP GET path: a
// Chrome-fingerprinted TLS handshake, a browser-like header profile, and
// regex-based title/challenge detection, without ever constructing a
// browser.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fetchkit/internal/ferrors"
)

const (
	defaultTimeout = 30 * time.Second
	maxRedirects   = 5
	maxBodyBytes   = 10 * 1024 * 1024
)

// Result is the HTTP path's view of a fetched document, before the
// orchestrator maps it onto the public FetchResult.
type Result struct {
	Body       string
	Title      string
	FinalURL   string
	StatusCode int
	Headers    http.Header
}

// Config controls proxy routing and the declared request timeout.
type Config struct {
	Proxy   string
	Timeout time.Duration
}

// Fetcher performs single-shot GETs with a Chrome TLS fingerprint.
type Fetcher struct {
	cfg    Config
	client *http.Client
}

// New builds a Fetcher. A fresh http.Client is constructed per Fetcher so
// idle-connection pools are scoped to one engine instance, matching the
// "no process-wide shared state" rule applied to the rest of the package.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, cfg.Proxy)
		},
	}
	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil &&
			(proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Fetcher{cfg: cfg, client: client}
}

// Close releases idle connections held by the underlying client.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Fetch performs the GET, applying a browser-like header profile merged
// with the caller-supplied headers (caller headers win on conflict).
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, headers map[string]string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrHTTPFallbackFailed, "build request failed", err)
	}
	applyHeaderProfile(req, headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrHTTPFallbackFailed, "request failed", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrHTTPFallbackFailed, "read body failed", err)
	}
	body := string(bodyBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ferrors.WithStatus(ferrors.ErrHTTPError, fmt.Sprintf("http %d for %s", resp.StatusCode, targetURL), resp.StatusCode)
	}

	if isChallengePage(body) {
		return nil, ferrors.New(ferrors.ErrChallengePage, "challenge page detected")
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		Body:       body,
		Title:      extractTitle(body),
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}, nil
}

func applyHeaderProfile(req *http.Request, overrides map[string]string) {
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	for k, v := range overrides {
		req.Header.Set(k, v)
	}
}

// IsHTMLContentType reports whether resp declares an HTML-ish content type.
func IsHTMLContentType(headers http.Header) bool {
	ct := strings.ToLower(headers.Get("Content-Type"))
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml") || ct == ""
}

// LooksLikeSPAShell exposes the SPA-shell heuristic for the hybrid router.
func LooksLikeSPAShell(body string) bool {
	return looksLikeSPAShell(body)
}
