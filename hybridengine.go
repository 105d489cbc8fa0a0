package fetchkit

import (
	"context"
	"regexp"
	"strings"

	"fetchkit/internal/cache"
	"fetchkit/internal/httpfetch"
	"fetchkit/internal/logging"
)

// HybridRouter routes each call between an HTTPEngine and a BrowserEngine:
// pattern-forced browser dispatch, SPA-shell detection on an otherwise
// successful HTTP response, and escalation on HTTP failure. Both sub-engines
// share one cache, so a result the browser path stores (e.g. after a
// challenge-page escalation) satisfies a later identical call that would
// otherwise have gone through the HTTP path first.
type HybridRouter struct {
	opts      Options
	http      *HTTPEngine
	browser   *BrowserEngine
	converter *markdownConverter
	logger    logging.Logger

	forcedPatterns []*regexp.Regexp
	forcedPlain    []string
}

// NewHybridRouter builds a HybridRouter with its own HTTPEngine and
// BrowserEngine, sharing a single cache between them.
func NewHybridRouter(opts Options) *HybridRouter {
	opts = opts.withDefaults()

	var patterns []*regexp.Regexp
	var plain []string
	for _, p := range opts.PlaywrightOnlyPatterns {
		if re, err := regexp.Compile(p); err == nil {
			patterns = append(patterns, re)
		} else {
			plain = append(plain, p)
		}
	}

	shared := cache.New(opts.CacheTTL)

	return &HybridRouter{
		opts:           opts,
		http:           newHTTPEngine(opts, shared),
		browser:        newBrowserEngine(opts, shared),
		converter:      newMarkdownConverter(),
		logger:         opts.Logger,
		forcedPatterns: patterns,
		forcedPlain:    plain,
	}
}

// FetchHTML is FetchContent with req.Markdown forced false.
func (r *HybridRouter) FetchHTML(ctx context.Context, req FetchRequest) (FetchResult, error) {
	noMarkdown := false
	req.Markdown = &noMarkdown
	return r.FetchContent(ctx, req)
}

// FetchContent applies forced-pattern routing, then tries HTTP (unless
// UseHTTPFallback is off), escalating to the browser path on failure or on a
// detected SPA shell. Every sub-fetch is made for raw HTML regardless of
// req.Markdown, so the SPA-shell heuristic always runs against real
// content instead of an already-converted (and potentially near-empty)
// Markdown body; Markdown conversion happens once, here, after the routing
// decision is final.
func (r *HybridRouter) FetchContent(ctx context.Context, req FetchRequest) (FetchResult, error) {
	htmlReq := req
	noMarkdown := false
	htmlReq.Markdown = &noMarkdown

	result, err := r.fetchHTML(ctx, req, htmlReq)
	if err != nil {
		return FetchResult{}, err
	}

	if req.markdown(false) {
		return r.toMarkdown(result)
	}
	return result, nil
}

// fetchHTML runs the routing decision and always returns an HTML result.
// req carries the caller's original flags (used for isForced/spaMode);
// htmlReq is the same request with Markdown forced off, passed to every
// sub-engine call.
func (r *HybridRouter) fetchHTML(ctx context.Context, req, htmlReq FetchRequest) (FetchResult, error) {
	if r.isForced(req.URL) {
		return r.browser.FetchContent(ctx, htmlReq)
	}

	if !r.opts.UseHTTPFallback {
		return r.browser.FetchContent(ctx, htmlReq)
	}

	spaMode := req.spaMode(r.opts.SPAMode)

	result, err := r.http.FetchContent(ctx, htmlReq)
	if err != nil {
		r.logger.Debug("http path failed, escalating to browser", map[string]interface{}{
			"url":   req.URL,
			"error": err.Error(),
		})
		return r.browser.FetchContent(ctx, htmlReq)
	}

	if spaMode && httpfetch.LooksLikeSPAShell(result.Content) {
		r.logger.Debug("spa shell detected, escalating to browser", map[string]interface{}{"url": req.URL})
		// The HTTP engine has just cached the shell in the shared cache;
		// drop it so the browser engine fetches instead of returning it.
		r.browser.cache.Invalidate(req.URL)
		return r.browser.FetchContent(ctx, htmlReq)
	}

	return result, nil
}

// toMarkdown converts an HTML result to the router's final Markdown
// response, preserving the cache provenance of the underlying HTML fetch.
func (r *HybridRouter) toMarkdown(result FetchResult) (FetchResult, error) {
	md, err := r.converter.convert(result.Content, result.FinalURL)
	if err != nil {
		return FetchResult{}, err
	}
	result.Content = md
	result.ContentType = ContentTypeMarkdown
	return result, nil
}

func (r *HybridRouter) isForced(url string) bool {
	for _, re := range r.forcedPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	for _, s := range r.forcedPlain {
		if strings.Contains(url, s) {
			return true
		}
	}
	return false
}

// GetMetrics reports the browser engine's pool metrics; the HTTP engine
// never contributes browser instances.
func (r *HybridRouter) GetMetrics() PoolMetrics {
	return r.browser.GetMetrics()
}

// Cleanup tears down both underlying engines.
func (r *HybridRouter) Cleanup(ctx context.Context) error {
	httpErr := r.http.Cleanup(ctx)
	browserErr := r.browser.Cleanup(ctx)
	if browserErr != nil {
		return browserErr
	}
	return httpErr
}
