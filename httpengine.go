package fetchkit

import (
	"context"

	"fetchkit/internal/cache"
	"fetchkit/internal/httpfetch"
	"fetchkit/internal/logging"
)

// HTTPEngine is the lightweight single-shot HTTP path: no browser process
// is ever launched. GetMetrics always reports an empty pool.
type HTTPEngine struct {
	opts      Options
	fetcher   *httpfetch.Fetcher
	cache     *cache.Cache
	converter *markdownConverter
	logger    logging.Logger
}

// NewHTTPEngine builds an HTTPEngine with its own cache and HTTP client —
// no state is shared with any other engine instance.
func NewHTTPEngine(opts Options) *HTTPEngine {
	return newHTTPEngine(opts, cache.New(opts.withDefaults().CacheTTL))
}

// newHTTPEngine builds an HTTPEngine against a caller-supplied cache, so a
// HybridRouter can hand its HTTPEngine and BrowserEngine the same instance
// instead of each keeping a private, mutually-invisible one.
func newHTTPEngine(opts Options, sharedCache *cache.Cache) *HTTPEngine {
	opts = opts.withDefaults()

	proxy := ""
	if opts.Proxy != nil {
		proxy = opts.Proxy.Server
	}

	return &HTTPEngine{
		opts:      opts,
		fetcher:   httpfetch.New(httpfetch.Config{Proxy: proxy}),
		cache:     sharedCache,
		converter: newMarkdownConverter(),
		logger:    opts.Logger,
	}
}

// FetchHTML is FetchContent with req.Markdown forced false.
func (e *HTTPEngine) FetchHTML(ctx context.Context, req FetchRequest) (FetchResult, error) {
	noMarkdown := false
	req.Markdown = &noMarkdown
	return e.FetchContent(ctx, req)
}

// FetchContent performs a cache lookup, then a single HTTP GET, optionally
// converting the result to Markdown.
func (e *HTTPEngine) FetchContent(ctx context.Context, req FetchRequest) (FetchResult, error) {
	wantMarkdown := req.markdown(false)
	wantType := ContentTypeHTML
	if wantMarkdown {
		wantType = ContentTypeMarkdown
	}

	if entry, ok := e.cache.Get(req.URL); ok {
		if result, ok := entry.Result.(FetchResult); ok {
			if result.ContentType == wantType {
				return result.withCacheFlag(true), nil
			}
			e.cache.Invalidate(req.URL)
		}
	}

	httpResult, err := e.fetcher.Fetch(ctx, req.URL, e.opts.mergeHeaders(req.Headers))
	if err != nil {
		return FetchResult{}, err
	}

	content := httpResult.Body
	if wantMarkdown {
		content, err = e.converter.convert(httpResult.Body, httpResult.FinalURL)
		if err != nil {
			return FetchResult{}, err
		}
	}

	result := FetchResult{
		Content:     content,
		ContentType: wantType,
		Title:       httpResult.Title,
		FinalURL:    httpResult.FinalURL,
		StatusCode:  httpResult.StatusCode,
		IsFromCache: false,
	}
	e.cache.Put(req.URL, result)
	return result, nil
}

// GetMetrics always reports an empty pool: the HTTP engine never launches
// a browser.
func (e *HTTPEngine) GetMetrics() PoolMetrics {
	return PoolMetrics{}
}

// Cleanup releases the HTTP client's idle connections.
func (e *HTTPEngine) Cleanup(ctx context.Context) error {
	e.fetcher.Close()
	return nil
}
