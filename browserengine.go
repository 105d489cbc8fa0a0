package fetchkit

import (
	"context"
	"sync"

	"fetchkit/internal/browserfetch"
	"fetchkit/internal/browserpool"
	"fetchkit/internal/cache"
	"fetchkit/internal/ferrors"
	"fetchkit/internal/hostset"
	"fetchkit/internal/logging"
	"fetchkit/internal/retry"
	"fetchkit/internal/utils"
)

// BrowserEngine drives fetches exclusively through a managed headless
// (or headed) browser pool, with retry, mode escalation, and headed-mode
// fallback. Every BrowserEngine owns its own pool — nothing here is
// process-wide.
type BrowserEngine struct {
	opts      Options
	cache     *cache.Cache
	converter *markdownConverter
	orch      *retry.Orchestrator
	headedSet *hostset.Set
	logger    logging.Logger

	sem chan struct{}

	mu         sync.Mutex
	pool       *browserpool.Pool
	poolHeaded bool
}

// NewBrowserEngine builds a BrowserEngine. The underlying pool is launched
// lazily on first fetch, not at construction time.
func NewBrowserEngine(opts Options) *BrowserEngine {
	return newBrowserEngine(opts, cache.New(opts.withDefaults().CacheTTL))
}

// newBrowserEngine builds a BrowserEngine against a caller-supplied cache,
// so a HybridRouter can hand its HTTPEngine and BrowserEngine the same
// instance instead of each keeping a private, mutually-invisible one.
func newBrowserEngine(opts Options, sharedCache *cache.Cache) *BrowserEngine {
	opts = opts.withDefaults()

	return &BrowserEngine{
		opts:      opts,
		cache:     sharedCache,
		converter: newMarkdownConverter(),
		headedSet: hostset.New(opts.MaxIdleTime * 4),
		logger:    opts.Logger,
		sem:       make(chan struct{}, opts.ConcurrentPages),
		orch: retry.New(retry.Config{
			MaxRetries:            opts.MaxRetries,
			RetryDelay:            opts.RetryDelay,
			DefaultFastMode:       opts.DefaultFastMode,
			UseHeadedModeFallback: opts.UseHeadedModeFallback,
			Logger:                opts.Logger,
		}),
	}
}

// FetchHTML is FetchContent with req.Markdown forced false.
func (e *BrowserEngine) FetchHTML(ctx context.Context, req FetchRequest) (FetchResult, error) {
	noMarkdown := false
	req.Markdown = &noMarkdown
	return e.FetchContent(ctx, req)
}

// FetchContent runs the full retry/escalation state machine against the
// browser pool for a single URL.
func (e *BrowserEngine) FetchContent(ctx context.Context, req FetchRequest) (FetchResult, error) {
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

	host := utils.ExtractDomainFromURL(req.URL)

	poolInit := func(ctx context.Context, headed bool) error {
		return e.ensurePool(ctx, headed)
	}

	headedFallback := func(retryAttempt int) bool {
		return retryAttempt >= 2 || e.headedSet.Contains(host)
	}

	attempt := func(ctx context.Context, fastMode bool) (interface{}, error) {
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		defer func() { <-e.sem }()

		pool := e.currentPool()
		if pool == nil {
			return nil, ferrors.New(ferrors.ErrPoolUnavailable, "browser pool not initialized")
		}

		fetcher := browserfetch.New(pool)
		result, err := fetcher.Fetch(ctx, req.URL, browserfetch.Options{
			FastMode:              fastMode,
			SPAMode:               req.spaMode(e.opts.SPAMode),
			SPARenderDelay:        e.opts.SPARenderDelay,
			SimulateHumanBehavior: e.opts.SimulateHumanBehavior,
			Markdown:              wantMarkdown,
			Headers:               e.opts.mergeHeaders(req.Headers),
		})
		if err != nil {
			e.headedSet.RecordFailure(host)
			return nil, err
		}
		return result, nil
	}

	raw, err := e.orch.Run(ctx, poolInit, attempt, headedFallback)
	if err != nil {
		return FetchResult{}, err
	}
	browserResult := raw.(*browserfetch.Result)

	content := browserResult.Content
	if wantMarkdown {
		content, err = e.converter.convert(browserResult.Content, browserResult.FinalURL)
		if err != nil {
			return FetchResult{}, err
		}
	}

	result := FetchResult{
		Content:     content,
		ContentType: wantType,
		Title:       browserResult.Title,
		FinalURL:    browserResult.FinalURL,
		StatusCode:  browserResult.StatusCode,
		IsFromCache: false,
	}
	e.cache.Put(req.URL, result)
	return result, nil
}

// ensurePool lazily starts the pool, tearing down and rebuilding it if the
// requested headed-mode setting differs from what's currently running.
func (e *BrowserEngine) ensurePool(ctx context.Context, headed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	effectiveHeaded := headed || e.opts.UseHeadedMode
	if e.pool != nil && e.poolHeaded == effectiveHeaded {
		return nil
	}

	if e.pool != nil {
		_ = e.pool.Shutdown(ctx)
		e.pool = nil
	}

	pool := browserpool.New(browserpool.Config{
		MaxBrowsers:          e.opts.MaxBrowsers,
		MaxPagesPerContext:   e.opts.MaxPagesPerContext,
		MaxBrowserAge:        e.opts.MaxBrowserAge,
		MaxIdleTime:          e.opts.MaxIdleTime,
		HealthCheckInterval:  e.opts.HealthCheckInterval,
		Headless:             !headed && !e.opts.UseHeadedMode,
		BlockedDomains:       e.opts.PoolBlockedDomains,
		BlockedResourceTypes: e.opts.PoolBlockedResources,
		FastMode:             e.opts.DefaultFastMode,
		Logger:               e.opts.Logger,
	})
	pool.Start()

	e.pool = pool
	e.poolHeaded = effectiveHeaded
	return nil
}

func (e *BrowserEngine) currentPool() *browserpool.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool
}

// GetMetrics reports the live browser pool's occupancy.
func (e *BrowserEngine) GetMetrics() PoolMetrics {
	pool := e.currentPool()
	if pool == nil {
		return PoolMetrics{}
	}
	m := pool.GetMetrics()

	out := PoolMetrics{BrowsersAlive: m.BrowsersAlive, TotalPages: m.TotalPages, PagesServed: m.PagesServed}
	for _, im := range m.Instances {
		out.Instances = append(out.Instances, BrowserMetrics{
			ID:           im.ID,
			CreatedAt:    im.CreatedAt,
			Age:          im.Age,
			IdleFor:      im.IdleFor,
			ActivePages:  im.OpenPages,
			PagesCreated: im.PagesCreated,
			Errors:       im.ErrorStreak,
			IsHealthy:    !im.Unhealthy,
		})
	}
	return out
}

// Cleanup shuts down the browser pool, if one was ever started. Safe to
// call before any fetch has run.
func (e *BrowserEngine) Cleanup(ctx context.Context) error {
	e.mu.Lock()
	pool := e.pool
	e.pool = nil
	e.mu.Unlock()

	if pool == nil {
		return nil
	}
	return pool.Shutdown(ctx)
}
