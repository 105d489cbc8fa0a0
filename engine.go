// Package fetchkit is a URL-to-content fetching library for crawlers,
// scrapers, and content-ingestion pipelines. It offers three composable
// engines — a lightweight HTTP engine, a headless-browser engine, and a
// hybrid engine that routes between them — built around a managed pool of
// long-lived browser instances and a per-request retry/escalation state
// machine.
package fetchkit

import "context"

// Engine is the capability every fetch engine implements: render a URL to
// HTML or (optionally) Markdown, report browser pool metrics, and release
// any held resources. The hybrid router holds its two concrete engines
// purely through this interface.
type Engine interface {
	FetchContent(ctx context.Context, req FetchRequest) (FetchResult, error)
	FetchHTML(ctx context.Context, req FetchRequest) (FetchResult, error)
	GetMetrics() PoolMetrics
	Cleanup(ctx context.Context) error
}

var (
	_ Engine = (*HTTPEngine)(nil)
	_ Engine = (*BrowserEngine)(nil)
	_ Engine = (*HybridRouter)(nil)
)
