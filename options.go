package fetchkit

import (
	"time"

	"fetchkit/internal/logging"
)

// Options configures an engine for its whole lifetime. Per-call overrides
// live on FetchRequest.
type Options struct {
	ConcurrentPages int
	MaxRetries      int
	RetryDelay      time.Duration
	CacheTTL        time.Duration

	UseHTTPFallback       bool
	UseHeadedModeFallback bool
	UseHeadedMode         bool
	DefaultFastMode       bool
	SimulateHumanBehavior bool
	SPAMode               bool
	SPARenderDelay        time.Duration

	MaxBrowsers          int
	MaxPagesPerContext   int
	MaxBrowserAge        time.Duration
	MaxIdleTime          time.Duration
	HealthCheckInterval  time.Duration
	PoolBlockedDomains   []string
	PoolBlockedResources []string

	Proxy                  *Proxy
	PlaywrightOnlyPatterns []string
	Headers                map[string]string

	Logger logging.Logger
}

// mergeHeaders combines engine-level headers with per-call overrides,
// where the per-call headers win on conflict.
func (o Options) mergeHeaders(requestHeaders map[string]string) map[string]string {
	if len(o.Headers) == 0 {
		return requestHeaders
	}
	merged := make(map[string]string, len(o.Headers)+len(requestHeaders))
	for k, v := range o.Headers {
		merged[k] = v
	}
	for k, v := range requestHeaders {
		merged[k] = v
	}
	return merged
}

// DefaultOptions returns the option set described in the spec's defaults
// table.
func DefaultOptions() Options {
	return Options{
		ConcurrentPages: 3,
		MaxRetries:      3,
		RetryDelay:      5 * time.Second,
		CacheTTL:        15 * time.Minute,

		UseHTTPFallback:       true,
		UseHeadedModeFallback: false,
		UseHeadedMode:         false,
		DefaultFastMode:       true,
		SimulateHumanBehavior: true,

		MaxBrowsers:         2,
		MaxPagesPerContext:  6,
		MaxBrowserAge:       20 * time.Minute,
		MaxIdleTime:         5 * time.Minute,
		HealthCheckInterval: 60 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConcurrentPages <= 0 {
		o.ConcurrentPages = d.ConcurrentPages
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	// CacheTTL is left as-is: the zero value means "never store", matching
	// the documented boundary behavior. Callers who want the 15-minute
	// default should start from DefaultOptions().
	if o.MaxBrowsers <= 0 {
		o.MaxBrowsers = d.MaxBrowsers
	}
	if o.MaxPagesPerContext <= 0 {
		o.MaxPagesPerContext = d.MaxPagesPerContext
	}
	if o.MaxBrowserAge <= 0 {
		o.MaxBrowserAge = d.MaxBrowserAge
	}
	if o.MaxIdleTime <= 0 {
		o.MaxIdleTime = d.MaxIdleTime
	}
	if o.HealthCheckInterval <= 0 {
		o.HealthCheckInterval = d.HealthCheckInterval
	}
	if o.Logger == nil {
		o.Logger = logging.DefaultLogger()
	}
	return o
}
