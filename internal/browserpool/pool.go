// Package browserpool manages a bounded pool of headless Chrome processes,
// each hosting several pages, with health checks and age/idle-based
// retirement. A Pool belongs to the engine that constructs it — there is no
// process-wide singleton, so two engines in the same process never share
// browser state.
package browserpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/errgroup"

	"fetchkit/internal/ferrors"
	"fetchkit/internal/logging"
)

// ErrPoolUnavailable is returned by Acquire when every instance is at
// capacity and MaxBrowsers has already been reached.
var ErrPoolUnavailable = ferrors.New(ferrors.ErrPoolUnavailable, "browser pool: no instance available")

// Config controls pool sizing, instance lifetime, and page-level filtering.
type Config struct {
	MaxBrowsers          int
	MaxPagesPerContext   int
	MaxBrowserAge        time.Duration
	MaxIdleTime          time.Duration
	HealthCheckInterval  time.Duration
	Headless             bool
	UserAgent            string
	BlockedDomains       []string
	BlockedResourceTypes []string
	FastMode             bool
	Logger               logging.Logger
}

func (c *Config) setDefaults() {
	if c.MaxBrowsers <= 0 {
		c.MaxBrowsers = 2
	}
	if c.MaxPagesPerContext <= 0 {
		c.MaxPagesPerContext = 6
	}
	if c.MaxBrowserAge <= 0 {
		c.MaxBrowserAge = 20 * time.Minute
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = 5 * time.Minute
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 60 * time.Second
	}
}

// Metrics is a point-in-time snapshot of pool occupancy.
type Metrics struct {
	Instances     []InstanceMetrics
	TotalPages    int
	BrowsersAlive int
	PagesServed   int64
}

// Pool hands out pages from a small set of managed Chrome processes. All
// acquisition is serialized through acquireMu so instance selection and page
// creation happen as one atomic step — two callers never both believe they
// won the same free slot.
type Pool struct {
	cfg      Config
	filter   *ResourceFilter
	launcher *launcher.Launcher

	acquireMu sync.Mutex
	instMu    sync.RWMutex
	instances []*instance
	nextID    int

	pagesServed int64

	stopHealth    chan struct{}
	healthDone    chan struct{}
	healthTrigger chan struct{}
	closeOnce     sync.Once
}

// New creates a Pool. The pool launches browsers lazily on first Acquire;
// call Start to begin the background health-check loop.
func New(cfg Config) *Pool {
	cfg.setDefaults()

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox")

	return &Pool{
		cfg:           cfg,
		filter:        NewResourceFilter(cfg.BlockedDomains, cfg.BlockedResourceTypes, cfg.FastMode),
		launcher:      l,
		healthTrigger: make(chan struct{}, 1),
	}
}

// Start launches the background health-check loop. Safe to call once.
func (p *Pool) Start() {
	if p.stopHealth != nil {
		return
	}
	p.stopHealth = make(chan struct{})
	p.healthDone = make(chan struct{})
	go p.healthLoop()
}

// triggerHealthCheck nudges the health loop to run retireStale immediately
// instead of waiting for the next tick. Safe to call from any goroutine,
// including before Start — one signal is held in the channel's buffer until
// the loop runs. Non-blocking: a health pass already pending coalesces with
// this one.
func (p *Pool) triggerHealthCheck() {
	select {
	case p.healthTrigger <- struct{}{}:
	default:
	}
}

// Acquire returns a page from an existing instance with spare capacity, or
// launches a new instance if under MaxBrowsers. Returns an error carrying
// ERR_POOL_UNAVAILABLE semantics (the ErrPoolUnavailable sentinel) when the
// pool is saturated.
func (p *Pool) Acquire(ctx context.Context) (*Page, error) {
	p.acquireMu.Lock()
	defer p.acquireMu.Unlock()

	if inst := p.pickInstance(); inst != nil {
		page, err := inst.checkout(p.filter)
		if err != nil {
			return nil, fmt.Errorf("checkout page: %w", err)
		}
		p.instMu.Lock()
		p.pagesServed++
		p.instMu.Unlock()
		p.log().Debug("acquired page from existing browser instance", map[string]interface{}{
			"instance_id": inst.id,
			"open_pages":  inst.pageCount(),
		})
		return page, nil
	}

	p.instMu.RLock()
	count := len(p.instances)
	p.instMu.RUnlock()
	if count >= p.cfg.MaxBrowsers {
		return nil, ErrPoolUnavailable
	}

	inst, err := p.launchInstance(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser instance: %w", err)
	}

	page, err := inst.checkout(p.filter)
	if err != nil {
		_ = inst.retire()
		return nil, fmt.Errorf("checkout page on new instance: %w", err)
	}
	p.instMu.Lock()
	p.pagesServed++
	p.instMu.Unlock()
	return page, nil
}

// pickInstance returns the healthy instance with the fewest open pages below
// maxPagesPerContext, or nil if none qualifies. An instance marked unhealthy
// — by a page-creation failure, a navigation failure, a crash event, or a
// detected disconnect — is never returned, even if it has spare capacity.
// Caller must hold acquireMu.
func (p *Pool) pickInstance() *instance {
	p.instMu.RLock()
	defer p.instMu.RUnlock()

	var best *instance
	bestLoad := p.cfg.MaxPagesPerContext + 1
	for _, inst := range p.instances {
		if inst.isUnhealthy() {
			continue
		}
		if !inst.hasCapacity(p.cfg.MaxPagesPerContext) {
			continue
		}
		load := inst.pageCount()
		if load < bestLoad {
			best = inst
			bestLoad = load
		}
	}
	return best
}

func (p *Pool) launchInstance(ctx context.Context) (*instance, error) {
	url, err := p.launcher.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	p.instMu.Lock()
	p.nextID++
	id := fmt.Sprintf("browser-%d", p.nextID)
	inst := newInstance(id, browser, p.cfg.UserAgent, p.triggerHealthCheck)
	p.instances = append(p.instances, inst)
	p.instMu.Unlock()

	p.log().Info("launched browser instance", map[string]interface{}{"instance_id": id})
	return inst, nil
}

// Release returns a page to its owning instance. If that instance has been
// marked unhealthy, a health pass is requested so it can be retired now that
// the page is no longer checked out.
func (p *Pool) Release(page *Page) {
	if page == nil || page.inst == nil {
		return
	}
	page.inst.release(page)
	if page.inst.isUnhealthy() {
		p.triggerHealthCheck()
	}
}

// ReportUnhealthy marks the owning instance unhealthy synchronously, so it
// is excluded from the very next Acquire, and nudges the health loop to
// retire it without waiting for the next tick.
func (p *Pool) ReportUnhealthy(page *Page) {
	if page == nil || page.inst == nil {
		return
	}
	page.inst.recordError()
}

func (p *Pool) healthLoop() {
	defer close(p.healthDone)
	ticker := time.NewTicker(p.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopHealth:
			return
		case <-ticker.C:
			p.retireStale()
		case <-p.healthTrigger:
			p.retireStale()
		}
	}
}

// retireStale closes instances that are too old, idle past the configured
// bound, or have accumulated repeated errors, as long as they currently
// hold no checked-out pages — an instance mid-use is never yanked from
// under a caller.
func (p *Pool) retireStale() {
	const maxErrorStreak = 3

	p.instMu.Lock()
	// A single-instance pool never retires its only instance for idleness:
	// doing so would leave the pool with zero capacity until the next
	// Acquire pays for a fresh launch. Age- and error-based retirement still
	// apply regardless of pool size.
	allowIdleRetirement := p.cfg.MaxBrowsers > 1

	var keep []*instance
	var toRetire []*instance
	for _, inst := range p.instances {
		m := inst.snapshot()
		stale := m.Unhealthy ||
			m.Age > p.cfg.MaxBrowserAge ||
			(allowIdleRetirement && m.IdleFor > p.cfg.MaxIdleTime) ||
			m.ErrorStreak >= maxErrorStreak
		if stale && m.OpenPages == 0 {
			toRetire = append(toRetire, inst)
			continue
		}
		keep = append(keep, inst)
	}
	p.instances = keep
	p.instMu.Unlock()

	for _, inst := range toRetire {
		p.log().Info("retiring browser instance", map[string]interface{}{"instance_id": inst.id})
		if err := inst.retire(); err != nil {
			p.log().Warn("error closing retired browser instance", map[string]interface{}{
				"instance_id": inst.id,
				"error":       err.Error(),
			})
		}
	}
}

// GetMetrics returns a snapshot of current pool occupancy.
func (p *Pool) GetMetrics() Metrics {
	p.instMu.RLock()
	defer p.instMu.RUnlock()

	m := Metrics{BrowsersAlive: len(p.instances), PagesServed: p.pagesServed}
	for _, inst := range p.instances {
		im := inst.snapshot()
		m.Instances = append(m.Instances, im)
		m.TotalPages += im.OpenPages
	}
	return m
}

// Shutdown stops the health loop and closes all browser instances
// concurrently, bounded to at most 4 in flight. The close calls do not
// observe ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	var shutdownErr error
	p.closeOnce.Do(func() {
		if p.stopHealth != nil {
			close(p.stopHealth)
			<-p.healthDone
		}

		p.instMu.Lock()
		instances := p.instances
		p.instances = nil
		p.instMu.Unlock()

		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, inst := range instances {
			inst := inst
			g.Go(func() error {
				return inst.retire()
			})
		}
		shutdownErr = g.Wait()

		if err := p.launcher.Cleanup(); err != nil {
			p.log().Warn("launcher cleanup error", map[string]interface{}{"error": err.Error()})
		}
	})
	return shutdownErr
}

func (p *Pool) log() logging.Logger {
	if p.cfg.Logger != nil {
		return p.cfg.Logger
	}
	return logging.DefaultLogger()
}
