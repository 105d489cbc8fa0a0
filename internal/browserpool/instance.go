package browserpool

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// instance wraps one launched browser process and the pages currently
// checked out of it. A generation counter is bumped on retirement so that
// a Page handed out before retirement leaves the instance's counters alone
// on Release; the page itself is still closed.
type instance struct {
	id          string
	browser     *rod.Browser
	userAgent   string
	createdAt   time.Time
	generation  uint64
	onUnhealthy func()

	mu           sync.Mutex
	openPages    int
	lastUsedAt   time.Time
	errorStreak  int
	pagesCreated int64
	unhealthy    bool
}

// Page is a checked-out page handle. Release must be called exactly once
// regardless of fetch outcome.
type Page struct {
	*rod.Page
	inst       *instance
	generation uint64
	stopHijack func()
}

func newInstance(id string, browser *rod.Browser, userAgent string, onUnhealthy func()) *instance {
	now := time.Now()
	inst := &instance{
		id:          id,
		browser:     browser,
		userAgent:   userAgent,
		createdAt:   now,
		lastUsedAt:  now,
		onUnhealthy: onUnhealthy,
	}
	inst.watchForCrashOrDisconnect()
	return inst
}

// watchForCrashOrDisconnect subscribes to the browser's target-crashed event
// and runs for as long as the browser's CDP connection stays open. The wait
// loop returns both when Chrome reports a crashed target and when the
// connection is torn down for any other reason (an ordinary Close included),
// so it doubles as disconnect detection without a second subscription.
func (i *instance) watchForCrashOrDisconnect() {
	if i.browser == nil {
		return
	}
	go func() {
		crashed := false
		i.browser.EachEvent(func(e *proto.TargetTargetCrashed) bool {
			crashed = true
			return true
		})()

		i.mu.Lock()
		already := i.unhealthy
		i.unhealthy = true
		if crashed {
			i.errorStreak++
		}
		i.mu.Unlock()

		if !already && i.onUnhealthy != nil {
			i.onUnhealthy()
		}
	}()
}

// age reports how long this browser process has been alive.
func (i *instance) age() time.Duration {
	return time.Since(i.createdAt)
}

// idleFor reports how long since the last page was handed out or released.
func (i *instance) idleFor() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return time.Since(i.lastUsedAt)
}

// hasCapacity reports whether the instance can accept another page under
// maxPages. It does not touch lastUsedAt.
func (i *instance) hasCapacity(maxPages int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.openPages < maxPages
}

func (i *instance) pageCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.openPages
}

// isUnhealthy reports whether this instance has been marked unhealthy by a
// page-creation failure, a navigation failure, a page-crash event, or the
// browser's own crash/disconnect watcher. An unhealthy instance is never
// handed out for a new page acquisition.
func (i *instance) isUnhealthy() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.unhealthy
}

// checkout allocates a new rod.Page against this instance and wraps it,
// incrementing the open-page count. The caller must already hold the pool's
// acquisition lock, so two goroutines never race past hasCapacity.
func (i *instance) checkout(filter *ResourceFilter) (*Page, error) {
	page, err := newStealthPage(i.browser, i.userAgent)
	if err != nil {
		i.mu.Lock()
		i.errorStreak++
		i.unhealthy = true
		i.mu.Unlock()
		if i.onUnhealthy != nil {
			i.onUnhealthy()
		}
		return nil, fmt.Errorf("create page: %w", err)
	}

	var stop func()
	if filter != nil {
		stop = filter.Install(page)
	}

	i.mu.Lock()
	i.openPages++
	i.pagesCreated++
	i.lastUsedAt = time.Now()
	i.errorStreak = 0
	gen := i.generation
	i.mu.Unlock()

	p := &Page{Page: page, inst: i, generation: gen, stopHijack: stop}
	i.watchPageForCrash(p)
	return p, nil
}

// watchPageForCrash subscribes to the page's crash event. The goroutine
// exits on its own once the page closes normally, since closing a page
// tears down its event stream the same way a crash does; the crashed flag
// distinguishes the two so an ordinary release never marks the instance
// unhealthy.
func (i *instance) watchPageForCrash(p *Page) {
	go func() {
		crashed := false
		p.Page.EachEvent(func(e *proto.InspectorTargetCrashed) bool {
			crashed = true
			return true
		})()
		if !crashed {
			return
		}

		i.mu.Lock()
		i.errorStreak++
		was := i.unhealthy
		i.unhealthy = true
		i.mu.Unlock()

		if !was && i.onUnhealthy != nil {
			i.onUnhealthy()
		}
	}()
}

// release returns a page to its instance. A call against a retired
// (generation-mismatched) instance is a no-op other than closing the page.
func (i *instance) release(p *Page) {
	if p.stopHijack != nil {
		p.stopHijack()
	}
	closeErr := p.Page.Close()

	i.mu.Lock()
	defer i.mu.Unlock()
	if closeErr != nil {
		i.unhealthy = true
	}
	if p.generation != i.generation {
		return
	}
	if i.openPages > 0 {
		i.openPages--
	}
	i.lastUsedAt = time.Now()
}

// retire bumps the generation so outstanding pages release as no-ops, then
// closes the underlying browser process. Safe to call once per instance.
func (i *instance) retire() error {
	i.mu.Lock()
	i.generation++
	i.mu.Unlock()
	return i.browser.Close()
}

// recordError increments the consecutive-error streak and marks the
// instance unhealthy immediately — a single navigation failure is enough to
// exclude it from the next acquisition rather than waiting for a streak
// threshold or the next health tick.
func (i *instance) recordError() int {
	i.mu.Lock()
	i.errorStreak++
	i.unhealthy = true
	streak := i.errorStreak
	i.mu.Unlock()

	if i.onUnhealthy != nil {
		i.onUnhealthy()
	}
	return streak
}

func (i *instance) resetErrorStreak() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.errorStreak = 0
}

func (i *instance) snapshot() InstanceMetrics {
	i.mu.Lock()
	defer i.mu.Unlock()
	return InstanceMetrics{
		ID:           i.id,
		CreatedAt:    i.createdAt,
		Age:          time.Since(i.createdAt),
		IdleFor:      time.Since(i.lastUsedAt),
		OpenPages:    i.openPages,
		PagesCreated: i.pagesCreated,
		ErrorStreak:  i.errorStreak,
		Unhealthy:    i.unhealthy,
	}
}

// InstanceMetrics is a point-in-time snapshot of one pooled browser process.
type InstanceMetrics struct {
	ID           string
	CreatedAt    time.Time
	Age          time.Duration
	IdleFor      time.Duration
	OpenPages    int
	PagesCreated int64
	ErrorStreak  int
	Unhealthy    bool
}
