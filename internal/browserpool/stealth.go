package browserpool

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// newStealthPage creates a page on browser with go-rod/stealth's evasion
// script injected, then sets a realistic viewport and UA. Falls back to a
// plain page if stealth injection itself fails — a degraded fingerprint is
// better than no page at all.
func newStealthPage(browser *rod.Browser, userAgent string) (*rod.Page, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		page, err = browser.Page(proto.PageTargetCreateTarget())
		if err != nil {
			return nil, fmt.Errorf("create page: %w", err)
		}
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: userAgent,
		}); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	return page, nil
}

// simulateHumanBehavior performs two small mouse moves and one scroll on the
// lower half of the viewport, pausing 150-500ms between each. Any simulation
// error is swallowed: this is a best-effort evasion aid, never a required
// step of a successful fetch.
func simulateHumanBehavior(ctx context.Context, page *rod.Page) {
	defer func() { _ = recover() }()

	pause := func() {
		d := time.Duration(150+rand.Intn(350)) * time.Millisecond
		select {
		case <-ctx.Done():
		case <-time.After(d):
		}
	}

	for i := 0; i < 2; i++ {
		x := 200 + rand.Float64()*800
		y := 560 + rand.Float64()*400
		_ = page.Mouse.MoveTo(proto.Point{X: x, Y: y})
		pause()
	}

	_ = page.Mouse.Scroll(0, 300+rand.Float64()*200, 1)
	pause()
}

// SimulateHumanBehavior runs the evasion gesture sequence against a page
// checked out of the pool.
func (p *Page) SimulateHumanBehavior(ctx context.Context) {
	simulateHumanBehavior(ctx, p.Page)
}
