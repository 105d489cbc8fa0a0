package browserpool

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ResourceFilter decides which outgoing sub-requests a page should abort,
// by blocked domain substring or by resource kind.
type ResourceFilter struct {
	blockedDomains []string
	blockedKinds   map[proto.NetworkResourceType]struct{}
}

// fastModeExtraKinds is unioned into the blocked kind set when fastMode is
// active, trading media-heavy-page correctness for latency.
var fastModeExtraKinds = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeStylesheet,
	proto.NetworkResourceTypeMedia,
}

// NewResourceFilter builds a filter from configured domain substrings and
// resource kind names (case-insensitive, matching go-rod's
// proto.NetworkResourceType* constants: Image, Font, Media, Stylesheet,
// WebSocket, Script, ...).
func NewResourceFilter(blockedDomains, blockedKinds []string, fastMode bool) *ResourceFilter {
	kinds := make(map[proto.NetworkResourceType]struct{}, len(blockedKinds))
	for _, k := range blockedKinds {
		kind := proto.NetworkResourceType(strings.Title(strings.ToLower(k)))
		// strings.Title alone does not reproduce these mixed-case names.
		for _, known := range []string{"WebSocket", "XHR", "TextTrack", "EventSource", "SignedExchange", "CSPViolationReport"} {
			if strings.EqualFold(known, k) {
				kind = proto.NetworkResourceType(known)
			}
		}
		kinds[kind] = struct{}{}
	}
	if fastMode {
		for _, k := range fastModeExtraKinds {
			kinds[k] = struct{}{}
		}
	}

	domains := make([]string, len(blockedDomains))
	for i, d := range blockedDomains {
		domains[i] = strings.ToLower(d)
	}

	return &ResourceFilter{blockedDomains: domains, blockedKinds: kinds}
}

// shouldBlock reports whether a sub-request to rawURL of the given resource
// kind should be aborted. A URL-parse failure never blocks — it continues.
func (f *ResourceFilter) shouldBlock(rawURL string, kind proto.NetworkResourceType) bool {
	if _, blocked := f.blockedKinds[kind]; blocked {
		return true
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range f.blockedDomains {
		if domain != "" && strings.Contains(host, domain) {
			return true
		}
	}
	return false
}

// Install attaches the filter to page via a hijack router and starts it in
// its own goroutine (router.Run blocks). The caller must call the returned
// stop function when the page is released. A route-setup error is swallowed
// — filter failure must never fail the fetch itself.
func (f *ResourceFilter) Install(page *rod.Page) (stop func()) {
	router := page.HijackRequests()

	err := router.Add("*", "", func(ctx *rod.Hijack) {
		if f.shouldBlock(ctx.Request.URL().String(), ctx.Request.Type()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return func() {}
	}

	go router.Run()

	return func() {
		_ = router.Stop()
	}
}
