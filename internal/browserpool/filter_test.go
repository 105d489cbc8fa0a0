package browserpool

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestResourceFilterBlocksByKind(t *testing.T) {
	f := NewResourceFilter(nil, []string{"image", "font"}, false)

	if !f.shouldBlock("https://cdn.example.com/pic.png", proto.NetworkResourceTypeImage) {
		t.Errorf("expected image requests to be blocked")
	}
	if f.shouldBlock("https://example.com/doc.html", proto.NetworkResourceTypeDocument) {
		t.Errorf("expected document requests to pass through")
	}
}

func TestResourceFilterFastModeUnionsExtraKinds(t *testing.T) {
	f := NewResourceFilter(nil, nil, true)

	for _, kind := range []proto.NetworkResourceType{
		proto.NetworkResourceTypeImage,
		proto.NetworkResourceTypeFont,
		proto.NetworkResourceTypeStylesheet,
		proto.NetworkResourceTypeMedia,
	} {
		if !f.shouldBlock("https://example.com/asset", kind) {
			t.Errorf("expected fastMode to block resource kind %v", kind)
		}
	}
	if f.shouldBlock("https://example.com/doc.html", proto.NetworkResourceTypeDocument) {
		t.Errorf("expected document requests to still pass through under fastMode")
	}
}

func TestResourceFilterBlocksByDomain(t *testing.T) {
	f := NewResourceFilter([]string{"ads.example.com"}, nil, false)

	if !f.shouldBlock("https://ads.example.com/tracker.js", proto.NetworkResourceTypeScript) {
		t.Errorf("expected blocked-domain request to be blocked")
	}
	if f.shouldBlock("https://example.com/app.js", proto.NetworkResourceTypeScript) {
		t.Errorf("expected non-blocked-domain request to pass through")
	}
}

func TestResourceFilterUnparsableURLNeverBlocks(t *testing.T) {
	f := NewResourceFilter([]string{"example.com"}, nil, false)

	if f.shouldBlock("://not a url", proto.NetworkResourceTypeScript) {
		t.Errorf("expected a URL-parse failure to never block")
	}
}
