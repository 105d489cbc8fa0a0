package fetchkit

import "testing"

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	o := Options{}.withDefaults()
	d := DefaultOptions()

	if o.ConcurrentPages != d.ConcurrentPages {
		t.Errorf("expected ConcurrentPages %d, got %d", d.ConcurrentPages, o.ConcurrentPages)
	}
	if o.MaxRetries != d.MaxRetries {
		t.Errorf("expected MaxRetries %d, got %d", d.MaxRetries, o.MaxRetries)
	}
	if o.MaxBrowsers != d.MaxBrowsers {
		t.Errorf("expected MaxBrowsers %d, got %d", d.MaxBrowsers, o.MaxBrowsers)
	}
	if o.Logger == nil {
		t.Errorf("expected a default logger to be filled in")
	}
}

func TestWithDefaultsPreservesExplicitZeroCacheTTL(t *testing.T) {
	o := Options{CacheTTL: 0}.withDefaults()
	if o.CacheTTL != 0 {
		t.Errorf("expected an explicit zero CacheTTL to survive withDefaults (disables caching), got %v", o.CacheTTL)
	}
}

func TestWithDefaultsPreservesExplicitZeroMaxRetries(t *testing.T) {
	o := Options{MaxRetries: 0}.withDefaults()
	if o.MaxRetries != 0 {
		t.Errorf("expected an explicit zero MaxRetries (one attempt per path) to survive withDefaults, got %d", o.MaxRetries)
	}
}

func TestWithDefaultsNegativeMaxRetriesFallsBackToDefault(t *testing.T) {
	o := Options{MaxRetries: -1}.withDefaults()
	if o.MaxRetries != DefaultOptions().MaxRetries {
		t.Errorf("expected a negative MaxRetries to fall back to the default, got %d", o.MaxRetries)
	}
}

func TestMergeHeadersRequestOverridesWin(t *testing.T) {
	o := Options{Headers: map[string]string{"X-A": "engine", "X-B": "engine"}}
	merged := o.mergeHeaders(map[string]string{"X-B": "request"})

	if merged["X-A"] != "engine" {
		t.Errorf("expected engine-level header to survive, got %q", merged["X-A"])
	}
	if merged["X-B"] != "request" {
		t.Errorf("expected request-level header to win, got %q", merged["X-B"])
	}
}

func TestMergeHeadersNoEngineHeaders(t *testing.T) {
	o := Options{}
	merged := o.mergeHeaders(map[string]string{"X-A": "request"})
	if merged["X-A"] != "request" {
		t.Errorf("expected request headers to pass through unchanged, got %v", merged)
	}
}
