package browserfetch

import "testing"

func TestValidateContentTypePolicyMarkdownRequiresHTML(t *testing.T) {
	if err := validateContentTypePolicy("text/html", Options{Markdown: true}); err != nil {
		t.Errorf("expected text/html to satisfy markdown policy, got %v", err)
	}
	if err := validateContentTypePolicy("application/json", Options{Markdown: true}); err == nil {
		t.Errorf("expected non-HTML content to fail markdown policy")
	}
}

func TestValidateContentTypePolicyRawContentType(t *testing.T) {
	if err := validateContentTypePolicy("application/json", Options{RawContentType: true}); err != nil {
		t.Errorf("expected application/json to satisfy raw policy, got %v", err)
	}
	if err := validateContentTypePolicy("text/html", Options{RawContentType: true}); err != nil {
		t.Errorf("expected text/html to satisfy raw policy, got %v", err)
	}
	if err := validateContentTypePolicy("image/png", Options{RawContentType: true}); err == nil {
		t.Errorf("expected a binary content type to fail raw policy")
	}
}

func TestValidateContentTypePolicyDefaultAllowsAnything(t *testing.T) {
	if err := validateContentTypePolicy("image/png", Options{}); err != nil {
		t.Errorf("expected no policy to apply without markdown or raw flags, got %v", err)
	}
}
