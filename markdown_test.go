package fetchkit

import (
	"strings"
	"testing"
)

func TestMarkdownConverterBasic(t *testing.T) {
	conv := newMarkdownConverter()

	md, err := conv.convert("<h1>Hi</h1><p>Bye</p>", "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(md, "# Hi") {
		t.Errorf("expected markdown to contain %q, got %q", "# Hi", md)
	}
	if !strings.Contains(md, "Bye") {
		t.Errorf("expected markdown to contain %q, got %q", "Bye", md)
	}
	if strings.Contains(md, "<h1>") || strings.Contains(md, "<p>") {
		t.Errorf("expected HTML tags to be stripped, got %q", md)
	}
}
