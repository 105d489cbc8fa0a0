package fetchkit

import "testing"

// skipCI skips tests that need to launch a real headless Chrome process.
func skipCI(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
}
