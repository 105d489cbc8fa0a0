package hostset

import (
	"testing"
	"time"
)

func TestSetAddContains(t *testing.T) {
	s := New(time.Minute)
	if s.Contains("example.com") {
		t.Fatalf("expected fresh set to not contain host")
	}

	s.Add("Example.com")
	if !s.Contains("example.com") {
		t.Errorf("expected Contains to be case-insensitive")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 flagged host, got %d", s.Len())
	}
}

func TestSetRemove(t *testing.T) {
	s := New(time.Minute)
	s.Add("example.com")
	s.Remove("example.com")

	if s.Contains("example.com") {
		t.Fatalf("expected host to be unflagged after Remove")
	}
}

func TestSetCleanupDropsIdle(t *testing.T) {
	s := New(10 * time.Millisecond)
	s.Add("stale.com")

	time.Sleep(20 * time.Millisecond)
	s.Cleanup()

	if s.Contains("stale.com") {
		t.Fatalf("expected idle host to be dropped by Cleanup")
	}
}

func TestSetCleanupDisabledWhenMaxIdleNonPositive(t *testing.T) {
	s := New(0)
	s.Add("example.com")

	time.Sleep(5 * time.Millisecond)
	s.Cleanup()

	if !s.Contains("example.com") {
		t.Fatalf("expected Cleanup to no-op when maxIdle<=0")
	}
}

// TestSetRecordFailureTolerantesBurst mirrors the teacher's circuit-breaker
// pattern: isolated failures within the token bucket's burst are tolerated
// and should not trip the host into the headed-fallback set.
func TestSetRecordFailureTolerantesBurst(t *testing.T) {
	s := New(time.Minute)

	for i := 0; i < failureBurst; i++ {
		tripped := s.RecordFailure("flaky.com")
		if tripped {
			t.Fatalf("failure %d: expected burst to be tolerated, not tripped", i)
		}
	}
	if s.Contains("flaky.com") {
		t.Fatalf("expected host to remain unflagged within the failure burst")
	}
}

func TestSetRecordFailureTripsPastBurst(t *testing.T) {
	s := New(time.Minute)

	var tripped bool
	for i := 0; i < failureBurst+1; i++ {
		tripped = s.RecordFailure("broken.com")
	}
	if !tripped {
		t.Fatalf("expected a failure beyond the burst to trip the host")
	}
	if !s.Contains("broken.com") {
		t.Fatalf("expected broken.com to be flagged after exceeding the failure burst")
	}
}
