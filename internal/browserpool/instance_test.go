package browserpool

import (
	"testing"
	"time"
)

func TestInstanceHasCapacity(t *testing.T) {
	i := newInstance("browser-1", nil, "", nil)

	if !i.hasCapacity(2) {
		t.Fatalf("expected fresh instance to have capacity")
	}

	i.openPages = 2
	if i.hasCapacity(2) {
		t.Errorf("expected instance at capacity to report no room")
	}
}

func TestInstancePageCount(t *testing.T) {
	i := newInstance("browser-1", nil, "", nil)
	if i.pageCount() != 0 {
		t.Fatalf("expected 0 pages on a fresh instance")
	}
	i.openPages = 3
	if i.pageCount() != 3 {
		t.Errorf("expected pageCount to reflect openPages, got %d", i.pageCount())
	}
}

func TestInstanceAge(t *testing.T) {
	i := newInstance("browser-1", nil, "", nil)
	i.createdAt = time.Now().Add(-time.Minute)

	if i.age() < 59*time.Second {
		t.Errorf("expected age to reflect backdated createdAt, got %v", i.age())
	}
}

func TestInstanceRecordAndResetErrorStreak(t *testing.T) {
	i := newInstance("browser-1", nil, "", nil)

	if got := i.recordError(); got != 1 {
		t.Errorf("expected first recordError to return 1, got %d", got)
	}
	if got := i.recordError(); got != 2 {
		t.Errorf("expected second recordError to return 2, got %d", got)
	}
	i.resetErrorStreak()
	if i.errorStreak != 0 {
		t.Errorf("expected resetErrorStreak to zero the streak, got %d", i.errorStreak)
	}
}

func TestInstanceRecordErrorMarksUnhealthy(t *testing.T) {
	i := newInstance("browser-1", nil, "", nil)

	if i.isUnhealthy() {
		t.Fatalf("expected a fresh instance to be healthy")
	}
	i.recordError()
	if !i.isUnhealthy() {
		t.Errorf("expected a single recordError to mark the instance unhealthy immediately")
	}
}

func TestInstanceRecordErrorTriggersCallback(t *testing.T) {
	triggered := false
	i := newInstance("browser-1", nil, "", func() { triggered = true })

	i.recordError()
	if !triggered {
		t.Errorf("expected recordError to invoke the onUnhealthy callback")
	}
}

func TestInstanceSnapshot(t *testing.T) {
	i := newInstance("browser-1", nil, "", nil)
	i.openPages = 1
	i.pagesCreated = 5

	m := i.snapshot()
	if m.ID != "browser-1" {
		t.Errorf("expected ID %q, got %q", "browser-1", m.ID)
	}
	if m.OpenPages != 1 || m.PagesCreated != 5 {
		t.Errorf("expected snapshot to reflect counters, got %+v", m)
	}
	if m.CreatedAt != i.createdAt {
		t.Errorf("expected snapshot CreatedAt to match instance createdAt")
	}
}
