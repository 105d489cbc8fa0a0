// Package hostset tracks hosts that have triggered headed-mode escalation,
// in the mutex-guarded-map idiom the rest of the retry/rate-limiting code
// uses. Unlike a package-level limiter, a Set belongs to one engine
// instance — the headed-fallback host list is per-engine state, not a
// process-wide signal.
package hostset

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// failureBurst is the number of isolated failures a host's token bucket
// tolerates before RecordFailure trips it into the headed-fallback set.
const failureBurst = 3

// Set records hosts that should use headed-mode browsing, along with when
// each was last flagged, so stale entries can be dropped on a cleanup pass.
type Set struct {
	mu       sync.RWMutex
	hosts    map[string]time.Time
	failures map[string]*rate.Limiter
	maxIdle  time.Duration
}

// New builds an empty Set. Entries unused for longer than maxIdle become
// eligible for removal by Cleanup; maxIdle <= 0 disables expiry.
func New(maxIdle time.Duration) *Set {
	return &Set{
		hosts:    make(map[string]time.Time),
		failures: make(map[string]*rate.Limiter),
		maxIdle:  maxIdle,
	}
}

// Add flags host for headed-mode fallback. Out-of-band: callers add a host
// here in response to an observed failure pattern, not as part of the
// normal per-request path.
func (s *Set) Add(host string) {
	host = strings.ToLower(host)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[host] = time.Now()
}

// RecordFailure registers a failed attempt against host and flags it for
// headed-mode fallback once failures arrive faster than the host's token
// bucket refills — an isolated, one-off failure is tolerated, a burst of
// them trips the host the same way Add would. Reports whether the host
// tripped as a result of this call.
func (s *Set) RecordFailure(host string) bool {
	host = strings.ToLower(host)
	window := s.maxIdle
	if window <= 0 {
		window = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.failures[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(window/failureBurst), failureBurst)
		s.failures[host] = lim
	}
	if lim.Allow() {
		return false
	}
	s.hosts[host] = time.Now()
	return true
}

// Contains reports whether host is currently flagged.
func (s *Set) Contains(host string) bool {
	host = strings.ToLower(host)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hosts[host]
	return ok
}

// Remove unflags a host.
func (s *Set) Remove(host string) {
	host = strings.ToLower(host)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hosts, host)
	delete(s.failures, host)
}

// Cleanup drops entries idle longer than maxIdle. A no-op when maxIdle<=0.
func (s *Set) Cleanup() {
	if s.maxIdle <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	for host, seenAt := range s.hosts {
		if seenAt.Before(cutoff) {
			delete(s.hosts, host)
			delete(s.failures, host)
		}
	}
}

// Len reports the number of currently flagged hosts.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hosts)
}
