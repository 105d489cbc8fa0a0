package fetchkit

import "time"

// BrowserMetrics is a point-in-time snapshot of one pooled browser process,
// as returned by Engine.GetMetrics.
type BrowserMetrics struct {
	ID           string
	CreatedAt    time.Time
	Age          time.Duration
	IdleFor      time.Duration
	ActivePages  int
	PagesCreated int64
	Errors       int
	IsHealthy    bool
}

// PoolMetrics summarizes the whole browser pool.
type PoolMetrics struct {
	Instances     []BrowserMetrics
	BrowsersAlive int
	TotalPages    int
	PagesServed   int64
}
