// Package jobs runs periodic maintenance alongside the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Job type constants for cleanup jobs
const (
	JobTypeCleanupExpiredSessions = "cleanup:expired_sessions"
	JobTypeCleanupIdleCarts       = "cleanup:idle_carts"
	JobTypeCleanupIdleCheckouts   = "cleanup:idle_checkouts"
)

// DefaultCleanupInterval is how often the sweeps run.
const DefaultCleanupInterval = 10 * time.Minute

// Sweeper removes expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// Sweepers are the in-memory registries the cleanup job bounds. Nil
// entries are skipped.
type Sweepers struct {
	Sessions  Sweeper
	Carts     Sweeper
	Checkouts Sweeper
}

// CleanupResult holds the result of a cleanup pass
type CleanupResult struct {
	SessionsDeleted  int `json:"sessions_deleted"`
	CartsDeleted     int `json:"carts_deleted"`
	CheckoutsDeleted int `json:"checkouts_deleted"`
}

// Cleanup drops expired sign-in sessions and idle carts and checkouts on a
// schedule. Sessions are also rejected lazily on read, and swept carts
// reload from their slot, so the sweep only bounds memory.
type Cleanup struct {
	sweepers Sweepers
	interval time.Duration
	logger   *slog.Logger
}

// NewCleanup creates the cleanup job. A non-positive interval uses
// DefaultCleanupInterval.
func NewCleanup(sweepers Sweepers, interval time.Duration, logger *slog.Logger) *Cleanup {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &Cleanup{sweepers: sweepers, interval: interval, logger: logger}
}

// RunOnce performs a single cleanup pass.
func (c *Cleanup) RunOnce(ctx context.Context) CleanupResult {
	result := CleanupResult{
		SessionsDeleted:  c.sweep(ctx, JobTypeCleanupExpiredSessions, c.sweepers.Sessions),
		CartsDeleted:     c.sweep(ctx, JobTypeCleanupIdleCarts, c.sweepers.Carts),
		CheckoutsDeleted: c.sweep(ctx, JobTypeCleanupIdleCheckouts, c.sweepers.Checkouts),
	}
	return result
}

func (c *Cleanup) sweep(ctx context.Context, jobType string, s Sweeper) int {
	if s == nil {
		return 0
	}
	removed := s.Sweep()
	if removed > 0 {
		c.logger.DebugContext(ctx, "cleanup completed", "job_type", jobType, "deleted", removed)
	}
	return removed
}

// Start runs a pass every interval until ctx is cancelled.
func (c *Cleanup) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}
