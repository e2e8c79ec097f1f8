package webui

import (
	"context"
	"sync"
	"time"
)

// attemptRecord tracks failed login attempts within a sliding window.
type attemptRecord struct {
	Count   int
	ResetAt time.Time
}

// RateLimiter protects the login endpoint against brute force attacks by
// tracking failed authentication attempts per client IP.
//
// Each failed attempt increments a counter; after maxAttempts the IP is
// blocked until the block duration passes. A successful login resets the
// counter. Safe for concurrent use.
type RateLimiter struct {
	mu          sync.RWMutex
	attempts    map[string]attemptRecord
	maxAttempts int
	window      time.Duration
	blockFor    time.Duration
}

// NewRateLimiter creates a RateLimiter. maxAttempts failures within window
// block the IP for blockFor.
func NewRateLimiter(maxAttempts int, window, blockFor time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts:    make(map[string]attemptRecord),
		maxAttempts: maxAttempts,
		window:      window,
		blockFor:    blockFor,
	}
}

// Allow reports whether an IP may attempt authentication. When blocked, the
// second return value is the time remaining until the block lifts.
func (r *RateLimiter) Allow(ip string) (bool, time.Duration) {
	r.mu.RLock()
	record, exists := r.attempts[ip]
	r.mu.RUnlock()

	if !exists || time.Now().After(record.ResetAt) {
		return true, 0
	}
	if record.Count >= r.maxAttempts {
		return false, time.Until(record.ResetAt)
	}
	return true, 0
}

// RecordAttempt records a failed authentication attempt for an IP. Hitting
// the attempt ceiling extends the reset time to the block duration.
func (r *RateLimiter) RecordAttempt(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.attempts[ip]
	if !exists || time.Now().After(record.ResetAt) {
		r.attempts[ip] = attemptRecord{Count: 1, ResetAt: time.Now().Add(r.window)}
		return
	}

	record.Count++
	if record.Count >= r.maxAttempts {
		record.ResetAt = time.Now().Add(r.blockFor)
	}
	r.attempts[ip] = record
}

// Reset clears the attempt record for an IP after a successful login.
func (r *RateLimiter) Reset(ip string) {
	r.mu.Lock()
	delete(r.attempts, ip)
	r.mu.Unlock()
}

// Cleanup removes expired records and returns how many were removed.
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	now := time.Now()
	for ip, record := range r.attempts {
		if now.After(record.ResetAt) {
			delete(r.attempts, ip)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker runs Cleanup on an interval until ctx is cancelled.
func (r *RateLimiter) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}

// AttemptCount returns the live attempt count for an IP.
func (r *RateLimiter) AttemptCount(ip string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.attempts[ip]
	if !exists || time.Now().After(record.ResetAt) {
		return 0
	}
	return record.Count
}
