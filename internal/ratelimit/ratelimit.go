// Package ratelimit caps how many analysis requests a run may make.
package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Limiter counts requests against a budget that resets every window.
// A max of 0 means unlimited.
type Limiter struct {
	mu        sync.Mutex
	name      string
	count     int
	max       int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
	log       *slog.Logger
}

func New(name string, max int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{name: name, max: max, window: window, now: time.Now, log: logger}
	l.resetTime = l.now().Add(window)
	return l
}

// Allow reserves one request, reporting false once the budget is spent.
func (l *Limiter) Allow() bool {
	return l.Use() == nil
}

// Use is Allow with an explanatory error.
func (l *Limiter) Use() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()
	if l.max > 0 && l.count >= l.max {
		l.log.Warn("rate limit reached", "limiter", l.name, "used", l.count, "limit", l.max)
		return fmt.Errorf("%s rate limit exceeded (%d/%d)", l.name, l.count, l.max)
	}
	l.count++
	l.log.Debug("rate limiter usage", "limiter", l.name, "used", l.count, "limit", l.max)
	return nil
}

// Remaining is -1 when unlimited.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkReset()
	if l.max <= 0 {
		return -1
	}
	return l.max - l.count
}

func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]interface{}{
		"name":       l.name,
		"used":       l.count,
		"limit":      l.max,
		"reset_time": l.resetTime,
	}
}

// Reset restores the full budget and restarts the window.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
	l.resetTime = l.now().Add(l.window)
}

func (l *Limiter) checkReset() {
	if l.window > 0 && l.now().After(l.resetTime) {
		l.log.Info("resetting rate limiter", "limiter", l.name, "used", l.count)
		l.count = 0
		l.resetTime = l.now().Add(l.window)
	}
}
