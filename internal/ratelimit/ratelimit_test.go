package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Budget(t *testing.T) {
	l := New("gemini", 2, time.Hour, nil)
	if !l.Allow() || !l.Allow() {
		t.Fatalf("first two requests should be allowed")
	}
	if l.Allow() {
		t.Fatalf("third request should be refused")
	}
	if l.Remaining() != 0 {
		t.Fatalf("expected no remaining budget, got %d", l.Remaining())
	}
	if err := l.Use(); err == nil {
		t.Fatalf("Use should report the exhausted budget")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New("gemini", 0, 0, nil)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("unlimited limiter refused request %d", i)
		}
	}
	if l.Remaining() != -1 {
		t.Fatalf("unlimited should report -1")
	}
}

func TestLimiter_Reset(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New("gemini", 1, time.Hour, nil)
	l.now = func() time.Time { return now }
	l.resetTime = now.Add(time.Hour)

	if !l.Allow() || l.Allow() {
		t.Fatalf("expected one request per window")
	}
	now = now.Add(2 * time.Hour)
	if !l.Allow() {
		t.Fatalf("budget should reset after the window")
	}
}

func TestLimiter_ExplicitReset(t *testing.T) {
	l := New("gemini", 2, 24*time.Hour, nil)
	l.Allow()
	l.Allow()
	if l.Allow() {
		t.Fatalf("budget should be spent")
	}
	l.Reset()
	if l.Remaining() != 2 {
		t.Fatalf("expected full budget after Reset, got %d", l.Remaining())
	}
}
