package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestNew_InvalidSpec(t *testing.T) {
	if _, err := New("not a cron spec", func(context.Context) error { return nil }, nil); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestRunOnce_CallsJob(t *testing.T) {
	var calls int32
	s, err := New("0 8 * * *", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.RunOnce()
	s.RunOnce()
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("0 8 * * *", func(context.Context) error { return nil }, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Next() != "" {
		t.Fatalf("no next run expected before Start")
	}
	s.Start()
	if s.Next() == "" {
		t.Fatalf("expected next run after Start")
	}
	s.Stop()
	if s.ctx.Err() == nil {
		t.Fatalf("Stop must cancel the job context")
	}
}
