package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cesargomez89/nowplaying/internal/logger"
)

type countingStore struct {
	calls atomic.Int32
	err   error
}

func (s *countingStore) Maintain(ctx context.Context) error {
	s.calls.Add(1)
	return s.err
}

func TestRunOnce(t *testing.T) {
	s := &countingStore{}
	w := NewWorker(s, logger.Discard())
	w.RunOnce()
	if s.calls.Load() != 1 {
		t.Errorf("Expected 1 maintenance call, got %d", s.calls.Load())
	}

	s.err = errors.New("disk full")
	w.RunOnce()
	if s.calls.Load() != 2 {
		t.Errorf("Expected failure to be tolerated, got %d calls", s.calls.Load())
	}
}

func TestStartStop(t *testing.T) {
	s := &countingStore{}
	w := NewWorker(s, logger.Discard())
	w.Interval = 10 * time.Millisecond
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for s.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for maintenance ticks")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop()
	after := s.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if s.calls.Load() != after {
		t.Error("Expected no maintenance after Stop")
	}
}
