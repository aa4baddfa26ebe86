package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDrainer struct {
	drained int32
	delay   time.Duration
	err     error
}

func (f *fakeDrainer) Drain() error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	atomic.AddInt32(&f.drained, 1)
	return f.err
}

func TestLifecycleDrainsOnStop(t *testing.T) {
	d1 := &fakeDrainer{}
	d2 := &fakeDrainer{}
	var started, stopped int32
	lr := NewLifecycleRunner(Hooks{
		OnStart: func() { atomic.AddInt32(&started, 1) },
		OnStop:  func() { atomic.AddInt32(&stopped, 1) },
	}, time.Second, d1, d2)

	done := make(chan error, 1)
	go func() { done <- lr.Run(context.Background()) }()

	deadline := time.After(time.Second)
	for lr.State() != StateRunning {
		select {
		case <-deadline:
			t.Fatalf("runner never reached running state")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := lr.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if atomic.LoadInt32(&d1.drained) != 1 || atomic.LoadInt32(&d2.drained) != 1 {
		t.Fatalf("expected every drainer drained once")
	}
	if atomic.LoadInt32(&started) != 1 || atomic.LoadInt32(&stopped) != 1 {
		t.Fatalf("hooks not fired exactly once")
	}
	if lr.State() != StateStopped {
		t.Fatalf("expected stopped, got %d", lr.State())
	}
}

func TestLifecycleDrainTimeout(t *testing.T) {
	slow := &fakeDrainer{delay: 200 * time.Millisecond}
	lr := NewLifecycleRunner(Hooks{}, 20*time.Millisecond, slow)

	go func() { _ = lr.Run(context.Background()) }()
	for lr.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	err := lr.Stop()
	if err == nil || err.Error() != "drain timeout" {
		t.Fatalf("expected drain timeout, got %v", err)
	}
}

func TestLifecycleReportsDrainError(t *testing.T) {
	bad := &fakeDrainer{err: errors.New("flush failed")}
	lr := NewLifecycleRunner(Hooks{}, time.Second, bad)
	go func() { _ = lr.Run(context.Background()) }()
	for lr.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	if err := lr.Stop(); err == nil {
		t.Fatalf("expected drain error surfaced")
	}
}

func TestLifecycleRejectsDoubleRun(t *testing.T) {
	lr := NewLifecycleRunner(Hooks{}, time.Second)
	go func() { _ = lr.Run(context.Background()) }()
	for lr.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	if err := lr.Run(context.Background()); err == nil {
		t.Fatalf("expected second run to fail")
	}
	_ = lr.Stop()
}
