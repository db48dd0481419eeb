package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestRestartableRunner_RestartsOnError(t *testing.T) {
	var calls atomic.Int32
	r := NewRestartableRunner(RunnerConfig{
		Name:           "test",
		RestartBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("boom")
		}
		<-ctx.Done()
		return nil
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return calls.Load() >= 3 })

	if r.RestartCount() != 2 {
		t.Errorf("Expected 2 restarts, got %d", r.RestartCount())
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if r.IsRunning() {
		t.Error("Runner should not be running after Stop")
	}
}

func TestRestartableRunner_RecoversPanic(t *testing.T) {
	var calls atomic.Int32
	r := NewRestartableRunner(RunnerConfig{
		Name:           "panicky",
		MaxRestarts:    2,
		RestartBackoff: time.Millisecond,
	}, func(ctx context.Context) error {
		calls.Add(1)
		panic("bad state")
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return r.RestartCount() >= 2 })
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if r.LastError() == nil || r.LastError().Error() != "panic: bad state" {
		t.Errorf("Unexpected last error: %v", r.LastError())
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls before giving up, got %d", calls.Load())
	}
}

func TestRestartableRunner_DoubleStart(t *testing.T) {
	r := NewRestartableRunner(RunnerConfig{Name: "once"}, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	if err := r.Start(context.Background()); err == nil {
		t.Error("Expected error on second Start")
	}
}
