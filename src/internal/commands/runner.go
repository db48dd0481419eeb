package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

const stopTimeout = 30 * time.Second

// RestartableRunner supervises one long-running worker of the service (the API
// server or the auto-updater). A worker that returns an error or panics is
// restarted with exponential backoff; a nil return or a cancelled context ends
// supervision.
type RestartableRunner struct {
	cfg  RunnerConfig
	work func(ctx context.Context) error

	mu       sync.RWMutex
	cancel   context.CancelFunc
	done     chan struct{}
	running  bool
	restarts int
	lastErr  error
}

// RunnerConfig contains configuration for RestartableRunner.
type RunnerConfig struct {
	Name           string
	MaxRestarts    int           // 0 = unlimited restarts
	RestartBackoff time.Duration // Initial backoff (default: 1s)
	MaxBackoff     time.Duration // Max backoff (default: 30s)
}

// RunnerStatus is a point-in-time snapshot of a runner.
type RunnerStatus struct {
	Name     string
	Running  bool
	Restarts int
	LastErr  error
}

func NewRestartableRunner(cfg RunnerConfig, work func(ctx context.Context) error) *RestartableRunner {
	if cfg.RestartBackoff <= 0 {
		cfg.RestartBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.RestartBackoff {
		cfg.MaxBackoff = max(30*time.Second, cfg.RestartBackoff)
	}
	return &RestartableRunner{cfg: cfg, work: work}
}

func (r *RestartableRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("%s is already running", r.cfg.Name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.restarts = 0
	r.lastErr = nil

	go r.supervise(runCtx, r.done)
	return nil
}

// Stop cancels the worker and waits for it to return.
func (r *RestartableRunner) Stop() error {
	r.mu.RLock()
	cancel, done := r.cancel, r.done
	r.mu.RUnlock()

	if done == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("%s: timeout waiting for stop", r.cfg.Name)
	}
}

func (r *RestartableRunner) IsRunning() bool {
	return r.Status().Running
}

func (r *RestartableRunner) LastError() error {
	return r.Status().LastErr
}

func (r *RestartableRunner) RestartCount() int {
	return r.Status().Restarts
}

func (r *RestartableRunner) Status() RunnerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RunnerStatus{Name: r.cfg.Name, Running: r.running, Restarts: r.restarts, LastErr: r.lastErr}
}

func (r *RestartableRunner) supervise(ctx context.Context, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		close(done)
	}()

	backoff := r.cfg.RestartBackoff
	for ctx.Err() == nil {
		err := r.runOnce(ctx)

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()

		if err == nil {
			log.Infof("%s: exited cleanly", r.cfg.Name)
			return
		}
		if ctx.Err() != nil {
			break
		}

		r.mu.Lock()
		r.restarts++
		restarts := r.restarts
		r.mu.Unlock()

		if r.cfg.MaxRestarts > 0 && restarts >= r.cfg.MaxRestarts {
			log.Errorf("%s: max restarts (%d) reached, giving up. Last error: %v", r.cfg.Name, r.cfg.MaxRestarts, err)
			return
		}
		log.Errorf("%s: failed: %v. Restarting in %v (restart #%d)", r.cfg.Name, err, backoff, restarts)

		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, r.cfg.MaxBackoff)
	}
	log.Infof("%s: stopped", r.cfg.Name)
}

func (r *RestartableRunner) runOnce(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.work(ctx)
}
