package commands

import (
	"context"
	"sync"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

// AutoUpdater keeps the block fresh while the service runs. Every tick it reads
// the target file without forcing, so only absent or stale blocks are rebuilt.
// A config file that changed since the last build is reloaded and forces a
// rebuild.
type AutoUpdater struct {
	mu         sync.RWMutex
	configPath string
	builder    *allowlist.Builder
	hasher     *config.ConfigHasher
	interval   time.Duration
	rebuild    chan struct{}

	lastRun   time.Time
	lastError error
}

// NewAutoUpdater creates an updater. A zero interval disables periodic checks;
// TriggerRebuild still works.
func NewAutoUpdater(configPath string, builder *allowlist.Builder, hasher *config.ConfigHasher, interval time.Duration) *AutoUpdater {
	return &AutoUpdater{
		configPath: configPath,
		builder:    builder,
		hasher:     hasher,
		interval:   interval,
		rebuild:    make(chan struct{}, 1),
	}
}

// TriggerRebuild requests a forced rebuild from the running loop.
func (u *AutoUpdater) TriggerRebuild() {
	select {
	case u.rebuild <- struct{}{}:
	default:
	}
}

// LastRun returns the time and error of the last check.
func (u *AutoUpdater) LastRun() (time.Time, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.lastRun, u.lastError
}

// Run checks once immediately and then until ctx is done. Checks happen every
// interval and right after local midnight, when a block built today turns stale.
func (u *AutoUpdater) Run(ctx context.Context) error {
	var timer *time.Timer
	var tick <-chan time.Time
	if u.interval > 0 {
		timer = time.NewTimer(nextCheckIn(time.Now(), u.interval))
		defer timer.Stop()
		tick = timer.C
		log.Infof("Auto-update enabled, checking every %v and after midnight", u.interval)
	}

	u.Check(ctx, false)

	for {
		select {
		case <-ctx.Done():
			log.Infof("Auto-update stopped")
			return nil
		case <-tick:
			u.Check(ctx, false)
			timer.Reset(nextCheckIn(time.Now(), u.interval))
		case <-u.rebuild:
			u.Check(ctx, true)
		}
	}
}

// midnightGrace keeps a check scheduled for midnight from landing on the old day.
const midnightGrace = 5 * time.Second

// nextCheckIn returns the delay until the next check: the interval, or the start
// of the next local day if that comes first.
func nextCheckIn(now time.Time, interval time.Duration) time.Duration {
	y, m, d := now.Date()
	untilMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Sub(now) + midnightGrace
	if interval > 0 && interval < untilMidnight {
		return interval
	}
	return untilMidnight
}

// Check reloads a changed config and reads the block, rebuilding it when needed.
func (u *AutoUpdater) Check(ctx context.Context, force bool) (*allowlist.BuildResult, error) {
	if u.hasher != nil {
		changed, err := u.hasher.Changed()
		if err != nil {
			log.Warnf("Failed to check configuration for changes: %v", err)
		} else if changed {
			if cfg, err := loadAndValidateConfigOrFail(u.configPath); err != nil {
				log.Errorf("Configuration changed but cannot be used, keeping the previous one: %v", err)
			} else {
				log.Infof("Configuration changed, rebuilding block")
				u.builder.SetConfig(cfg)
				force = true
			}
		}
	}

	res, err := u.builder.Read(ctx, force)

	u.mu.Lock()
	u.lastRun = time.Now()
	u.lastError = err
	u.mu.Unlock()

	if err != nil {
		log.Errorf("Failed to update block: %v", err)
		return nil, err
	}

	if res.Regenerated {
		u.recordActiveConfig()
		degraded := 0
		for _, s := range res.Sources {
			if s.Degraded() {
				degraded++
			}
		}
		log.Infof("Block in %s rebuilt, %d of %d sources degraded", res.Path, degraded, len(res.Sources))
	} else {
		log.Debugf("Block in %s is %s, nothing to do", res.Path, res.State)
	}

	return res, nil
}

func (u *AutoUpdater) recordActiveConfig() {
	if u.hasher == nil {
		return
	}
	hash, err := config.CalculateHash(u.builder.Config())
	if err != nil {
		log.Warnf("Failed to calculate config hash: %v", err)
		return
	}
	u.hasher.SetActiveConfigHash(hash)
}
