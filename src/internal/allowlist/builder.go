package allowlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maksimkurb/geoip-allow/src/internal/block"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/errors"
	"github.com/maksimkurb/geoip-allow/src/internal/fetcher"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
	"github.com/maksimkurb/geoip-allow/src/internal/render"
	"github.com/maksimkurb/geoip-allow/src/internal/sources"
)

// Builder builds, inspects and removes the block of one target file.
// Calls are serialized within the process.
type Builder struct {
	mu sync.Mutex
	// cfgMu guards cfg and fetcher for readers outside a build; writers hold both.
	cfgMu   sync.RWMutex
	cfg     *config.Config
	fetcher fetcher.Fetcher
	now     func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used for staleness checks and the embedded date.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a builder. A nil fetcher is replaced by an HTTP fetcher
// configured from cfg.
func NewBuilder(cfg *config.Config, f fetcher.Fetcher, opts ...Option) *Builder {
	if f == nil {
		f = NewFetcher(cfg)
	}
	b := &Builder{
		cfg:     cfg,
		fetcher: f,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFetcher creates an HTTP fetcher from the [fetch] section.
func NewFetcher(cfg *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.Options{
		Timeout:            cfg.FetchTimeout(),
		MaxRedirects:       cfg.Fetch.MaxRedirects,
		InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
	})
}

// Config returns the configuration in use.
// It does not wait for a running build.
func (b *Builder) Config() *config.Config {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.cfg
}

// SetConfig replaces the configuration, e.g. after the config file changed.
// The fetcher is rebuilt only when it was created by NewBuilder.
func (b *Builder) SetConfig(cfg *config.Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	if _, ok := b.fetcher.(*fetcher.HTTPFetcher); ok {
		b.fetcher = NewFetcher(cfg)
	}
	b.cfg = cfg
}

func (b *Builder) manager() *block.Manager {
	m := block.NewManager(b.cfg.GetAbsTargetFile(), b.cfg.Markers())
	m.Position = b.cfg.Position()
	return m
}

// Read returns the target file content, rebuilding the block first when it is
// absent, stale or force is set.
func (b *Builder) Read(ctx context.Context, force bool) (*BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mgr := b.manager()
	now := b.now()

	var reports []SourceReport
	outcome, err := mgr.Build(now, force, func(now time.Time) (string, error) {
		body, r, err := b.render(ctx, now)
		reports = r
		return body, err
	})
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Path:        mgr.Path,
		Content:     outcome.Content,
		State:       outcome.Previous.State,
		Regenerated: outcome.Regenerated,
		Forced:      force,
		GeneratedAt: outcome.Previous.Date,
		Sources:     reports,
	}
	if outcome.Regenerated {
		result.GeneratedAt = dateOnly(now)
		log.Infof("Block in %s rebuilt (was %s)", mgr.Path, outcome.Previous.State)
	}
	return result, nil
}

// Preview renders a new block without reading or writing the target file.
func (b *Builder) Preview(ctx context.Context) (*BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	body, reports, err := b.render(ctx, now)
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		Path:        b.cfg.GetAbsTargetFile(),
		Content:     b.cfg.Markers().Wrap(body),
		State:       block.Absent,
		Regenerated: true,
		Forced:      true,
		GeneratedAt: dateOnly(now),
		Sources:     reports,
	}, nil
}

// Delete removes every block from the target file. A file without a block is
// left untouched and the call still succeeds.
func (b *Builder) Delete(ctx context.Context) (*DeleteResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mgr := b.manager()
	removed, content, err := mgr.Delete()
	if err != nil {
		return nil, err
	}
	if removed {
		log.Infof("Block removed from %s", mgr.Path)
	} else {
		log.Infof("No block found in %s, nothing to remove", mgr.Path)
	}

	return &DeleteResult{Path: mgr.Path, Removed: removed, Content: content}, nil
}

// Status inspects the target file.
func (b *Builder) Status() (*Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mgr := b.manager()
	inspection, _, err := mgr.Inspect(b.now())
	if err != nil {
		return nil, err
	}
	return &Status{
		Path:        mgr.Path,
		State:       inspection.State,
		GeneratedAt: inspection.Date,
		Blocks:      inspection.Regions,
	}, nil
}

func (b *Builder) render(ctx context.Context, now time.Time) (string, []SourceReport, error) {
	endpoints, err := b.cfg.Endpoints()
	if err != nil {
		return "", nil, err
	}
	preText, err := b.cfg.PreText()
	if err != nil {
		return "", nil, err
	}
	postText, err := b.cfg.PostText()
	if err != nil {
		return "", nil, err
	}

	blocks := make([]render.SourceBlock, len(endpoints))
	reports := make([]SourceReport, len(endpoints))

	if b.cfg.Fetch.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, ep := range endpoints {
			g.Go(func() error {
				blocks[i], reports[i] = b.collect(gctx, ep)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, ep := range endpoints {
			blocks[i], reports[i] = b.collect(ctx, ep)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", nil, errors.NewFetchError("build canceled", err)
	}

	body := render.Render(render.Config{
		Dialect:     b.cfg.Dialect(),
		Country:     b.cfg.General.Country,
		GeneratedAt: now,
		PreText:     preText,
		PostText:    postText,
	}, blocks)

	return body, reports, nil
}

// collect fetches and parses one source. Failures degrade the source to its header.
func (b *Builder) collect(ctx context.Context, ep sources.Endpoint) (render.SourceBlock, SourceReport) {
	sourceBlock := render.SourceBlock{Name: ep.Name, Header: ep.Header()}
	report := SourceReport{Name: ep.Name, URL: ep.URL}

	degrade := func(reason string) (render.SourceBlock, SourceReport) {
		log.Warnf("Source %s degraded: %s", ep.Name, reason)
		report.Error = reason
		return sourceBlock, report
	}

	res, err := b.fetcher.Fetch(ctx, fetcher.Request{URL: fetcher.SanitizeURL(ep.URL)})
	if err != nil {
		return degrade(err.Error())
	}

	report.EffectiveURL = res.EffectiveURL
	report.StatusCode = res.StatusCode
	report.Checksum = res.Checksum
	if !res.OK() {
		return degrade(fmt.Sprintf("unexpected HTTP status %d", res.StatusCode))
	}

	switch ep.Format {
	case sources.FormatPrefixesJSON:
		prefixes, err := ranges.ParsePrefixesJSON(res.Body, b.cfg.Selector())
		if err != nil {
			return degrade(err.Error())
		}
		sourceBlock.Prefixes = prefixes
	case sources.FormatDelegation:
		filtered := ranges.ParseDelegation(res.Body, b.cfg.General.Country, b.cfg.Selector())
		sourceBlock.Prefixes = filtered.Prefixes
		report.Skipped = filtered.Skipped
		if filtered.Skipped > 0 {
			log.Warnf("Source %s: skipped %d %s rows with invalid size", ep.Name, filtered.Skipped, b.cfg.General.Country)
		}
	default:
		return degrade(fmt.Sprintf("unsupported source format %q", ep.Format))
	}

	report.Prefixes = len(sourceBlock.Prefixes)
	log.Debugf("Source %s: %d prefixes", ep.Name, report.Prefixes)
	return sourceBlock, report
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
