package allowlist

import (
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/block"
)

// SourceReport describes one source's contribution to a build.
type SourceReport struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	EffectiveURL string `json:"effective_url,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`
	Checksum     string `json:"checksum,omitempty"`
	Prefixes     int    `json:"prefixes"`
	Skipped      int    `json:"skipped,omitempty"`
	// Error is set when the source was degraded to a header-only block.
	Error string `json:"error,omitempty"`
}

// Degraded reports whether the source contributed only its header.
func (r SourceReport) Degraded() bool {
	return r.Error != ""
}

// BuildResult is the outcome of Read and Preview.
type BuildResult struct {
	Path string `json:"path"`
	// Content is the full target file content (or the preview block).
	Content string `json:"content"`
	// State is the block state found before the operation.
	State block.State `json:"state"`
	// Regenerated is true when a new block was rendered and written.
	Regenerated bool `json:"regenerated"`
	Forced      bool `json:"forced"`
	// GeneratedAt is the date embedded in the block now in effect; zero when unknown.
	GeneratedAt time.Time `json:"generated_at"`
	// Sources is empty when the block was fresh and nothing was fetched.
	Sources []SourceReport `json:"sources,omitempty"`
}

// DeleteResult is the outcome of Delete.
type DeleteResult struct {
	Path    string `json:"path"`
	Removed bool   `json:"removed"`
	Content string `json:"content"`
}

// Status is the block state of the target file without building.
type Status struct {
	Path        string      `json:"path"`
	State       block.State `json:"state"`
	GeneratedAt time.Time   `json:"generated_at"`
	Blocks      int         `json:"blocks"`
}
