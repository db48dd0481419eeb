package api

import (
	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/sources"
)

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// VersionInfo contains build version information.
type VersionInfo struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// StatusResponse returns the block state of the target file.
type StatusResponse struct {
	Version VersionInfo       `json:"version"`
	Block   *allowlist.Status `json:"block"`
	// ConfigChanged is true when the config file differs from the one used for the last build.
	ConfigChanged bool `json:"config_changed"`
}

// SourcesResponse returns the configured range sources.
type SourcesResponse struct {
	Sources []sources.Endpoint `json:"sources"`
}

// DeleteResponse returns the result of removing the block.
type DeleteResponse struct {
	*allowlist.DeleteResult
	Message string `json:"message"`
}

// HealthCheckResponse returns health check results.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}
