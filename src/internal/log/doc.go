// Package log provides leveled logging for geoip-allow.
//
// The package exposes a small global API (Debugf, Infof, Warnf, Errorf, Fatalf)
// on top of charmbracelet/log, so callers never hold a logger instance.
//
// # Log Levels
//
//   - DEBUG: per-row parser diagnostics, fetch checksums (only in verbose mode)
//   - INFO: build progress and file transitions
//   - WARN: degraded sources and skipped rows
//   - ERROR: failures surfaced to the caller
//
// # Example Usage
//
//	log.SetVerbose(true)
//	log.Infof("Fetching %d sources", len(endpoints))
//	log.Warnf("Source %q degraded: %v", name, err)
//
// Errors always go to stderr; other levels go to stdout unless
// SetForceStdErr(true) is used (the preview command prints the block to stdout).
package log
