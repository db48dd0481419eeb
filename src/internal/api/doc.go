// Package api provides the REST API server for geoip-allow.
//
// The API exposes the same operations as the CLI:
//   - GET    /api/v1/allowlist          read the target file, rebuilding a stale block (?force=true to always rebuild)
//   - POST   /api/v1/allowlist/build    force a rebuild
//   - DELETE /api/v1/allowlist          remove the block
//   - GET    /api/v1/allowlist/preview  render a new block without writing it
//   - GET    /api/v1/status             block state without building
//   - GET    /api/v1/sources            configured range sources
//   - GET    /allowlist/preview         target file as escaped HTML
//   - GET    /allowlist/download        target file as an attachment
//   - GET    /health                    configuration and target file checks
//
// Access is limited to loopback and private networks.
//
// # Response Format
//
// All successful JSON responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses use the following format:
//
//	{
//	  "error": {
//	    "code": "ERROR_CODE",
//	    "message": "Human-readable error message",
//	    "details": { /* optional context */ }
//	  }
//	}
package api
