package api

import (
	"encoding/json"
	"net/http"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/hashing"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

// Handler manages all API endpoints and dependencies.
type Handler struct {
	builder      *allowlist.Builder
	configHasher *config.ConfigHasher
	version      VersionInfo
}

// NewHandler creates a new API handler. configHasher may be nil.
func NewHandler(builder *allowlist.Builder, configHasher *config.ConfigHasher, version VersionInfo) *Handler {
	return &Handler{
		builder:      builder,
		configHasher: configHasher,
		version:      version,
	}
}

// recordBuild stores the hash of the config used for a build that rewrote the file.
func (h *Handler) recordBuild(res *allowlist.BuildResult) {
	if h.configHasher == nil || !res.Regenerated {
		return
	}
	hash, err := config.CalculateHash(h.builder.Config())
	if err != nil {
		log.Warnf("Failed to calculate config hash: %v", err)
		return
	}
	h.configHasher.SetActiveConfigHash(hash)
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// etag returns a strong entity tag for content.
func etag(content string) string {
	return `"` + hashing.Sum([]byte(content)) + `"`
}

func logWriteError(r *http.Request, err error) {
	log.Warnf("Failed to write response for %s %s: %v", r.Method, r.URL.Path, err)
}
