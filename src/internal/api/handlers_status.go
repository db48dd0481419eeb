package api

import (
	"net/http"

	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

// GetStatus returns the block state of the target file without building.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.builder.Status()
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	response := StatusResponse{Version: h.version, Block: status}
	if h.configHasher != nil {
		changed, err := h.configHasher.Changed()
		if err != nil {
			log.Warnf("Failed to compare config hashes: %v", err)
		}
		response.ConfigChanged = changed
	}

	writeJSONData(w, response)
}

// GetSources returns the range sources with configured overrides applied.
// GET /api/v1/sources
func (h *Handler) GetSources(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.builder.Config().Endpoints()
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, SourcesResponse{Sources: endpoints})
}
