package api

import (
	"net/http"
	"strconv"

	"github.com/maksimkurb/geoip-allow/src/internal/delivery"
)

// GetAllowlist returns the target file, rebuilding the block when it is absent or stale.
// GET /api/v1/allowlist?force=true
func (h *Handler) GetAllowlist(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteInvalidRequest(w, "force must be a boolean")
			return
		}
		force = parsed
	}

	h.read(w, r, force)
}

// BuildAllowlist always rebuilds the block.
// POST /api/v1/allowlist/build
func (h *Handler) BuildAllowlist(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, true)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request, force bool) {
	res, err := h.builder.Read(r.Context(), force)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	h.recordBuild(res)
	setOutcome(w, buildOutcome(res))

	w.Header().Set("ETag", etag(res.Content))
	writeJSONData(w, res)
}

// DeleteAllowlist removes the block from the target file.
// DELETE /api/v1/allowlist
func (h *Handler) DeleteAllowlist(w http.ResponseWriter, r *http.Request) {
	res, err := h.builder.Delete(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if res.Removed {
		setOutcome(w, "deleted")
	} else {
		setOutcome(w, "absent")
	}
	writeJSONData(w, DeleteResponse{DeleteResult: res, Message: delivery.DeleteMessage(true)})
}

// PreviewAllowlist renders the target file as escaped HTML, rebuilding a stale block first.
// GET /allowlist/preview
func (h *Handler) PreviewAllowlist(w http.ResponseWriter, r *http.Request) {
	res, err := h.builder.Read(r.Context(), false)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	h.recordBuild(res)
	setOutcome(w, buildOutcome(res))

	tag := etag(res.Content)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", tag)
	w.WriteHeader(http.StatusOK)
	if err := delivery.WritePreview(w, res); err != nil {
		logWriteError(r, err)
	}
}

// DownloadAllowlist sends the target file as an attachment, rebuilding a stale block first.
// GET /allowlist/download
func (h *Handler) DownloadAllowlist(w http.ResponseWriter, r *http.Request) {
	res, err := h.builder.Read(r.Context(), false)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	h.recordBuild(res)
	setOutcome(w, buildOutcome(res))

	if delivery.IsEmpty(res) {
		WriteNotFound(w, "allowlist content")
		return
	}
	if err := delivery.ServeDownload(w, res.Path, ""); err != nil {
		WriteDomainError(w, err)
	}
}

// PreviewDryRun renders a new block without touching the target file.
// GET /api/v1/allowlist/preview
func (h *Handler) PreviewDryRun(w http.ResponseWriter, r *http.Request) {
	res, err := h.builder.Preview(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	setOutcome(w, "preview")
	writeJSONData(w, res)
}
