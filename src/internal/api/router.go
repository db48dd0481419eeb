package api

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
)

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(builder *allowlist.Builder, configHasher *config.ConfigHasher, version VersionInfo) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(RequestLog)
	r.Use(SubnetAccess(func() []netip.Prefix {
		return builder.Config().AllowedSubnets()
	}))

	h := NewHandler(builder, configHasher, version)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/allowlist", h.GetAllowlist)
		r.Delete("/allowlist", h.DeleteAllowlist)
		r.Post("/allowlist/build", h.BuildAllowlist)
		r.Get("/allowlist/preview", h.PreviewDryRun)

		r.Get("/status", h.GetStatus)
		r.Get("/sources", h.GetSources)
	})

	r.Get("/allowlist/preview", h.PreviewAllowlist)
	r.Get("/allowlist/download", h.DownloadAllowlist)
	r.Get("/health", h.CheckHealth)

	return r
}
