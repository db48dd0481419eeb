package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// CheckHealth validates the configuration and checks that the target file can be written.
// GET /health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	cfg := h.builder.Config()

	response := HealthCheckResponse{
		Healthy: true,
		Checks:  make(map[string]CheckResult),
	}

	if err := cfg.ValidateConfig(); err != nil {
		response.Healthy = false
		response.Checks["config_validation"] = CheckResult{
			Passed:  false,
			Message: "Configuration validation failed: " + err.Error(),
		}
	} else {
		response.Checks["config_validation"] = CheckResult{
			Passed:  true,
			Message: "Configuration is valid",
		}
	}

	target := cfg.GetAbsTargetFile()
	if info, err := os.Stat(filepath.Dir(target)); err != nil || !info.IsDir() {
		response.Healthy = false
		response.Checks["target_dir"] = CheckResult{
			Passed:  false,
			Message: fmt.Sprintf("Target directory %s is not available", filepath.Dir(target)),
		}
	} else {
		response.Checks["target_dir"] = CheckResult{
			Passed:  true,
			Message: "Target directory exists",
		}
	}

	statusCode := http.StatusOK
	if !response.Healthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}
