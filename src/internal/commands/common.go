package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/api"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/fetcher"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool
	Version    api.VersionInfo
	// Stdout receives command output; os.Stdout when nil.
	Stdout io.Writer
	// Fetcher overrides the HTTP fetcher built from the config.
	Fetcher fetcher.Fetcher
}

func (c *AppContext) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}

func newBuilder(cfg *config.Config, ctx *AppContext) *allowlist.Builder {
	return allowlist.NewBuilder(cfg, ctx.Fetcher)
}
