package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/block"
	"github.com/maksimkurb/geoip-allow/src/internal/errors"
	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
	"github.com/maksimkurb/geoip-allow/src/internal/render"
	"github.com/maksimkurb/geoip-allow/src/internal/sources"
	"github.com/maksimkurb/geoip-allow/src/internal/utils"
)

type Config struct {
	// General holds the block settings.
	General *GeneralConfig `toml:"general" json:"general"`
	// Fetch holds settings for retrieving remote sources.
	Fetch *FetchConfig `toml:"fetch" json:"fetch"`
	// AutoUpdate holds background rebuild settings.
	AutoUpdate *AutoUpdateConfig `toml:"auto_update" json:"auto_update"`
	// API holds HTTP API settings.
	API *APIConfig `toml:"api" json:"api"`
	// Sources overrides source URLs by name (google, googlebot, google-special-crawlers, google-user-triggered-fetchers, apnic).
	Sources map[string]string `toml:"sources,omitempty" json:"sources,omitempty"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// TargetFile is the file that receives the block, relative to the config directory (default: .htaccess).
	TargetFile string `toml:"target_file" json:"target_file" validate:"required"`
	// Server is the block dialect: apache or nginx (default: apache).
	Server string `toml:"server" json:"server" validate:"required,dialect"`
	// IPVersion selects address families: 4, 6 or 46 (default: 4).
	IPVersion ranges.Selector `toml:"ip_version" json:"ip_version" validate:"ip_selector"`
	// Country is the ISO 3166 alpha-2 code used to filter registry rows (default: US).
	Country string `toml:"country" json:"country" validate:"required,country_code"`
	// MarkerName names the "### ADD <name> ###" markers (default: GeoIPAllow).
	MarkerName string `toml:"marker_name" json:"marker_name" validate:"required,marker_name"`
	// Position places a rebuilt block at the top or the bottom of the file (default: top).
	Position string `toml:"position" json:"position" validate:"required,oneof=top bottom"`
	// PreText is inserted after the preamble.
	PreText string `toml:"pre_text,omitempty" json:"pre_text,omitempty"`
	// PostText is inserted after the source blocks.
	PostText string `toml:"post_text,omitempty" json:"post_text,omitempty"`
	// PreTextFile is read verbatim and overrides PreText when set.
	PreTextFile string `toml:"pre_text_file,omitempty" json:"pre_text_file,omitempty"`
	// PostTextFile is read verbatim and overrides PostText when set.
	PostTextFile string `toml:"post_text_file,omitempty" json:"post_text_file,omitempty"`
}

type FetchConfig struct {
	// TimeoutSeconds limits each source request (default: 30).
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds" validate:"min=1,max=600"`
	// MaxRedirects limits followed redirects per request (default: 10).
	MaxRedirects int `toml:"max_redirects" json:"max_redirects" validate:"min=0,max=50"`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `toml:"insecure_skip_verify" json:"insecure_skip_verify"`
	// Parallel fetches all sources concurrently (default: true).
	Parallel bool `toml:"parallel" json:"parallel"`
}

type AutoUpdateConfig struct {
	// Enabled enables periodic rebuilds in service mode (default: false).
	Enabled bool `toml:"enabled" json:"enabled"`
	// IntervalHours is the interval between staleness checks (default: 24 hours, min: 1 hour).
	IntervalHours int `toml:"interval_hours" json:"interval_hours" validate:"gte=1"`
}

type APIConfig struct {
	// ListenAddr is the HTTP API listen address (default: 127.0.0.1:8090).
	ListenAddr string `toml:"listen_addr" json:"listen_addr" validate:"hostport_or_empty"`
	// AllowedSubnets lists the client networks the API answers (default: private and loopback ranges).
	AllowedSubnets []string `toml:"allowed_subnets" json:"allowed_subnets" validate:"dive,cidr"`
}

func (c *Config) GetConfigFilePath() string {
	return c._absConfigFilePath
}

func (c *Config) GetConfigDir() string {
	if c._absConfigFilePath == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	return filepath.Dir(c._absConfigFilePath)
}

func (c *Config) GetAbsTargetFile() string {
	return utils.GetAbsolutePath(c.General.TargetFile, c.GetConfigDir())
}

func (c *Config) Selector() ranges.Selector {
	return c.General.IPVersion
}

func (c *Config) Dialect() render.Dialect {
	d, err := render.ParseDialect(c.General.Server)
	if err != nil {
		return render.Apache
	}
	return d
}

func (c *Config) Markers() block.Markers {
	return block.NewMarkers(c.General.MarkerName)
}

func (c *Config) Position() block.Position {
	return block.Position(c.General.Position)
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func (c *Config) AutoUpdateInterval() time.Duration {
	return time.Duration(c.AutoUpdate.IntervalHours) * time.Hour
}

// AllowedSubnets returns the parsed api.allowed_subnets. Entries that do not parse
// are skipped; ValidateConfig reports them.
func (c *Config) AllowedSubnets() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(c.API.AllowedSubnets))
	for _, s := range c.API.AllowedSubnets {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p.Masked())
		}
	}
	return prefixes
}

// Endpoints returns the source registry with configured URL overrides applied.
func (c *Config) Endpoints() ([]sources.Endpoint, error) {
	endpoints, err := sources.WithOverrides(c.Sources)
	if err != nil {
		return nil, errors.NewConfigError("invalid [sources] section", err)
	}
	return endpoints, nil
}

// PreText returns the pre-text snippet, reading pre_text_file when set.
func (c *Config) PreText() (string, error) {
	return c.snippet(c.General.PreText, c.General.PreTextFile)
}

// PostText returns the post-text snippet, reading post_text_file when set.
func (c *Config) PostText() (string, error) {
	return c.snippet(c.General.PostText, c.General.PostTextFile)
}

func (c *Config) snippet(inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	path := utils.GetAbsolutePath(file, c.GetConfigDir())
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewConfigError(fmt.Sprintf("failed to read snippet file %s", path), err)
	}
	return string(data), nil
}
