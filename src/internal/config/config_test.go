package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/maksimkurb/geoip-allow/src/internal/block"
	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
	"github.com/maksimkurb/geoip-allow/src/internal/render"
	"github.com/maksimkurb/geoip-allow/src/internal/sources"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	configFile := filepath.Join(dir, "geoip-allow.toml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return configFile
}

func TestLoadConfig_NonExistentFile(t *testing.T) {
	_, err := LoadConfig("/non/existent/file.toml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), `[general
	country = "US"`)

	_, err := LoadConfig(configFile)
	if err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := writeConfig(t, tmpDir, "")

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.General.Country != "US" {
		t.Errorf("Expected default country US, got %s", cfg.General.Country)
	}
	if cfg.Dialect() != render.Apache {
		t.Errorf("Expected apache dialect, got %s", cfg.Dialect())
	}
	if cfg.Selector() != ranges.SelectV4 {
		t.Errorf("Expected IPv4 selector, got %s", cfg.Selector())
	}
	if cfg.Markers().Start() != "### ADD GeoIPAllow ###\n" {
		t.Errorf("Unexpected markers: %q", cfg.Markers().Start())
	}
	if cfg.Position() != block.PositionTop {
		t.Errorf("Expected top position, got %s", cfg.Position())
	}
	if cfg.GetAbsTargetFile() != filepath.Join(tmpDir, ".htaccess") {
		t.Errorf("Unexpected target file: %s", cfg.GetAbsTargetFile())
	}
	if cfg.FetchTimeout() != 30*time.Second {
		t.Errorf("Unexpected fetch timeout: %v", cfg.FetchTimeout())
	}
	if !cfg.Fetch.Parallel {
		t.Error("Expected parallel fetch by default")
	}
	if cfg.AutoUpdateInterval() != 24*time.Hour {
		t.Errorf("Unexpected auto update interval: %v", cfg.AutoUpdateInterval())
	}
	if cfg.API.ListenAddr != DefaultListenAddr {
		t.Errorf("Unexpected listen address: %s", cfg.API.ListenAddr)
	}
	if err := cfg.ValidateConfig(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), `[general]
target_file = "/var/www/.htaccess"
server = "NGINX"
ip_version = 46
country = " jp "
position = "Bottom"

[sources]
apnic = "https://mirror.example.com/delegated-apnic-latest"
`)

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.General.Country != "JP" {
		t.Errorf("Expected upper-cased country, got %q", cfg.General.Country)
	}
	if cfg.Dialect() != render.Nginx {
		t.Errorf("Expected nginx dialect, got %s", cfg.Dialect())
	}
	if cfg.Selector() != ranges.SelectBoth {
		t.Errorf("Expected dual-stack selector, got %s", cfg.Selector())
	}
	if cfg.Position() != block.PositionBottom {
		t.Errorf("Expected bottom position, got %s", cfg.Position())
	}
	if cfg.GetAbsTargetFile() != "/var/www/.htaccess" {
		t.Errorf("Absolute target file should be kept, got %s", cfg.GetAbsTargetFile())
	}

	endpoints, err := cfg.Endpoints()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, e := range endpoints {
		if e.Name == sources.APNIC && e.URL != "https://mirror.example.com/delegated-apnic-latest" {
			t.Errorf("Override not applied: %s", e.URL)
		}
	}
}

func TestConfig_SnippetFiles(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "pre.txt"), []byte("Allow from 10.1.0.0/16"), 0644); err != nil {
		t.Fatal(err)
	}
	configFile := writeConfig(t, tmpDir, `[general]
pre_text = "ignored"
pre_text_file = "pre.txt"
post_text = "# trailer"
`)

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pre, err := cfg.PreText()
	if err != nil || pre != "Allow from 10.1.0.0/16" {
		t.Errorf("PreText() = %q, %v", pre, err)
	}
	post, err := cfg.PostText()
	if err != nil || post != "# trailer" {
		t.Errorf("PostText() = %q, %v", post, err)
	}

	cfg.General.PostTextFile = "missing.txt"
	if _, err := cfg.PostText(); err == nil {
		t.Error("Expected error for missing snippet file")
	}
}

func TestDefaultConfig_WriteAndReload(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "geoip-allow.toml")

	cfg, err := DefaultConfig(configFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cfg.General.Country = "DE"
	if err := cfg.WriteConfig(); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	buf, err := cfg.SerializeConfig()
	if err != nil {
		t.Fatalf("Failed to serialize config: %v", err)
	}
	var raw map[string]interface{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Serialized config is not valid TOML: %v", err)
	}
	if !strings.Contains(buf.String(), "country = 'DE'") && !strings.Contains(buf.String(), `country = "DE"`) {
		t.Errorf("Serialized config lacks country:\n%s", buf.String())
	}

	reloaded, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if reloaded.General.Country != "DE" {
		t.Errorf("Expected DE after reload, got %s", reloaded.General.Country)
	}
	if err := reloaded.ValidateConfig(); err != nil {
		t.Errorf("Reloaded config should be valid: %v", err)
	}
}

func TestConfig_AllowedSubnets(t *testing.T) {
	cfg, err := DefaultConfig(filepath.Join(t.TempDir(), "geoip-allow.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(cfg.AllowedSubnets()); got != len(DefaultAllowedSubnets) {
		t.Errorf("Expected %d default subnets, got %d", len(DefaultAllowedSubnets), got)
	}

	cfg.API.AllowedSubnets = []string{"203.0.113.7/24", "bogus", "2001:db8::/32"}
	got := cfg.AllowedSubnets()
	if len(got) != 2 {
		t.Fatalf("Expected 2 parsed subnets, got %v", got)
	}
	if got[0].String() != "203.0.113.0/24" {
		t.Errorf("Expected masked prefix, got %s", got[0])
	}

	cfg.API.AllowedSubnets = []string{}
	cfg.ApplyDefaults()
	if len(cfg.API.AllowedSubnets) != 0 {
		t.Error("An explicitly empty list must not be replaced by defaults")
	}
}
