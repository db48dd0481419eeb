package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/maksimkurb/geoip-allow/src/internal/block"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
	"github.com/maksimkurb/geoip-allow/src/internal/render"
	"github.com/maksimkurb/geoip-allow/src/internal/utils"
)

const (
	DefaultTargetFile     = ".htaccess"
	DefaultCountry        = "US"
	DefaultTimeoutSeconds = 30
	DefaultMaxRedirects   = 10
	DefaultIntervalHours  = 24
	DefaultListenAddr     = "127.0.0.1:8090"
)

// DefaultAllowedSubnets are the private, loopback and link-local networks.
var DefaultAllowedSubnets = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

func LoadConfig(configPath string) (*Config, error) {
	configFile, err := absPath(configPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Errorf("Configuration file not found: %s", configFile)
		return nil, fmt.Errorf("configuration file not found: %s", configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := toml.Unmarshal(content, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf(derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file")
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	config._absConfigFilePath = configFile
	config.ApplyDefaults()

	log.Debugf("Configuration file path: %s", configFile)
	log.Debugf("Target file: %s", config.GetAbsTargetFile())

	return &config, nil
}

// DefaultConfig returns a configuration with every default applied that will be
// written to configPath.
func DefaultConfig(configPath string) (*Config, error) {
	configFile, err := absPath(configPath)
	if err != nil {
		return nil, err
	}

	config := &Config{_absConfigFilePath: configFile}
	config.ApplyDefaults()
	config.Fetch.Parallel = true
	return config, nil
}

// ApplyDefaults fills missing sections and values and normalizes case.
func (c *Config) ApplyDefaults() {
	if c.General == nil {
		c.General = &GeneralConfig{}
	}
	if c.Fetch == nil {
		c.Fetch = &FetchConfig{Parallel: true}
	}
	if c.AutoUpdate == nil {
		c.AutoUpdate = &AutoUpdateConfig{}
	}
	if c.API == nil {
		c.API = &APIConfig{}
	}

	g := c.General
	g.Country = strings.ToUpper(strings.TrimSpace(g.Country))
	g.Server = strings.ToLower(strings.TrimSpace(g.Server))
	g.Position = strings.ToLower(strings.TrimSpace(g.Position))
	g.MarkerName = strings.TrimSpace(g.MarkerName)

	if g.TargetFile == "" {
		g.TargetFile = DefaultTargetFile
	}
	if g.Server == "" {
		g.Server = string(render.Apache)
	}
	if g.IPVersion == 0 {
		g.IPVersion = ranges.SelectV4
	}
	if g.Country == "" {
		g.Country = DefaultCountry
	}
	if g.MarkerName == "" {
		g.MarkerName = block.DefaultMarkerName
	}
	if g.Position == "" {
		g.Position = string(block.PositionTop)
	}

	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Fetch.MaxRedirects == 0 {
		c.Fetch.MaxRedirects = DefaultMaxRedirects
	}
	if c.AutoUpdate.IntervalHours == 0 {
		c.AutoUpdate.IntervalHours = DefaultIntervalHours
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = DefaultListenAddr
	}
	if c.API.AllowedSubnets == nil {
		c.API.AllowedSubnets = append([]string(nil), DefaultAllowedSubnets...)
	}
}

func (c *Config) SerializeConfig() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}

func (c *Config) WriteConfig() error {
	config, err := c.SerializeConfig()
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(c._absConfigFilePath, config.Bytes(), 0644); err != nil {
		return err
	}
	return nil
}

func absPath(configPath string) (string, error) {
	configFile := filepath.Clean(configPath)
	if !filepath.IsAbs(configFile) {
		path, err := filepath.Abs(configFile)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %v", err)
		}
		configFile = path
	}
	return configFile, nil
}
