package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
)

func CreateInitConfigCommand() *InitConfigCommand {
	ic := &InitConfigCommand{
		fs: flag.NewFlagSet("init-config", flag.ExitOnError),
	}

	ic.fs.StringVar(&ic.Country, "country", config.DefaultCountry, "Two-letter country code")
	ic.fs.StringVar(&ic.Server, "server", "apache", "Server dialect: apache or nginx")
	ic.fs.StringVar(&ic.IPVersion, "ip-version", "4", "Address families: 4, 6 or 46")
	ic.fs.StringVar(&ic.TargetFile, "target", config.DefaultTargetFile, "Target file, relative to the config directory")
	ic.fs.BoolVar(&ic.Overwrite, "overwrite", false, "Overwrite an existing configuration file")

	return ic
}

// InitConfigCommand writes a default configuration file.
type InitConfigCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext

	Country    string
	Server     string
	IPVersion  string
	TargetFile string
	Overwrite  bool
}

func (i *InitConfigCommand) Name() string {
	return i.fs.Name()
}

func (i *InitConfigCommand) Init(args []string, ctx *AppContext) error {
	i.ctx = ctx
	return i.fs.Parse(args)
}

func (i *InitConfigCommand) Run() error {
	if _, err := os.Stat(i.ctx.ConfigPath); err == nil && !i.Overwrite {
		return fmt.Errorf("configuration file already exists: %s (use -overwrite to replace it)", i.ctx.ConfigPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check configuration file: %v", err)
	}

	selector, err := ranges.ParseSelector(i.IPVersion)
	if err != nil {
		return err
	}

	cfg, err := config.DefaultConfig(i.ctx.ConfigPath)
	if err != nil {
		return err
	}
	cfg.General.Country = i.Country
	cfg.General.Server = i.Server
	cfg.General.IPVersion = selector
	cfg.General.TargetFile = i.TargetFile

	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := cfg.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write configuration: %v", err)
	}

	log.Infof("Configuration written to %s", cfg.GetConfigFilePath())
	return nil
}
