package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/maksimkurb/geoip-allow/src/internal/api"
	"github.com/maksimkurb/geoip-allow/src/internal/commands"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

const (
	envConfigPath = "GEOIP_ALLOW_CONFIG"
	envVerbose    = "GEOIP_ALLOW_VERBOSE"
)

func main() {
	// A .env file next to the binary may provide defaults for the flags below.
	envLoadErr := godotenv.Load()

	ctx := &commands.AppContext{
		Version: api.VersionInfo{Version: version, Commit: commit, Date: date},
	}

	// Define flags
	flag.StringVar(&ctx.ConfigPath, "config", envOr(envConfigPath, "geoip-allow.toml"), "Path to configuration file (env "+envConfigPath+")")
	flag.BoolVar(&ctx.Verbose, "verbose", envBool(envVerbose), "Enable debug logging (env "+envVerbose+")")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "GeoIP allow-list builder for .htaccess and nginx configs\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  read                    Build the allow-list block if it is missing or stale, then report\n")
		fmt.Fprintf(os.Stderr, "  delete                  Remove the allow-list block from the target file\n")
		fmt.Fprintf(os.Stderr, "  preview                 Print the block that would be written, without touching the file\n")
		fmt.Fprintf(os.Stderr, "  sources                 List the configured range sources\n")
		fmt.Fprintf(os.Stderr, "  init-config             Write a default configuration file\n")
		fmt.Fprintf(os.Stderr, "  service                 Run as a service (API server and daily auto-update)\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if ctx.Verbose {
		log.SetVerbose(true)
	}
	if envLoadErr != nil {
		log.Debugf("No .env file loaded, using process environment only")
	}

	cmds := []commands.Runner{
		commands.CreateReadCommand(),
		commands.CreateDeleteCommand(),
		commands.CreatePreviewCommand(),
		commands.CreateSourcesCommand(),
		commands.CreateInitConfigCommand(),
		commands.CreateServiceCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]

	// Ensure cfg file exists; init-config creates it
	if subcommand != "init-config" {
		if _, err := os.Stat(ctx.ConfigPath); errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Configuration file not found: %s (run \"init-config\" to create one)", ctx.ConfigPath)
		}
	}

	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
