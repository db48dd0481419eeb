// Package commands implements CLI command handlers for geoip-allow.
//
// Each command implements the Runner interface:
//   - Init(): Parse arguments and load configuration
//   - Run(): Execute the command
//   - Name(): Return command name for routing
//
// # Available Commands
//
//   - read: Rebuild a stale block and report the output path
//   - delete: Remove the block from the target file
//   - preview: Print a freshly rendered block without writing it
//   - sources: List range sources
//   - init-config: Write a default configuration file
//   - service: Run the API server and the auto-update loop
package commands
