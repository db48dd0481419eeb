// Package config handles configuration file parsing and validation for geoip-allow.
//
// The configuration is a TOML file with these sections:
//   - [general] target file, server dialect, address family selector, country,
//     marker name, block position and the pre/post text snippets
//   - [fetch] timeouts, redirect limit and TLS verification for remote sources
//   - [auto_update] background rebuild interval used by the service command
//   - [api] listen address of the HTTP API
//   - [sources] optional URL overrides keyed by source name
//
// Missing values are filled with defaults on load. Country codes are
// upper-cased and server names lower-cased before validation.
//
// # Example Usage
//
//	cfg, err := config.LoadConfig("/etc/geoip-allow.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.GetAbsTargetFile())
package config
