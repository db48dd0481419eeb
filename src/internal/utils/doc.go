// Package utils provides file and path helpers shared by geoip-allow packages.
//
// # Components
//
//   - Path utilities: resolve paths relative to the configuration directory
//   - File utilities: safe closing and atomic replacement of the target file
//
// # Example Usage
//
//	target := utils.GetAbsolutePath(".htaccess", "/etc/geoip-allow")
//	if err := utils.WriteFileAtomic(target, content, 0644); err != nil {
//	    log.Fatalf("write failed: %v", err)
//	}
package utils
