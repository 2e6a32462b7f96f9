// Package version records the application version.
package version

// Version is stamped at build time via -ldflags.
var Version = "0.0.0-dev"
