// Package version exposes build metadata for the beacon binaries.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
// Short and Full render them for logs and the version subcommand.
package version
