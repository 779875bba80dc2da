// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.4.0"

// Milestones:
// 0.4.0 - HTTP validation service, Prometheus metrics, OTLP tracing, SQLite catalog
// 0.3.0 - Instrument TOML profiles, detector limits, Sesame name resolution
// 0.2.0 - YAML/JSON codec, execution plans, block browser TUI
// 0.1.0 - Initial release: targets, offset patterns, block validation
