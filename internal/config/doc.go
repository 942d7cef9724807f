// Package config loads, normalizes, and validates Marquee's TOML
// configuration. A Config is produced once at startup and shared read-only by
// every subsystem.
package config
