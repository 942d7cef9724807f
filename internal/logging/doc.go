// Package logging provides slog-based structured logging with console and
// JSON output formats, shared attribute helpers, and component loggers.
package logging
